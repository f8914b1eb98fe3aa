package server

import (
	"encoding/json"

	apperrors "github.com/copyleftdev/descent/internal/errors"
	"github.com/copyleftdev/descent/internal/optimization/rules"
	"github.com/copyleftdev/descent/internal/optimization/trajectory"
)

// SpecRequest is the wire form of a run. Params are overlaid on the
// variant's defaults, so a request only names what it changes. A missing
// iteration count takes the configured default.
type SpecRequest struct {
	Objective  string          `json:"objective"`
	Variant    rules.Variant   `json:"variant"`
	Params     json.RawMessage `json:"params,omitempty"`
	Initial    []float64       `json:"initial"`
	Iterations *int            `json:"iterations,omitempty"`
}

// Spec resolves the request into a trajectory spec.
func (r SpecRequest) Spec(defaultIterations int) (trajectory.Spec, error) {
	p := rules.DefaultParams(r.Variant)
	if len(r.Params) > 0 && string(r.Params) != "null" {
		if err := json.Unmarshal(r.Params, &p); err != nil {
			return trajectory.Spec{}, apperrors.Wrap(apperrors.ErrBadRequest, "params: "+err.Error())
		}
	}

	n := defaultIterations
	if r.Iterations != nil {
		n = *r.Iterations
	}

	return trajectory.Spec{
		Objective:  r.Objective,
		Variant:    r.Variant,
		Params:     p,
		Initial:    append([]float64(nil), r.Initial...),
		Iterations: n,
	}, nil
}

// CompareRequest runs several specs side by side. Specs are taken as given;
// Variants is a shorthand that expands to one spec per variant sharing the
// objective, initial point and iteration count of the request.
type CompareRequest struct {
	Specs          []SpecRequest   `json:"specs,omitempty"`
	Objective      string          `json:"objective,omitempty"`
	Initial        []float64       `json:"initial,omitempty"`
	Iterations     *int            `json:"iterations,omitempty"`
	Variants       []rules.Variant `json:"variants,omitempty"`
	IncludeHistory bool            `json:"include_history,omitempty"`
}

// Expand returns the specs the request describes.
func (c CompareRequest) Expand(defaultIterations int) ([]trajectory.Spec, error) {
	reqs := append([]SpecRequest(nil), c.Specs...)
	for _, v := range c.Variants {
		reqs = append(reqs, SpecRequest{
			Objective:  c.Objective,
			Variant:    v,
			Initial:    c.Initial,
			Iterations: c.Iterations,
		})
	}
	if len(reqs) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrBadRequest, "compare needs specs or variants")
	}

	specs := make([]trajectory.Spec, len(reqs))
	for i, r := range reqs {
		s, err := r.Spec(defaultIterations)
		if err != nil {
			return nil, err
		}
		specs[i] = s
	}
	return specs, nil
}
