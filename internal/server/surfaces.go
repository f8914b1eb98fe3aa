package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/copyleftdev/descent/internal/errors"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// SurfaceInfo describes a supported objective.
type SurfaceInfo struct {
	Name       string `json:"name"`
	Dims       []int  `json:"dims"`
	HasMinimum bool   `json:"has_minimum"`
}

// Surfaces lists the supported objectives and the dimensions each accepts.
func Surfaces() []SurfaceInfo {
	names := objectives.Names()
	out := make([]SurfaceInfo, 0, len(names))
	for _, name := range names {
		info := SurfaceInfo{Name: name}
		for _, d := range []int{1, 2} {
			if o, err := objectives.Lookup(name, d); err == nil {
				info.Dims = append(info.Dims, d)
				info.HasMinimum = o.HasMinimum()
			}
		}
		out = append(out, info)
	}
	return out
}

// maxGridPoints bounds the samples per axis of a requested grid.
const maxGridPoints = 2000

// GridResponse is a sampled surface.
type GridResponse struct {
	Name string      `json:"name"`
	X    []float64   `json:"x"`
	Y    []float64   `json:"y,omitempty"`
	Z    [][]float64 `json:"z"`
}

func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"surfaces": Surfaces()})
}

// handleGrid samples a surface over [min, max) with the given step on every
// axis. Bounds default to the configured surface window; dim selects the
// parabola's dimension.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	dim, err := queryInt(r, "dim")
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	lo, err := queryFloat(r, "min", s.cfg.Surface.Min)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	hi, err := queryFloat(r, "max", s.cfg.Surface.Max)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	step, err := queryFloat(r, "step", s.cfg.Surface.Step)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	if step > 0 && (hi-lo)/step > maxGridPoints {
		apperrors.WriteJSON(w, apperrors.Wrapf(apperrors.ErrBadRequest, "grid wider than %d samples", maxGridPoints))
		return
	}

	o, err := objectives.Lookup(name, dim)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	g, err := objectives.Sample(o, lo, hi, step)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GridResponse{Name: o.Name(), X: g.X, Y: g.Y, Z: g.Rows()})
}
