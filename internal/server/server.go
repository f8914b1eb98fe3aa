// Package server exposes trajectory runs over HTTP and JSON-RPC 2.0.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/descent/internal/config"
	apperrors "github.com/copyleftdev/descent/internal/errors"
	"github.com/copyleftdev/descent/internal/logging"
	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/trajectory"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// JobState tracks one asynchronous run. Fields are guarded by the server's
// jobs mutex.
type JobState struct {
	ID          string
	Spec        trajectory.Spec
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Applied     int
	Current     *trajectory.Record
	History     *trajectory.History
	Summary     *trajectory.Summary
	Err         error
	CancelFunc  context.CancelFunc
}

func (j *JobState) terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Server manages trajectory jobs and serves the HTTP and JSON-RPC APIs.
type Server struct {
	cfg    *config.Config
	logger Logger
	runner *trajectory.Runner

	jobs   map[string]*JobState
	jobsMu sync.RWMutex
	seq    atomic.Uint64
	wg     sync.WaitGroup
}

// NewServer creates a server that executes runs with runner.
func NewServer(cfg *config.Config, logger Logger, runner *trajectory.Runner) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		runner: runner,
		jobs:   make(map[string]*JobState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/trajectories", s.handleStart)
		r.Get("/trajectories/{id}", s.handleStatus)
		r.Delete("/trajectories/{id}", s.handleCancel)
		r.Post("/compare", s.handleCompare)
		r.Get("/surfaces", s.handleSurfaces)
		r.Get("/surfaces/{name}/grid", s.handleGrid)
	})

	r.Post("/rpc", s.handleJSONRPC)
}

// StartResult is returned when a job is accepted.
type StartResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Start validates req and launches its run in the background. Invalid
// requests are rejected before a job is created.
func (s *Server) Start(req SpecRequest) (*StartResult, error) {
	spec, err := req.Spec(s.cfg.Optimization.DefaultIterations)
	if err != nil {
		return nil, err
	}
	if _, _, err := spec.Resolve(); err != nil {
		return nil, err
	}
	if limit := s.cfg.Optimization.MaxIterations; limit > 0 && spec.Iterations > limit {
		return nil, optimization.InvalidHyperparameter("iterations", spec.Iterations, fmt.Sprintf("[0, %d]", limit)).
			WithComponent("server")
	}

	id := fmt.Sprintf("traj_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	job := &JobState{
		ID:          id,
		Spec:        spec,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		CancelFunc:  cancel,
	}

	s.jobsMu.Lock()
	s.jobs[id] = job
	s.jobsMu.Unlock()

	s.wg.Add(1)
	go s.runJob(ctx, job)

	return &StartResult{ID: id, Status: StatusPending}, nil
}

func (s *Server) runJob(ctx context.Context, job *JobState) {
	defer s.wg.Done()
	defer job.CancelFunc()

	s.jobsMu.Lock()
	if job.Status == StatusPending {
		job.Status = StatusRunning
	}
	s.jobsMu.Unlock()

	h, err := s.runner.RunObserved(ctx, job.Spec, func(rec trajectory.Record) {
		s.jobsMu.Lock()
		job.Applied = rec.Iteration
		job.Current = &rec
		job.LastUpdated = time.Now()
		s.jobsMu.Unlock()
	})

	var summary *trajectory.Summary
	if h.Len() > 0 {
		if o, _, rerr := job.Spec.Resolve(); rerr == nil {
			sum := trajectory.Summarize(o, h)
			summary = &sum
		}
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job.History = h
	job.Summary = summary
	job.Err = err
	switch {
	case job.Status == StatusCancelled, ctx.Err() != nil:
		job.Status = StatusCancelled
	case err == nil:
		job.Status = StatusCompleted
	default:
		job.Status = StatusFailed
		s.logger.Warn("trajectory failed", map[string]interface{}{
			"id":    job.ID,
			"error": err.Error(),
		})
	}
	now := time.Now()
	job.EndTime = &now
	job.LastUpdated = now
}

// JobView is the externally visible state of a job.
type JobView struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Spec        trajectory.Spec     `json:"spec"`
	Progress    float64             `json:"progress"`
	Applied     int                 `json:"applied"`
	StartTime   string              `json:"start_time"`
	EndTime     string              `json:"end_time,omitempty"`
	LastUpdated string              `json:"last_update"`
	Current     *trajectory.Record  `json:"current,omitempty"`
	History     []trajectory.Record `json:"history,omitempty"`
	Summary     *trajectory.Summary `json:"summary,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Status returns the view of job id. The history is windowed like a frame:
// the last back records among the first until; non-positive values select
// everything.
func (s *Server) Status(id string, until, back int) (*JobView, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "trajectory %q", id)
	}

	v := &JobView{
		ID:          job.ID,
		Status:      job.Status,
		Spec:        job.Spec,
		Applied:     job.Applied,
		StartTime:   job.StartTime.Format(time.RFC3339),
		LastUpdated: job.LastUpdated.Format(time.RFC3339),
		Current:     job.Current,
		Summary:     job.Summary,
	}
	if job.Spec.Iterations > 0 {
		v.Progress = float64(job.Applied) / float64(job.Spec.Iterations)
	} else if job.terminal() {
		v.Progress = 1
	}
	if job.EndTime != nil {
		v.EndTime = job.EndTime.Format(time.RFC3339)
	}
	if job.Err != nil {
		v.Error = job.Err.Error()
	}
	if job.History != nil {
		if until <= 0 {
			until = job.History.Len()
		}
		v.History = job.History.Window(until, back)
	}
	return v, nil
}

// Cancel stops a pending or running job. The job keeps the records it
// produced before the cancellation took effect.
func (s *Server) Cancel(id string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return apperrors.Wrapf(apperrors.ErrNotFound, "trajectory %q", id)
	}
	if job.terminal() {
		return apperrors.Wrapf(apperrors.ErrBadRequest, "cannot cancel trajectory with status %s", job.Status)
	}

	job.CancelFunc()
	job.Status = StatusCancelled
	job.LastUpdated = time.Now()

	s.logger.Info("trajectory cancelled", map[string]interface{}{"id": id})
	return nil
}

// CompareResult holds one result per compared spec, in request order.
type CompareResult struct {
	Results []trajectory.Result `json:"results"`
}

// Compare runs every spec of req to completion in parallel.
func (s *Server) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	specs, err := req.Expand(s.cfg.Optimization.DefaultIterations)
	if err != nil {
		return nil, err
	}

	results := s.runner.RunAll(ctx, specs)
	if !req.IncludeHistory {
		for i := range results {
			results[i].History = nil
		}
	}
	return &CompareResult{Results: results}, nil
}

// Close cancels all running jobs and waits for them to stop.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	s.jobsMu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req SpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Wrap(apperrors.ErrBadRequest, "invalid request body: "+err.Error()))
		return
	}

	result, err := s.Start(req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	until, err := queryInt(r, "until")
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	back, err := queryInt(r, "back")
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	view, err := s.Status(chi.URLParam(r, "id"), until, back)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.Cancel(chi.URLParam(r, "id")); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, apperrors.Wrap(apperrors.ErrBadRequest, "invalid request body: "+err.Error()))
		return
	}

	result, err := s.Compare(r.Context(), req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrBadRequest, "query parameter %s=%q", key, raw)
	}
	return v, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrBadRequest, "query parameter %s=%q", key, raw)
	}
	return v, nil
}

// writeJSON encodes v before writing the header so that an encoding
// failure becomes a 500 instead of a truncated 2xx body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		apperrors.WriteJSON(w, apperrors.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
