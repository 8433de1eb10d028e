// Package httpapi exposes the interpreter over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

// Engine defines the interface the HTTP surface needs from the
// interpreter core.
type Engine interface {
	Definition() *domain.StateMachineDef
	Execute(ctx context.Context, input any, name string) (*domain.Snapshot, error)
	Step(ctx context.Context, name string) (*domain.Snapshot, error)
	Get(ctx context.Context, name string) (*domain.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	MermaidGraph(snap *domain.Snapshot) string
}

// Server routes HTTP requests to the engine.
type Server struct {
	Engine   Engine
	Gatherer prometheus.Gatherer
}

// NewHandler builds the HTTP handler for the engine. When gatherer is
// non-nil a Prometheus /metrics endpoint is mounted.
func NewHandler(engine Engine, gatherer prometheus.Gatherer) http.Handler {
	s := &Server{Engine: engine, Gatherer: gatherer}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/executions", s.startExecution)
	r.Get("/executions", s.listExecutions)
	r.Get("/executions/{name}", s.getExecution)
	r.Post("/executions/{name}/step", s.stepExecution)
	r.Get("/machine", s.describeMachine)
	r.Get("/machine/graph", s.machineGraph)

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// startRequest is the body of POST /executions.
type startRequest struct {
	Name  string `json:"name,omitempty"`
	Input any    `json:"input"`
}

func (s *Server) startExecution(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	snap, err := s.Engine.Execute(r.Context(), req.Input, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) stepExecution(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, err := s.Engine.Step(r.Context(), name)
	if err != nil {
		if errors.Is(err, ports.ErrExecutionNotFound) {
			writeError(w, http.StatusNotFound, "execution not found")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getExecution(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, err := s.Engine.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, ports.ErrExecutionNotFound) {
			writeError(w, http.StatusNotFound, "execution not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) listExecutions(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": names})
}

// machineSummary is the response of GET /machine.
type machineSummary struct {
	StartAt string         `json:"start_at"`
	Comment string         `json:"comment,omitempty"`
	States  []stateSummary `json:"states"`
}

type stateSummary struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Next     string `json:"next,omitempty"`
	End      bool   `json:"end,omitempty"`
	Resource string `json:"resource,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

func (s *Server) describeMachine(w http.ResponseWriter, r *http.Request) {
	def := s.Engine.Definition()
	summary := machineSummary{StartAt: def.StartAt, Comment: def.Comment}
	for name, sd := range def.States {
		summary.States = append(summary.States, stateSummary{
			Name:     name,
			Type:     sd.Type,
			Next:     sd.Next,
			End:      sd.End,
			Resource: sd.Resource,
			Comment:  sd.Comment,
		})
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) machineGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Engine.MermaidGraph(nil)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
