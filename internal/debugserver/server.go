// Package debugserver exposes live Stage Runner / System Node diagnostics
// over HTTP: depth, avg_ms and per-stage node listings, for operators
// watching a running App from outside the process.
package debugserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/brightforge/ecsloop"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the diagnostics HTTP API for a single App.
type Server struct {
	router    chi.Router
	app       *ecsloop.App
	startTime time.Time
}

// New builds a Server with all routes registered against app.
func New(app *ecsloop.App) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		app:       app,
		startTime: time.Now(),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/nodes", s.handleListNodes)
		r.Get("/stages/{stage}", s.handleStageNodes)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	world := s.app.World()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"app_id":       s.app.ID().String(),
		"uptime":       humanize.Time(s.startTime),
		"uptime_sec":   time.Since(s.startTime).Seconds(),
		"node_count":   len(s.app.Nodes()),
		"entity_count": humanize.Comma(int64(world.EntityCount())),
		"resources":    world.ResourceTypeNames(),
	})
}

type nodeView struct {
	Name  string  `json:"name"`
	Stage string  `json:"stage"`
	Depth int     `json:"depth"`
	AvgMs float64 `json:"avg_ms"`
	Token string  `json:"token"`
}

func newNodeView(n *ecsloop.SystemNodeView) nodeView {
	return nodeView{
		Name:  n.Name,
		Stage: n.Stage,
		Depth: n.Depth,
		AvgMs: n.AvgMs,
		Token: n.Token,
	}
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	views := ecsloop.Inspect(s.app)
	out := make([]nodeView, len(views))
	for i, v := range views {
		out[i] = newNodeView(&v)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleStageNodes(w http.ResponseWriter, r *http.Request) {
	stageName := chi.URLParam(r, "stage")
	views := ecsloop.Inspect(s.app)
	out := make([]nodeView, 0)
	for _, v := range views {
		if v.Stage == stageName {
			out = append(out, newNodeView(&v))
		}
	}
	if len(out) == 0 {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown or empty stage: " + stageName})
		return
	}
	respondJSON(w, http.StatusOK, out)
}
