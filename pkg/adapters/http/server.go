package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds the size of a submitted tree document.
const maxBodySize = 4 << 20

// Server serves the page API.
type Server struct {
	Pages   ports.PageService
	Streams *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// TreeRequest is the body of page creation and update requests.
type TreeRequest struct {
	Tree *domain.Node `json:"tree"`
}

// PageResponse is returned by page creation and update requests.
type PageResponse struct {
	ID         string             `json:"id"`
	Version    uint64             `json:"version"`
	Boundaries []domain.Boundary  `json:"boundaries"`
	Report     *domain.PassReport `json:"report,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// NewHandler creates a new HTTP handler for the page service. Streams may be
// nil when the pages deliver to another host.
func NewHandler(pages ports.PageService, streams *StreamManager, opts ...Option) http.Handler {
	s := &Server{
		Pages:    pages,
		Streams:  streams,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/pages", func(r chi.Router) {
		r.Post("/", s.CreatePage)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetPage)
			r.Delete("/", s.DeletePage)
			r.Put("/tree", s.UpdatePage)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) decodeTree(w http.ResponseWriter, r *http.Request) (*domain.Node, bool) {
	var body TreeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return nil, false
	}
	if body.Tree == nil {
		http.Error(w, "Missing tree", http.StatusBadRequest)
		return nil, false
	}
	return body.Tree, true
}

// status maps pipeline errors to HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, domain.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrKeyCollision):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrHostCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// respond writes the page after a pass. Host failures still committed the
// pass, so the page is returned along with the error.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, id string, report *domain.PassReport, passErr error) {
	resp := PageResponse{ID: id, Report: report}
	if snap, err := s.Pages.Get(r.Context(), id); err == nil {
		resp.Version = snap.Version
		resp.Boundaries = snap.Boundaries
	}
	if passErr != nil {
		resp.Error = passErr.Error()
		code = status(passErr)
	}
	s.writeJSON(w, code, resp)
}

// CreatePage handles POST /pages.
func (s *Server) CreatePage(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.decodeTree(w, r)
	if !ok {
		return
	}
	id, report, err := s.Pages.Create(r.Context(), tree)
	if id == "" {
		http.Error(w, fmt.Sprintf("Create error: %v", err), status(err))
		s.logger.Warn("CreatePage failed", "error", err)
		return
	}
	s.respond(w, r, http.StatusCreated, id, report, err)
}

// UpdatePage handles PUT /pages/{id}/tree.
func (s *Server) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tree, ok := s.decodeTree(w, r)
	if !ok {
		return
	}
	report, err := s.Pages.Update(r.Context(), id, tree)
	if report == nil && err != nil {
		http.Error(w, fmt.Sprintf("Update error: %v", err), status(err))
		s.logger.Warn("UpdatePage failed", "page_id", id, "error", err)
		return
	}
	s.respond(w, r, http.StatusOK, id, report, err)
}

// GetPage handles GET /pages/{id}.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeletePage handles DELETE /pages/{id}.
func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Pages.Get(r.Context(), id); err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	if err := s.Pages.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), status(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arbor-http",
		"version": strings.TrimSpace(arbor.Version),
	})
}

// SubscribeEvents handles GET /pages/{id}/events: one SSE "update" event per
// host call of the page.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}
	pageID := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to page updates", "page_id", pageID)
	ch, cancel := s.Streams.Subscribe(pageID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "page_id", pageID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
