package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kmallard/riverseq/pkg/errors"
	"github.com/kmallard/riverseq/pkg/network"
	"github.com/kmallard/riverseq/pkg/pipeline"
	"github.com/kmallard/riverseq/pkg/store"
)

// Server wires the pipeline runner and optional result store into an HTTP
// handler. A nil store disables the /v1/results endpoints with 404s.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// NewServer creates a server. The runner is required; store may be nil.
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/v1/healthz", s.handleHealthz)
	r.Post("/v1/augment", s.handleAugment)
	if s.store != nil {
		r.Get("/v1/results", s.handleListResults)
		r.Get("/v1/results/{name}", s.handleGetResult)
		r.Delete("/v1/results/{name}", s.handleDeleteResult)
	}
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAugment(w http.ResponseWriter, r *http.Request) {
	var req AugmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	if len(req.Segments) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "segments are required"))
		return
	}
	if req.Save != "" && s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "save requested but no store is configured"))
		return
	}

	// Route the raw segment array through the network codec so weight
	// presence is preserved.
	doc, err := json.Marshal(map[string]json.RawMessage{"segments": req.Segments})
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "reassemble network document"))
		return
	}
	n, err := network.ReadJSON(bytes.NewReader(doc))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse network"))
		return
	}

	opts := req.Options
	opts.Logger = s.logger
	result, err := s.runner.Execute(r.Context(), n, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.Save != "" {
		rec := store.Record{
			Name:        req.Save,
			NetworkHash: result.NetworkHash,
			CreatedAt:   time.Now().UTC(),
			Rows:        result.Rows,
		}
		if err := s.store.Save(r.Context(), rec); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, AugmentResponse{
		NetworkHash:         result.NetworkHash,
		Rows:                result.Rows,
		UndefinedPathLength: result.UndefinedPathLength,
		PartitionCached:     result.CacheInfo.PartitionHit,
	})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": names})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logRequests logs one line per request with the chi request id.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// writeError maps error codes to HTTP statuses and writes the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeMalformedNetwork, errors.ErrCodeMissingColumn:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNetworkNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
