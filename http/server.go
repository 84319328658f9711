package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// APIKeyHeader carries the model credential when the request body omits it.
const APIKeyHeader = "X-Api-Key"

// maxRequestBytes bounds extraction request bodies.
const maxRequestBytes = 1 << 20

// Host is the extraction host the server exposes.
type Host interface {
	ExtractContent(ctx context.Context, pageID string, req pipeline.ExtractRequest) pipeline.ExtractResponse
	Stop(pageID string)
	Content(ctx context.Context, pageID string) (string, error)
}

// Server serves a Host over HTTP:
//
//	POST /pages/{pageID}/extract  run an extraction, reply with an ExtractResponse
//	POST /pages/{pageID}/stop     cancel the page's running extraction
//	GET  /pages/{pageID}/content  the page's last saved document
//	GET  /health                  liveness
type Server struct {
	host   Host
	logger *slog.Logger
	router chi.Router
}

// NewServer creates a new Server.
func NewServer(host Host, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{host: host, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Route("/pages/{pageID}", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/stop", s.handleStop)
		r.Get("/content", s.handleContent)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")

	var req pipeline.ExtractRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, pipeline.ExtractResponse{Error: "invalid request body"})
		return
	}
	if req.APIKey == "" {
		req.APIKey = r.Header.Get(APIKeyHeader)
	}

	s.writeJSON(w, http.StatusOK, s.host.ExtractContent(r.Context(), pageID, req))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.host.Stop(chi.URLParam(r, "pageID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.host.Content(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, content)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := mira.ErrorCode(err)
	status := ErrorStatusCode(code)
	if status == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	http.Error(w, mira.ErrorMessage(err), status)
}

// ErrorStatusCode maps an error code to an HTTP status.
func ErrorStatusCode(code string) int {
	switch code {
	case mira.EINVALID, mira.EMALFORMED:
		return http.StatusBadRequest
	case mira.ENOTFOUND:
		return http.StatusNotFound
	case mira.ENOTPARSEABLE:
		return http.StatusUnprocessableEntity
	case mira.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
