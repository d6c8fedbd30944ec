// Package api - Thin HTTP layer over the recommendation engine.
// The API is ONLY responsible for: input decoding, engine invocation and
// response serialization. It never computes prices itself.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
	"invoice-advisor/internal/metrics"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// DefaultMaxBodyBytes bounds request bodies when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// Options configures a Server
type Options struct {
	Version  string
	Engine   Recommender
	Models   ModelRegistry
	Currency types.Currency
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	// MaxBodyBytes bounds request bodies (zero = DefaultMaxBodyBytes)
	MaxBodyBytes int64
}

// Server is the API server
type Server struct {
	handler *Handler
	router  chi.Router
	version string
	models  ModelRegistry
	metrics *metrics.Metrics
	logger  *zap.Logger
	maxBody int64
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		handler: NewHandler(opts.Engine, opts.Models, opts.Currency, logger),
		router:  chi.NewRouter(),
		version: opts.Version,
		models:  opts.Models,
		metrics: opts.Metrics,
		logger:  logger,
		maxBody: maxBody,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(s.limitBody)

		r.Post("/recommendations", s.handler.HandleRecommend)
		r.Post("/totals", s.handler.HandleTotals)
		r.Get("/models", s.handler.HandleModels)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.NotFound("route", r.URL.Path))
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.models.Ready(); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["reason"] = reasonOf(err)
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"version":     s.version,
		"engine":      "invoice-advisor",
		"api_version": "v1",
		"models":      versionsOf(s.models),
	})
}

func versionsOf(models ModelRegistry) map[string]string {
	out := make(map[string]string)
	for _, info := range models.Info() {
		out[info.Name] = info.Version
	}
	return out
}

// requestID accepts a caller-supplied id or assigns a new one
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// observe records request metrics and a debug log line
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveHTTP(r.Method, route, strconv.Itoa(status), elapsed)
		s.logger.Debug("request served",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed))
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RunConfig holds the listener settings for Run
type RunConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most ShutdownTimeout.
func (s *Server) Run(ctx context.Context, cfg RunConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.Wrap(apperrors.TypeInternal, "server failed", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperrors.Wrap(apperrors.TypeInternal, "shutdown failed", err)
	}
	return nil
}

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned to the current request
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// errPayloadTooLarge is returned when a body exceeds the configured limit
type errPayloadTooLarge struct {
	limit int64
}

func (e errPayloadTooLarge) Error() string {
	return "request body exceeds " + strconv.FormatInt(e.limit, 10) + " bytes"
}

// writeError maps a typed error to its status and error body
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{RequestID: RequestIDFromContext(r.Context())}

	var tooLarge errPayloadTooLarge
	if errors.As(err, &tooLarge) {
		resp.Error = ErrorBody{Code: "PAYLOAD_TOO_LARGE", Message: tooLarge.Error()}
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, resp)
		return
	}

	status := apperrors.HTTPStatus(err)
	if e, ok := apperrors.As(err); ok {
		resp.Error = ErrorBody{Code: string(e.Type), Message: reasonOf(err), Context: e.Context}
	} else {
		resp.Error = ErrorBody{Code: string(apperrors.TypeInternal), Message: err.Error()}
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		resp.Error.Message = "internal error"
		resp.Error.Context = nil
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
