package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// RouterConfig holds the dependencies of the API router
type RouterConfig struct {
	// Service runs the assessment operations
	Service Service
	// MaxBodySize caps request bodies in bytes, zero disables the cap
	MaxBodySize int64
	// ProcessTimeout bounds a single assessment request, zero disables the bound
	ProcessTimeout time.Duration
	// BatchConcurrency bounds domains processed at once by a triggered batch
	BatchConcurrency int
	// BaseContext outlives requests and scopes triggered batches
	BaseContext context.Context
}

// NewRouter creates a new chi router with all endpoints and middleware
func NewRouter(cfg RouterConfig) http.Handler {
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	h := &Handler{
		service:          cfg.Service,
		maxBodySize:      cfg.MaxBodySize,
		processTimeout:   cfg.ProcessTimeout,
		batchConcurrency: cfg.BatchConcurrency,
		baseCtx:          baseCtx,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/assessments", h.handleAssess)
		r.Get("/assessments/{domain}", h.handleStatus)
		r.Post("/unassessed", h.handleReport)
		r.Post("/batch", h.handleBatch)
	})

	return r
}

// requestLogger logs every request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
