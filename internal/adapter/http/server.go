package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway serves the JSON body of each endpoint.
type Gateway interface {
	sharedobs.ReadinessChecker

	ListInspections(ctx context.Context) ([]byte, error)
	SearchInspections(ctx context.Context, grade string) ([]byte, error)
	ListPlaces(ctx context.Context) ([]byte, error)
	SearchPlaces(ctx context.Context, state string) ([]byte, error)
	CatalogSearch(ctx context.Context) ([]byte, error)
	CatalogDetails(ctx context.Context, id string) ([]byte, error)
	LanguageList(ctx context.Context) ([]byte, error)
}

// AccessRecorder receives one event per served gateway request.
type AccessRecorder interface {
	Record(ctx context.Context, event domain.AccessEvent)
}

// Options configures optional server behavior.
type Options struct {
	// AllowedOrigins for CORS. Empty means any origin.
	AllowedOrigins []string
	// AccessLog, when set, receives an event for each gateway request.
	AccessLog AccessRecorder
	// Gatherer backs /metrics. Defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer
}

// WriteTimeout bounds each response. Upstream calls must finish well inside it.
const WriteTimeout = 60 * time.Second

// Server exposes the gateway endpoints plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	gateway    Gateway
	accessLog  AccessRecorder
	metrics    *observability.Metrics
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the gateway routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, gw Gateway, metrics *observability.Metrics, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		gateway:   gw,
		accessLog: opts.AccessLog,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		logger:    logger.With("component", "http"),
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(opts),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(s.gateway))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.instrument)

		r.Get("/inspections", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.ListInspections(r.Context())
		}))
		r.Get("/inspections/search", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.SearchInspections(r.Context(), r.URL.Query().Get("grade"))
		}))
		r.Get("/places", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.ListPlaces(r.Context())
		}))
		r.Get("/places/search", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.SearchPlaces(r.Context(), r.URL.Query().Get("state"))
		}))
		r.Get("/rest/search", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.CatalogSearch(r.Context())
		}))
		r.Get("/rest/details", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.CatalogDetails(r.Context(), r.URL.Query().Get("id"))
		}))
		r.Get("/soap", s.handle(func(r *http.Request) ([]byte, error) {
			return s.gateway.LanguageList(r.Context())
		}))
	})

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handle writes the body produced by fn, or a generic 500 when fn fails.
func (s *Server) handle(fn func(*http.Request) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := fn(r)
		if err != nil {
			s.logger.Error("request failed",
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeBody(w, http.StatusOK, body)
	}
}
