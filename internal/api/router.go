package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/api/handler"
	apimw "github.com/bradfortner/convergence-queue/internal/api/middleware"
	"github.com/bradfortner/convergence-queue/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.RequestService,
	skipper handler.Skipper,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 16)) // submissions are tiny; 64 KB is plenty
	r.Use(apimw.RequestID)            // X-Request-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	rh := handler.NewRequestHandler(svc, logger)
	ph := handler.NewPlayerHandler(svc, skipper, logger)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/requests", rh.Submit)
		r.Get("/queue", rh.Queue)
		r.Get("/catalog", rh.Catalog)
		r.Get("/now-playing", ph.NowPlaying)
		r.Post("/skip", ph.Skip)
	})

	return r
}
