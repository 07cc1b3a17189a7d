package api

import (
	"market-delivery-service/internal/api/handlers"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"market-delivery-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the HTTP layer needs. Geocoder and Metrics may be nil.
type Deps struct {
	Source      ports.SnapshotSource
	Service     *services.DeliveryService
	Geocoder    ports.Geocoder
	Metrics     *obs.Metrics
	RateLimiter *IPRateLimiter
	JWTSecret   string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(loggingMiddleware)
	r.Use(metricsMiddleware(d.Metrics))
	r.Use(middleware.Recoverer)

	ready := &handlers.ReadyHandler{Source: d.Source}
	markets := &handlers.MarketHandler{Source: d.Source, Service: d.Service, Geocoder: d.Geocoder}
	quotes := &handlers.QuoteHandler{Source: d.Source, Service: d.Service, Geocoder: d.Geocoder}
	admin := &handlers.AdminHandler{Source: d.Source}

	r.Get("/health", handlers.Health)
	r.Get("/ready", ready.Ready)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/markets", markets.List)

		r.Group(func(r chi.Router) {
			r.Use(d.RateLimiter.Middleware)
			r.Post("/markets/nearest", markets.Nearest)
			r.Post("/markets/best-quote", markets.BestQuote)
			r.Post("/markets/fees", markets.Fees)
			r.Post("/deliveries/quote", quotes.Quote)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(d.JWTSecret))
			r.Post("/admin/snapshot/invalidate", admin.InvalidateSnapshot)
		})
	})

	return r
}
