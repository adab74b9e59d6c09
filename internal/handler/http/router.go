package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecomkit/basket/internal/basket"
	"github.com/ecomkit/basket/pkg/health"
	"github.com/ecomkit/basket/pkg/middleware"
)

// NewRouter assembles the HTTP surface: the basket API, health endpoints and
// prometheus metrics.
func NewRouter(factory *basket.Factory, healthHandler *health.Handler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.PrometheusMetrics("basket-service"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	handler := NewBasketHandler(factory, log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionFromHeaders)

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", handler.Get)
			r.Delete("/", handler.Clear)
			r.Put("/meta", handler.SetMeta)
			r.Post("/checkout", handler.Checkout)
			r.Post("/load/{orderID}", handler.LoadOrder)

			r.Post("/products", handler.AddProduct)
			r.Patch("/products/{position}", handler.UpdateProduct)
			r.Delete("/products/{position}", handler.DeleteProduct)

			r.Post("/addresses", handler.AddAddress)
			r.Delete("/addresses/{type}/{position}", handler.DeleteAddress)

			r.Post("/services", handler.AddService)
			r.Delete("/services/{type}/{position}", handler.DeleteService)

			r.Post("/coupons", handler.AddCoupon)
			r.Delete("/coupons/{code}", handler.DeleteCoupon)
		})
	})

	return r
}
