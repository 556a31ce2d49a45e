package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cafe-storefront/api/controllers"
	"github.com/angelmondragon/cafe-storefront/api/middleware"
	checkoutsvc "github.com/angelmondragon/cafe-storefront/internal/checkout"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
)

// Services are the saga entry points the router exposes.
type Services struct {
	Checkout   checkoutsvc.Service
	Callback   checkoutsvc.CallbackResolver
	Completion checkoutsvc.CompletionReconciler
	// Ready lists the dependencies /health/ready pings, by name.
	Ready map[string]controllers.Pinger
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.ActionLinks(cfg.Storefront),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Ready))
	})
	if svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", svc.Metrics)
	}

	// Everything below touches the handoff store, so it needs a scope.
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Session(cfg.Storefront.SessionCookie),
			middleware.HandoffScope(cfg.Handoff, logg),
		)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.Storefront.CORSOrigins))
			r.Post("/checkout", controllers.Checkout(svc.Checkout, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/callback", controllers.PaymentsCallback(svc.Callback, logg))
			r.Get("/success", controllers.PaymentsSuccess(svc.Completion, logg))
		})
	})

	return r
}
