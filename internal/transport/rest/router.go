package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/auth"
	"github.com/viakashmir/admin-console/internal/gateway"
	"github.com/viakashmir/admin-console/internal/metrics"
	"github.com/viakashmir/admin-console/internal/preset"
	"github.com/viakashmir/admin-console/internal/transport"
	"github.com/viakashmir/admin-console/internal/transport/middleware"
	"github.com/viakashmir/admin-console/internal/transport/swagger"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes out.
type Handlers struct {
	Base    *transport.BaseHandler
	Health  *HealthHandler
	Auth    *auth.Handler
	Gateway *gateway.Handler
	Presets *preset.Handler
}

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, h Handlers, collector *metrics.Collector, logger *slog.Logger) error {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(middleware.SecureHeaders(cfg.IsProduction(), logger))
	router.Use(middleware.AccessLog(logger))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}

	router.Get(swagger.SpecPath, swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())
	if collector != nil && cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, collector.Handler())
	}

	var validate func(http.Handler) http.Handler
	if cfg.Server.ValidateRequests {
		v, err := middleware.OpenAPIValidator(swagger.Spec(), h.Base)
		if err != nil {
			return err
		}
		validate = v
	}

	// Mount API under /api/v1 to match the OpenAPI paths
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(h.Base, cfg.Server.RateLimit, cfg.Server.RateWindow))
		if validate != nil {
			r.Use(validate)
		}

		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Gateway != nil {
				pr.Group(func(vr chi.Router) {
					vr.Use(middleware.RequirePermissions(h.Base, auth.PermViewsRead))
					vr.Get("/entities", h.Gateway.ListEntities)
					vr.Get("/views/{entity}", h.Gateway.GetView)
				})
				pr.Group(func(wr chi.Router) {
					wr.Use(middleware.RequirePermissions(h.Base, auth.PermEntitiesWrite))
					wr.Post("/entities/{entity}", h.Gateway.CreateRecord)
					wr.Put("/entities/{entity}/{id}", h.Gateway.UpdateRecord)
					wr.Delete("/entities/{entity}/{id}", h.Gateway.DeleteRecord)
				})
			}

			if h.Presets != nil {
				pr.Group(func(rr chi.Router) {
					rr.Use(middleware.RequirePermissions(h.Base, auth.PermViewsRead))
					rr.Get("/presets/{entity}", h.Presets.ListPresets)
					rr.Get("/presets/{entity}/{name}", h.Presets.GetPreset)
				})
				pr.Group(func(wr chi.Router) {
					wr.Use(middleware.RequirePermissions(h.Base, auth.PermPresetsWrite))
					wr.Post("/presets/{entity}", h.Presets.SavePreset)
					wr.Delete("/presets/{entity}/{name}", h.Presets.DeletePreset)
				})
			}
		})
	})
	return nil
}
