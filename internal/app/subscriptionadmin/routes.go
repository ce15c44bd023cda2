package subscriptionadmin

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация сгенерированной swagger-спецификации для /docs.
	_ "github.com/magabrotheeeer/subscription-admin/docs"
	"github.com/magabrotheeeer/subscription-admin/internal/config"
	"github.com/magabrotheeeer/subscription-admin/internal/health"
	"github.com/magabrotheeeer/subscription-admin/internal/http/handlers/admin/grant"
	"github.com/magabrotheeeer/subscription-admin/internal/http/handlers/admin/listusers"
	"github.com/magabrotheeeer/subscription-admin/internal/http/handlers/admin/revoke"
	"github.com/magabrotheeeer/subscription-admin/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/subscription-admin/internal/http/handlers/admin/userinfo"
	"github.com/magabrotheeeer/subscription-admin/internal/http/middlewarectx"
	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service *subservice.Service, healthHandler *health.Handler, admin config.Admin) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки живости
	r.Get("/health", healthHandler.Health)
	r.Get("/status", healthHandler.DetailedStatus)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с аутентификацией по API-ключу
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.APIKeyMiddleware(admin.APIKey, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/stats", stats.New(logger, service).ServeHTTP)
			r.Get("/users", listusers.New(logger, service).ServeHTTP)
			r.Get("/users/{id}", userinfo.New(logger, service).ServeHTTP)
			r.Post("/users/{id}/grant", grant.New(logger, service, admin).ServeHTTP)
			r.Post("/users/{id}/revoke", revoke.New(logger, service, admin).ServeHTTP)
		})
	})

	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
