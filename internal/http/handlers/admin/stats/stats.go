// Package stats реализует HTTP-обработчик агрегированной статистики:
// всего пользователей, активных подписок и оценка выручки.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-admin/internal/http/response"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// Service описывает интерфейс агрегированной статистики.
type Service interface {
	Stats(ctx context.Context) *models.Stats
}

// Handler управляет HTTP-запросами статистики.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Агрегированная статистика
// @Description Возвращает число пользователей, активных подписок, цену подписки и оценку выручки.
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Response "Статистика"
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats := h.service.Stats(r.Context())

	log.Info("stats requested",
		slog.Int("total_users", stats.TotalUsers),
		slog.Int("active_subscriptions", stats.ActiveSubscriptions))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stats":     stats,
		"timestamp": time.Now(),
	}))
}
