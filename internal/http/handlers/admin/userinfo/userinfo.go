// Package userinfo реализует HTTP-обработчик детальной информации
// о пользователе: профиль и вычисленная сводка по подписке одним ответом.
package userinfo

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-admin/internal/http/response"
	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// Service описывает интерфейс чтения профиля и сводки.
type Service interface {
	GetUser(ctx context.Context, id int64) (*models.User, bool)
	UserStats(ctx context.Context, id int64) (*models.UserStats, bool)
	IsSubscribed(ctx context.Context, id int64) bool
}

// Handler управляет HTTP-запросами детальной информации о пользователе.
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
// @Summary Детальная информация о пользователе
// @Description Возвращает профиль пользователя и вычисленную сводку по подписке и использованию.
// @Tags Users
// @Produce json
// @Param id path int true "Идентификатор пользователя"
// @Success 200 {object} response.Response "Профиль и сводка"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userinfo"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("user id must be numeric"))
		return
	}

	user, ok := h.service.GetUser(r.Context(), targetID)
	if !ok {
		log.Info("user not found", slog.Int64("user_id", targetID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	stats, _ := h.service.UserStats(r.Context(), targetID)

	log.Info("user info requested", slog.Int64("user_id", targetID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":          user,
		"stats":         stats,
		"is_subscribed": h.service.IsSubscribed(r.Context(), targetID),
	}))
}
