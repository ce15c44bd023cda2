// Package revoke реализует HTTP-обработчик отзыва подписки.
//
// Отзыв для несуществующего пользователя — не ошибка сервера: возвращается
// информационный 404 и никакой записи не выполняется.
package revoke

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-admin/internal/config"
	"github.com/magabrotheeeer/subscription-admin/internal/http/response"
	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// Request — тело запроса на отзыв подписки.
type Request struct {
	AdminID int64 `json:"admin_id"`
}

// Service описывает интерфейс бизнес-логики отзыва подписки.
type Service interface {
	GetUser(ctx context.Context, id int64) (*models.User, bool)
	ExpireSubscription(ctx context.Context, id int64) bool
}

// Handler управляет HTTP-запросами на отзыв подписок.
type Handler struct {
	log     *slog.Logger
	service Service
	admin   config.Admin
}

// New создает новый Handler с переданными логгером, сервисом и настройками.
func New(log *slog.Logger, service Service, admin config.Admin) *Handler {
	return &Handler{
		log:     log,
		service: service,
		admin:   admin,
	}
}

// ServeHTTP godoc
// @Summary Отозвать подписку пользователя
// @Description Принудительно переводит подписку в статус expired. Даты окна остаются как исторический след.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "Идентификатор пользователя"
// @Param request body Request false "Идентификатор администратора"
// @Success 200 {object} response.Response "Подписка отозвана"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Администратор не в списке разрешённых"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка отзыва подписки"
// @Security ApiKeyAuth
// @Router /users/{id}/revoke [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.revoke"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if req.AdminID != 0 && !h.admin.IsAdmin(req.AdminID) {
		log.Error("admin id is not in the allow-list", slog.Int64("admin_id", req.AdminID))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("access denied"))
		return
	}

	if _, ok := h.service.GetUser(r.Context(), targetID); !ok {
		log.Info("user not found", slog.Int64("user_id", targetID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	if !h.service.ExpireSubscription(r.Context(), targetID) {
		log.Error("failed to expire subscription", slog.Int64("user_id", targetID))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not revoke subscription"))
		return
	}

	log.Info("subscription revoked",
		slog.Int64("user_id", targetID), slog.Int64("admin_id", req.AdminID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_id": targetID,
		"status":  models.StatusExpired,
	}))
}
