// Package grant реализует HTTP-обработчик выдачи подписки пользователю.
//
// Handler принимает JSON-запрос с параметрами гранта, проверяет, что
// указанный в теле администратор входит в список разрешённых, при
// необходимости создает профиль-заглушку для неизвестного пользователя,
// вызывает бизнес-логику выдачи и возвращает дату окончания подписки.
package grant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-admin/internal/config"
	"github.com/magabrotheeeer/subscription-admin/internal/http/response"
	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
)

// Request — тело запроса на выдачу подписки. Все поля опциональны:
// нулевые значения заменяются настройками по умолчанию.
type Request struct {
	Days       int     `json:"days" validate:"omitempty,min=1"`
	Amount     float64 `json:"amount" validate:"omitempty,min=0"`
	AdminID    int64   `json:"admin_id"`
	PaymentRef string  `json:"payment_ref"`
	Username   string  `json:"username"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
}

// Service описывает интерфейс бизнес-логики выдачи подписки.
type Service interface {
	GetUser(ctx context.Context, id int64) (*models.User, bool)
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) bool
	GrantSubscription(ctx context.Context, p subservice.GrantParams) (time.Time, bool)
}

// Handler управляет HTTP-запросами на выдачу подписок.
type Handler struct {
	log      *slog.Logger
	service  Service
	admin    config.Admin
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом и настройками.
func New(log *slog.Logger, service Service, admin config.Admin) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		admin:    admin,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдать подписку пользователю
// @Description Переводит пользователя в статус active и записывает платёж. Неизвестный пользователь предварительно создается с профилем-заглушкой.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "Идентификатор пользователя"
// @Param request body Request false "Параметры гранта"
// @Success 200 {object} response.Response "Подписка выдана"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор или JSON"
// @Failure 401 {object} response.ErrorResponse "Администратор не в списке разрешённых"
// @Failure 500 {object} response.ErrorResponse "Ошибка выдачи подписки"
// @Security ApiKeyAuth
// @Router /users/{id}/grant [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grant"
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

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	// Проверка администратора — до любых побочных эффектов.
	if req.AdminID != 0 && !h.admin.IsAdmin(req.AdminID) {
		log.Error("admin id is not in the allow-list", slog.Int64("admin_id", req.AdminID))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("access denied"))
		return
	}

	if _, ok := h.service.GetUser(r.Context(), targetID); !ok {
		username := req.Username
		if username == "" {
			username = fmt.Sprintf("user_%d", targetID)
		}
		firstName := req.FirstName
		if firstName == "" {
			firstName = "Admin Created"
		}
		if !h.service.AddUser(r.Context(), targetID, username, firstName, req.LastName) {
			log.Error("failed to create placeholder user", slog.Int64("user_id", targetID))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create user"))
			return
		}
		log.Info("placeholder user created", slog.Int64("user_id", targetID))
	}

	end, ok := h.service.GrantSubscription(r.Context(), subservice.GrantParams{
		UserID:     targetID,
		Days:       req.Days,
		Amount:     req.Amount,
		AdminID:    req.AdminID,
		PaymentRef: req.PaymentRef,
	})
	if !ok {
		log.Error("failed to grant subscription", slog.Int64("user_id", targetID))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not grant subscription"))
		return
	}

	log.Info("subscription granted",
		slog.Int64("user_id", targetID), slog.Int64("admin_id", req.AdminID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_id":    targetID,
		"expires_at": end,
	}))
}
