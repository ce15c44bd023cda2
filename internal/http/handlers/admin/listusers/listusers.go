// Package listusers реализует HTTP-обработчик постраничного списка
// пользователей. Пагинация выполняется в памяти поверх полного списка,
// бэкенд гарантий постраничной выборки не даёт.
package listusers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-admin/internal/http/response"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Service описывает интерфейс списка пользователей.
type Service interface {
	ListAllUsers(ctx context.Context) []*models.User
}

// Handler управляет HTTP-запросами списка пользователей.
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

// Page возвращает страницу списка с номером page (с единицы) и размером
// pageSize. Номер за пределами списка даёт пустую страницу.
func Page(users []*models.User, page, pageSize int) []*models.User {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	start := (page - 1) * pageSize
	if start >= len(users) {
		return nil
	}
	end := start + pageSize
	if end > len(users) {
		end = len(users)
	}
	return users[start:end]
}

// ServeHTTP godoc
// @Summary Постраничный список пользователей
// @Description Возвращает страницу списка всех пользователей, новые первыми.
// @Tags Users
// @Produce json
// @Param page query int false "Номер страницы (с единицы)"
// @Param page_size query int false "Размер страницы, максимум 100"
// @Success 200 {object} response.Response "Страница списка"
// @Security ApiKeyAuth
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.listusers"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	pageSize, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}

	users := h.service.ListAllUsers(r.Context())
	pageUsers := Page(users, page, pageSize)

	log.Info("users listed",
		slog.Int("total", len(users)), slog.Int("page", page), slog.Int("returned", len(pageUsers)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"total":     len(users),
		"page":      page,
		"page_size": pageSize,
		"users":     pageUsers,
	}))
}
