package grant

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-admin/internal/config"
	"github.com/magabrotheeeer/subscription-admin/internal/models"
	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
)

// MockService реализует интерфейс grant.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) GetUser(ctx context.Context, id int64) (*models.User, bool) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *MockService) AddUser(ctx context.Context, id int64, username, firstName, lastName string) bool {
	return m.Called(ctx, id, username, firstName, lastName).Bool(0)
}

func (m *MockService) GrantSubscription(ctx context.Context, p subservice.GrantParams) (time.Time, bool) {
	args := m.Called(ctx, p)
	return args.Get(0).(time.Time), args.Bool(1)
}

func TestGrantHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	admin := config.Admin{AdminIDs: []int64{1000}}
	end := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная выдача существующему пользователю",
			id:   "42",
			body: `{"admin_id": 1000, "days": 21}`,
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(42)).Return(&models.User{UserID: 42}, true)
				m.On("GrantSubscription", mock.Anything, mock.MatchedBy(func(p subservice.GrantParams) bool {
					return p.UserID == 42 && p.Days == 21 && p.AdminID == 1000
				})).Return(end, true)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name: "неизвестный пользователь создается заглушкой",
			id:   "42",
			body: `{"admin_id": 1000}`,
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(42)).Return(nil, false)
				m.On("AddUser", mock.Anything, int64(42), "user_42", "Admin Created", "").Return(true)
				m.On("GrantSubscription", mock.Anything, mock.Anything).Return(end, true)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "администратор не в списке разрешённых",
			id:             "42",
			body:           `{"admin_id": 99}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"access denied"`,
		},
		{
			name:           "некорректный id в URL",
			id:             "abc",
			body:           ``,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"user id must be numeric"`,
		},
		{
			name: "ошибка выдачи подписки",
			id:   "42",
			body: `{"admin_id": 1000}`,
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(42)).Return(&models.User{UserID: 42}, true)
				m.On("GrantSubscription", mock.Anything, mock.Anything).Return(time.Time{}, false)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not grant subscription"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, admin)

			req := httptest.NewRequest(http.MethodPost,
				"/users/"+tt.id+"/grant", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}

// Проверка до побочных эффектов: отказ администратору не трогает хранилище.
func TestGrantHandler_DeniedBeforeSideEffects(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockService := new(MockService)
	handler := New(logger, mockService, config.Admin{AdminIDs: []int64{1000}})

	req := httptest.NewRequest(http.MethodPost, "/users/42/grant",
		strings.NewReader(`{"admin_id": 99}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	mockService.AssertNotCalled(t, "AddUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockService.AssertNotCalled(t, "GrantSubscription", mock.Anything, mock.Anything)
}
