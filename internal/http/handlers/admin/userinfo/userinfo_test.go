package userinfo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// MockService реализует интерфейс userinfo.Service
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

func (m *MockService) UserStats(ctx context.Context, id int64) (*models.UserStats, bool) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.UserStats), args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *MockService) IsSubscribed(ctx context.Context, id int64) bool {
	return m.Called(ctx, id).Bool(0)
}

func TestUserInfoHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	end := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение пользователя",
			id:   "42",
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(42)).Return(&models.User{
					UserID: 42, Username: "alice", Status: models.StatusActive, EndDate: &end,
				}, true)
				m.On("UserStats", mock.Anything, int64(42)).Return(&models.UserStats{
					UserID: 42, Status: models.StatusActive, DaysRemaining: 20,
				}, true)
				m.On("IsSubscribed", mock.Anything, int64(42)).Return(true)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_subscribed":true`,
		},
		{
			name: "пользователь не найден",
			id:   "404",
			setupMock: func(m *MockService) {
				m.On("GetUser", mock.Anything, int64(404)).Return(nil, false)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"user not found"`,
		},
		{
			name:           "некорректный id в URL",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"user id must be numeric"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/users/"+tt.id, nil)
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
