package listusers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// MockService реализует интерфейс listusers.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ListAllUsers(ctx context.Context) []*models.User {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.User)
	}
	return nil
}

func makeUsers(n int) []*models.User {
	users := make([]*models.User, n)
	for i := range n {
		users[i] = &models.User{UserID: int64(i + 1), Username: fmt.Sprintf("user%d", i+1)}
	}
	return users
}

func TestPage(t *testing.T) {
	users := makeUsers(25)

	tests := []struct {
		name     string
		page     int
		pageSize int
		wantLen  int
		wantFirst int64
	}{
		{name: "first page", page: 1, pageSize: 10, wantLen: 10, wantFirst: 1},
		{name: "middle page", page: 2, pageSize: 10, wantLen: 10, wantFirst: 11},
		{name: "last partial page", page: 3, pageSize: 10, wantLen: 5, wantFirst: 21},
		{name: "page beyond list", page: 4, pageSize: 10, wantLen: 0},
		{name: "zero page defaults to first", page: 0, pageSize: 10, wantLen: 10, wantFirst: 1},
		{name: "zero size defaults", page: 1, pageSize: 0, wantLen: 10, wantFirst: 1},
		{name: "oversized page size is capped", page: 1, pageSize: 1000, wantLen: 25, wantFirst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Page(users, tt.page, tt.pageSize)
			assert.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, got[0].UserID)
			}
		})
	}

	assert.Empty(t, Page(nil, 1, 10))
}

func TestListUsersHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name         string
		url          string
		users        []*models.User
		expectedBody string
	}{
		{
			name:         "default pagination",
			url:          "/users",
			users:        makeUsers(3),
			expectedBody: `"total":3`,
		},
		{
			name:         "explicit page",
			url:          "/users?page=2&page_size=2",
			users:        makeUsers(3),
			expectedBody: `"page":2`,
		},
		{
			name:         "empty list",
			url:          "/users",
			users:        nil,
			expectedBody: `"total":0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockService.On("ListAllUsers", mock.Anything).Return(tt.users)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}
