package stats

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-admin/internal/models"
)

// MockService реализует интерфейс stats.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Stats(ctx context.Context) *models.Stats {
	args := m.Called(ctx)
	return args.Get(0).(*models.Stats)
}

func TestStatsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mockService := new(MockService)
	mockService.On("Stats", mock.Anything).Return(&models.Stats{
		TotalUsers:          10,
		ActiveSubscriptions: 4,
		SubscriptionPrice:   399.0,
		TotalRevenue:        1596.0,
		ConversionRate:      40.0,
	})

	handler := New(logger, mockService)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_users":10`)
	assert.Contains(t, w.Body.String(), `"total_revenue":1596`)
	mockService.AssertExpectations(t)
}
