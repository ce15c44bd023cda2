// Package health реализует отчёт о живости процесса: фиксированные
// маршруты /health и /status плюс набор прометеевских метрик для /metrics.
// Пакет получает единственную инжектированную функцию статуса и никогда
// не обращается к хранилищу подписок напрямую.
package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
)

// Status — снимок состояния процесса, который отдаёт инжектированная
// функция статуса.
type Status struct {
	Healthy bool           `json:"healthy"`
	Uptime  float64        `json:"uptime"`
	Name    string         `json:"name"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// StatusFunc возвращает текущий снимок состояния процесса.
type StatusFunc func() Status

// Handler обслуживает маршруты живости.
type Handler struct {
	log    *slog.Logger
	status StatusFunc
}

// New создает новый Handler с переданными логгером и функцией статуса.
func New(log *slog.Logger, status StatusFunc) *Handler {
	return &Handler{
		log:    log,
		status: status,
	}
}

// Health отдаёт базовую проверку живости: 200 с uptime либо 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.status()
	if !status.Healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]any{
			"status":    "unhealthy",
			"timestamp": time.Now(),
		})
		return
	}
	render.JSON(w, r, map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now(),
		"uptime_seconds": status.Uptime,
	})
}

// DetailedStatus отдаёт расширенный статус с метриками хоста.
func (h *Handler) DetailedStatus(w http.ResponseWriter, r *http.Request) {
	status := h.status()

	system := map[string]any{}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		system["cpu_percent"] = percents[0]
	} else if err != nil {
		h.log.Warn("failed to read cpu usage", sl.Err(err))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["memory_percent"] = vm.UsedPercent
		system["memory_available_mb"] = vm.Available / (1024 * 1024)
	} else {
		h.log.Warn("failed to read memory usage", sl.Err(err))
	}

	render.JSON(w, r, map[string]any{
		"bot_status": status,
		"system":     system,
		"timestamp":  time.Now(),
	})
}

// RegisterMetrics регистрирует прометеевские метрики живости:
// bot_healthy, bot_uptime_seconds и загрузку cpu/памяти хоста.
// Значения вычисляются в момент скрейпа.
func RegisterMetrics(reg prometheus.Registerer, status StatusFunc) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bot_healthy",
			Help: "Bot health status (1=healthy, 0=unhealthy)",
		},
		func() float64 {
			if status().Healthy {
				return 1
			}
			return 0
		},
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bot_uptime_seconds",
			Help: "Bot uptime in seconds",
		},
		func() float64 { return status().Uptime },
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "system_cpu_percent",
			Help: "CPU usage percentage",
		},
		func() float64 {
			percents, err := cpu.Percent(0, false)
			if err != nil || len(percents) == 0 {
				return 0
			}
			return percents[0]
		},
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "system_memory_percent",
			Help: "Memory usage percentage",
		},
		func() float64 {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0
			}
			return vm.UsedPercent
		},
	))
}
