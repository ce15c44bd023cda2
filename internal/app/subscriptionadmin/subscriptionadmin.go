// Package subscriptionadmin собирает приложение: хранилище, кеш,
// бизнес-логику, HTTP-сервер и административного телеграм-бота.
//
// Бэкенд хранилища выбирается конфигурацией: заданная строка подключения
// включает postgres с миграциями, иначе используется встроенный sqlite.
package subscriptionadmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/subscription-admin/internal/bot"
	"github.com/magabrotheeeer/subscription-admin/internal/cache"
	"github.com/magabrotheeeer/subscription-admin/internal/config"
	"github.com/magabrotheeeer/subscription-admin/internal/health"
	"github.com/magabrotheeeer/subscription-admin/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-admin/internal/migrations"
	subservice "github.com/magabrotheeeer/subscription-admin/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-admin/internal/storage"
	"github.com/magabrotheeeer/subscription-admin/internal/storage/postgres"
	"github.com/magabrotheeeer/subscription-admin/internal/storage/sqlite"
)

// App держит все собранные компоненты приложения.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	store     storage.Store
	bot       *bot.Bot
	startTime time.Time
	healthy   atomic.Bool
}

// New собирает приложение из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.subscriptionadmin.New"

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var c subservice.Cache = cache.Noop{}
	if cfg.RedisConnection.Addr != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c = redisCache
	} else {
		logger.Info("redis is not configured, running without cache")
	}

	service := subservice.New(store, c, logger,
		cfg.Admin.SubscriptionDays, cfg.Admin.SubscriptionPrice, cfg.Admin.Currency)

	app := &App{
		logger:    logger,
		store:     store,
		startTime: time.Now(),
	}
	app.healthy.Store(true)

	healthHandler := health.New(logger, app.status)
	health.RegisterMetrics(prometheus.DefaultRegisterer, app.status)

	if cfg.Admin.BotToken != "" {
		adminBot, err := bot.New(cfg.Admin.BotToken, service, cfg.Admin, app.status, logger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.bot = adminBot
	} else {
		logger.Warn("bot token is not configured, telegram surface disabled")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, service, healthHandler, cfg.Admin)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

// openStore выбирает бэкенд хранилища по конфигурации.
func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.StorageConnectionString != "" {
		db, err := postgres.New(cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		if err = postgres.CheckDatabaseReady(db); err != nil {
			return nil, err
		}
		logger.Info("using postgres storage")
		return db, nil
	}

	db, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("using sqlite storage", slog.String("path", cfg.SQLitePath))
	return db, nil
}

// status — снимок состояния процесса для /health, /status и метрик.
func (a *App) status() health.Status {
	return health.Status{
		Healthy: a.healthy.Load(),
		Uptime:  time.Since(a.startTime).Seconds(),
		Name:    "subscription-admin",
	}
}

// Run запускает HTTP-сервер и бота, блокируется до отмены контекста
// и завершает оба компонента корректно.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	if a.bot != nil {
		go func() {
			if err := a.bot.Run(ctx); err != nil {
				a.logger.Error("telegram bot stopped with error", sl.Err(err))
			}
		}()
	}

	select {
	case err := <-errCh:
		a.healthy.Store(false)
		return err
	case <-ctx.Done():
		a.healthy.Store(false)
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.store.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return err
	}
}
