package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/forestscape/soldmis/internal/app"
	"github.com/forestscape/soldmis/internal/platform/db"
	"github.com/forestscape/soldmis/internal/soldmis"
	soldmishttp "github.com/forestscape/soldmis/internal/soldmis/http"
	"github.com/forestscape/soldmis/internal/warehouse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN not set; /soldmis endpoints are open to anyone who can reach this address")
	}

	pool, err := db.New(ctx, cfg.WarehouseDSN)
	if err != nil {
		logger.Error("connect warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	executor := warehouse.NewPoolExecutor(pool, logger)
	schemaCache := warehouse.NewSchemaCache(executor, cfg.WarehouseSchema)
	resultCache := soldmis.NewCache(redisClient, cfg.CacheTTL)

	service := soldmis.NewService(executor, schemaCache, resultCache, logger, soldmis.Options{
		SalesTable:        cfg.SalesTable,
		PaymentsTable:     cfg.PaymentsTable,
		DefaultDateColumn: cfg.DateColumn,
		SoldStatusColumns: cfg.SoldStatusColumns,
	})

	// Surface catalog misconfiguration at boot; the warehouse may simply be
	// unreachable right now, so a failed warm-up is not fatal.
	if err := service.WarmSchema(ctx); err != nil {
		logger.Warn("schema warm-up failed", slog.Any("error", err))
	}

	handler := soldmishttp.NewHandler(logger, service)
	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SoldMISHandler: handler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
