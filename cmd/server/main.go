package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"answer-pipeline/internal/adapter/httpapi"
	"answer-pipeline/internal/di"
	"answer-pipeline/internal/infra"
	"answer-pipeline/internal/infra/config"
	"answer-pipeline/internal/infra/logger"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	enableOTel := os.Getenv("OTEL_ENABLED") == "true"
	log := logger.NewWithOTel(enableOTel)
	if enableOTel {
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if endpoint == "" {
			endpoint = "http://localhost:4318"
		}
		shutdown, err := logger.InitLogProvider(context.Background(), "answer-pipeline", endpoint)
		if err != nil {
			log.Warn("otel log export disabled", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	// 3. Initialize DB
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	dbPool, err := infra.NewPostgresDB(context.Background(), dsn)
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Wire the pipeline
	components := di.NewApplicationComponents(cfg, dbPool, log)

	// 5. Start the category cache warmer
	components.CategoryCache.Start()
	defer components.CategoryCache.Stop()

	// 6. Initialize Echo
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(httpapi.RequestContextMiddleware())
	e.Use(httpapi.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	// 7. Register Handlers
	handler, err := httpapi.NewHandler(components.Orchestrator, cfg.DedupCacheSize, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return dbPool.Ping(ctx)
	})
	if err != nil {
		log.Error("failed to create handler", "error", err)
		os.Exit(1)
	}
	handler.Register(e)

	// 8. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
