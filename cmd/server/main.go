package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"plume/internal/cache"
	"plume/internal/config"
	"plume/internal/database"
	"plume/internal/middleware"
	"plume/internal/observability"
	"plume/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	middleware.InitMiddleware(cfg)

	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName: "plume",
		Exporter:    os.Getenv("TRACE_EXPORTER"),
		Endpoint:    os.Getenv("TRACE_ENDPOINT"),
	})
	if err != nil {
		middleware.Logger.Error("tracing init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		middleware.Logger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, rdb)
	app := fiber.New(fiber.Config{
		AppName:      "plume",
		ErrorHandler: server.ErrorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		BodyLimit:    8 << 20,
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	go func() {
		middleware.Logger.Info("server starting", slog.String("addr", cfg.Addr()))
		if err := app.Listen(cfg.Addr()); err != nil {
			middleware.Logger.Error("server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	middleware.Logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := shutdownTracing(ctx); err != nil {
		middleware.Logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
}
