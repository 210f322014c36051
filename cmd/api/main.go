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

	httpadapter "github.com/visionops/camsight/internal/adapters/http"
	"github.com/visionops/camsight/internal/bootstrap"
	"github.com/visionops/camsight/internal/config"
	"github.com/visionops/camsight/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New("camsight-api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(app.SessionUC, app.AnalyzeUC, app.Source, app.HTTPMetrics)
	server := &http.Server{
		Addr:        ":" + cfg.APIPort,
		Handler:     router.Handler("camsight-api"),
		ReadTimeout: 30 * time.Second,
		// No write timeout: analysis streams stay open for the whole job.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api_shutdown_incomplete", "error", err)
	}
}
