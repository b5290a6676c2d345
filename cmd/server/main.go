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

	"github.com/robfig/cron/v3"

	"rentacars/internal/api"
	"rentacars/internal/auth"
	"rentacars/internal/config"
	"rentacars/internal/metrics"
	"rentacars/internal/repository"
	"rentacars/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	m := metrics.NewCollector("rentacars")

	// No timeout unless REQUEST_TIMEOUT is set.
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	client := repository.NewAPIClient(cfg.APIURL,
		repository.WithHTTPClient(httpClient),
		repository.WithMetrics(m),
		repository.WithLogger(logger),
	)
	console := service.NewConsole(client, logger)
	shells := service.NewSessionStore(console.NewShell, m)

	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, console sessions will not survive a restart")
	}
	cookies := auth.NewCookieStore(cfg.SessionSecret, cfg.SessionIdleTimeout, cfg.SecureCookies)
	sessions := auth.NewConsoleSessions(cookies, shells, logger)

	jobs := service.NewJobService(shells, cfg.SessionIdleTimeout, logger)
	c := cron.New()
	if _, err := jobs.Schedule(c, cfg.SweepSchedule); err != nil {
		logger.Error("failed to schedule session sweep", "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	router, err := api.NewRouter(sessions, m, logger, os.Stdout)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Server running", "port", cfg.Port, "api_url", cfg.APIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
