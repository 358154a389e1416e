package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	httphandler "github.com/ericfisherdev/qabox/internal/adapter/driving/http"
	"github.com/ericfisherdev/qabox/internal/config"
)

// runProxy serves the development proxy until ctx is cancelled.
func runProxy(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	handler, err := httphandler.NewProxyHandler(cfg.BackendURL, cfg.Namespace().APIBase(), logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ProxyListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("proxy starting", "addr", cfg.ProxyListenAddr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("proxy shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}
