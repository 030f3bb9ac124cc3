package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/nduyhai/placement/internal/config"
	"go.uber.org/fx"
)

func RegisterRoutes(
	lifecycle fx.Lifecycle,
	shutdowner fx.Shutdowner,
	route http.Handler,
	cfg *config.Config,
	logger *httplog.Logger,
) {

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           route,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("Starting HTTP server", slog.String("addr", srv.Addr))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped", slog.Any("error", err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.Any("error", err))
				return err
			}

			logger.Info("HTTP server gracefully stopped")
			return nil
		},
	})
}
