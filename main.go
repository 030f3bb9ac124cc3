package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/nduyhai/placement/internal/config"
	"github.com/nduyhai/placement/internal/journal"
	"github.com/nduyhai/placement/internal/policy"
	"github.com/nduyhai/placement/internal/pterodactyl"
	"github.com/nduyhai/placement/internal/selector"
	"github.com/nduyhai/placement/internal/server"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(config.Load),
		fx.Provide(NewLogger),
		fx.Provide(NewPanelClient),
		fx.Provide(func(c *pterodactyl.Client) selector.HostingAPI { return c }),
		fx.Provide(NewSelector),
		fx.Provide(NewJournal),
		fx.Provide(NewGuard),
		fx.Provide(selector.NewAPI),
		fx.Provide(fx.Annotate(NewRoute, fx.As(new(http.Handler)))),
		fx.Invoke(server.RegisterRoutes),
	).Run()
}

func NewRoute(logger *httplog.Logger, api *selector.API) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/selections", api.SelectHandler)
	r.Get("/selections", api.RecentHandler)
	r.Delete("/selections", api.PurgeHandler)
	r.Post("/inspections", api.InspectHandler)

	return r
}

func NewLogger(cfg *config.Config) *httplog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *config.Config, w io.Writer) *httplog.Logger {
	logger := httplog.NewLogger("placement", httplog.Options{
		Writer:           w,
		JSON:             true,
		LogLevel:         cfg.LogLevel,
		Concise:          true,
		RequestHeaders:   false,
		MessageFieldName: "message",
		Tags: map[string]string{
			"version": "v0.1.0",
		},
		QuietDownRoutes: []string{
			"/",
			"/health",
		},
		QuietDownPeriod: 10 * time.Second,
		SourceFieldName: "source",
	})
	for _, key := range cfg.Invalid {
		logger.Warn("Ignoring unparseable environment variable, using default", slog.String("key", key))
	}
	return logger
}

func NewPanelClient(lifecycle fx.Lifecycle, cfg *config.Config) *pterodactyl.Client {
	c := pterodactyl.NewClient(pterodactyl.Config{
		BaseURL: cfg.PanelURL,
		APIKey:  cfg.PanelAPIKey,
		Timeout: cfg.PanelTimeout,
		Retries: cfg.PanelRetries,
	})
	lifecycle.Append(fx.StopHook(c.Close))
	return c
}

func NewSelector(api selector.HostingAPI, cfg *config.Config) *selector.Selector {
	return selector.New(api, cfg.Priority())
}

func NewJournal(lifecycle fx.Lifecycle, cfg *config.Config, logger *httplog.Logger) (*journal.Journal, error) {
	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, err
	}
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing journal")
			return j.Close()
		},
	})
	return j, nil
}

func NewGuard(cfg *config.Config, logger *httplog.Logger) policy.Guard {
	if cfg.DemoMode {
		logger.Warn("Demo mode enabled, destructive actions are blocked")
	}
	return policy.NewGuard(cfg.DemoMode)
}
