package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/growthlab/growthlab/server/internal/api"
	"github.com/growthlab/growthlab/server/internal/auth"
	"github.com/growthlab/growthlab/server/internal/chart"
	"github.com/growthlab/growthlab/server/internal/config"
	"github.com/growthlab/growthlab/server/internal/metrics"
	"github.com/growthlab/growthlab/server/internal/notebook"
	"github.com/growthlab/growthlab/server/internal/session"
	"github.com/growthlab/growthlab/server/internal/ui"
	"github.com/growthlab/growthlab/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses defaults and GROWTHLAB_* env vars")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("growthlab-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"stream_interval", cfg.Server.StreamInterval,
		"samples", cfg.Dataset.Samples,
		"seed", cfg.Dataset.Seed,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New(true)

	nb, err := notebook.New(cfg.Dataset.Params, cfg.Slider)
	if err != nil {
		slog.Error("failed to generate dataset", "err", err)
		os.Exit(1)
	}
	nb.SetRecorder(m)

	// Viewer sessions with background idle eviction.
	sessions := session.New(cfg.Server.Session.TTL, nb.Slider)
	go sessions.Run(ctx)

	policy := auth.Policy{
		Mode:   cfg.Server.Auth.Mode,
		Header: cfg.Server.Auth.EffectiveHeader(),
		Key:    cfg.Server.Auth.Key(),
	}
	if cfg.Server.Auth.Mode == "apikey" && !policy.Enabled() {
		slog.Warn("auth: apikey mode without a key; slider changes are unauthenticated",
			"key_env", cfg.Server.Auth.KeyEnv)
	}

	// WebSocket hub pushes views on slider changes, dataset regeneration and
	// every stream interval.
	hub := ws.New(nb, sessions, ws.Options{
		Interval: cfg.Server.StreamInterval,
		Auth:     policy,
	})
	hub.SetRecorder(m)
	go hub.Run(ctx)

	nb.OnRegenerate(func() {
		m.Regenerated()
		sessions.Rebase()
		hub.BroadcastAll()
	})

	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				if err := nb.Regenerate(updated.Dataset.Params, updated.Slider); err != nil {
					slog.Error("config reload: regenerate failed", "err", err)
				}
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	page, err := ui.New(nb, sessions)
	if err != nil {
		slog.Error("failed to build UI", "err", err)
		os.Exit(1)
	}

	apiHandler := api.New(nb, sessions, api.Options{
		Chart:    chartOptions(cfg.Chart),
		Notifier: hub,
		Recorder: m,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", auth.RequireAPIKey(policy, apiHandler))
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", page)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("growthlab-server shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

func chartOptions(c config.ChartConfig) chart.Options {
	return chart.Options{
		Width:  vg.Length(c.WidthIn) * vg.Inch,
		Height: vg.Length(c.HeightIn) * vg.Inch,
		DPI:    c.DPI,
	}
}
