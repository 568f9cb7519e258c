package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vetadmin/internal/api"
	"vetadmin/internal/bot"
	"vetadmin/internal/config"
	"vetadmin/internal/metrics"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console API, metrics endpoint and slot bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	err := config.WatchSlots(ctx, a.cfg.SlotsPath(), a.cfg.SlotsReload(), func(sc *config.SlotsConfig) {
		policy, grid, err := sc.Build()
		if err != nil {
			a.logger.Error().Err(err).Msg("slots config rejected")
			return
		}
		a.svc.ApplySlotConfig(policy, grid)
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	server := api.NewHTTPServer(a.svc, api.Options{
		APIKeys: a.cfg.Server.APIKeys,
		Redis:   a.rdb,
		Logger:  a.logger,
	})
	g.Go(func() error { return server.Serve(ctx, a.cfg.ServerAddress()) })

	if a.cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		g.Go(func() error { return startMetricsServer(ctx, a.cfg.PrometheusAddress(), a.logger) })
	}

	if a.cfg.Telegram.Enabled {
		b, err := bot.New(a.cfg.Telegram.BotToken, a.cfg.Telegram.Debug, a.svc, a.cfg.Telegram.Managers, a.logger)
		if err != nil {
			return err
		}
		b.Subscribe(a.bus)
		if a.cfg.Telegram.DigestHour > 0 {
			b.StartDigest(ctx, a.cfg.Telegram.DigestHour, a.cfg.Location())
		}
		g.Go(func() error {
			b.Start(ctx)
			return nil
		})
	}

	a.logger.Info().Str("version", Version).Msg("vetadmin started")
	return g.Wait()
}

func startMetricsServer(ctx context.Context, addr string, logger *zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Str("addr", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
