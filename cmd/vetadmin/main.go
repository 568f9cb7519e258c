// Command vetadmin runs the pet clinic admin console.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vetadmin/internal/backend"
	"vetadmin/internal/config"
	"vetadmin/internal/console"
	"vetadmin/internal/events"
	"vetadmin/internal/slots"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "vetadmin",
		Short:         "Pet clinic admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("VETADMIN_CONFIG_PATH", config.DefaultPath), "config file path")

	cmd.AddCommand(
		serveCmd(&configPath),
		slotsCmd(&configPath),
		exportCmd(&configPath),
		notifyCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "vetadmin %s (build: %s)\n", Version, BuildTime)
			},
		},
	)
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// app is everything a command needs, built from the config file.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger
	rdb    *redis.Client
	bus    *events.Bus
	svc    *console.Service
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.BackendTimeout())
	client.UseLogger(&logger)
	client.SetFetchLimit(cfg.FetchAllLimit(), cfg.Backend.Exhaustive)
	if cfg.Backend.RateLimitRPS > 0 {
		client.UseRateLimit(cfg.Backend.RateLimitRPS, cfg.Backend.RateLimitBurst)
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	slotsCfg, err := config.LoadSlotsConfig(cfg.SlotsPath())
	if err != nil {
		return nil, err
	}
	policy, grid, err := slotsCfg.Build()
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	svc := console.NewService(client, slots.NewResolver(policy, grid), bus, &logger)
	svc.SetLocation(cfg.Location())

	return &app{cfg: cfg, logger: &logger, rdb: rdb, bus: bus, svc: svc}, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Logging.Pretty {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
