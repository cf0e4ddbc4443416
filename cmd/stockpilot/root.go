package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/stockpilot/internal/cache"
	"github.com/JonMunkholm/stockpilot/internal/config"
	"github.com/JonMunkholm/stockpilot/internal/core"
	"github.com/JonMunkholm/stockpilot/internal/logging"
	"github.com/JonMunkholm/stockpilot/internal/store"
	"github.com/JonMunkholm/stockpilot/internal/telemetry"
)

// cli holds state shared by every subcommand once the root pre-run has
// loaded configuration.
type cli struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "stockpilot",
		Short:         "Inventory tracker: HTTP API plus import, export and reporting commands",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(c),
		newImportCmd(c),
		newExportCmd(c),
		newListCmd(c),
		newHistoryCmd(c),
	)
	return root
}

// load reads the dotenv file (values override the environment), then the
// configuration, then installs logging. The server logs to stdout; every
// other command logs to stderr so its output stays pipeable.
func (c *cli) load(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Overload(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	if cmd.Name() == "serve" {
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	} else {
		logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	}
	slog.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// app is the wired object graph behind a command.
type app struct {
	repo    core.Repository
	cache   *cache.RedisCache
	service *core.Service

	shutdownTelemetry telemetry.ShutdownFunc
}

// open connects the store, cache and exporters and prepares the schema.
func (c *cli) open(ctx context.Context) (*app, error) {
	cfg := c.cfg
	a := &app{}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, err
	}
	a.shutdownTelemetry = shutdown

	a.repo, err = store.Open(ctx, cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}
	slog.Info("connected to database", "name", store.Describe(cfg.Database.URL))

	opts := core.Options{
		SeedDemoData:  cfg.Database.SeedDemoData,
		CacheTTL:      cfg.Cache.TTL,
		ImportTimeout: cfg.Import.Timeout,

		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWait:           cfg.Import.MaxWait,
	}
	if cfg.Cache.Enabled() {
		a.cache, err = cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Cache = a.cache
	}

	a.service = core.NewService(a.repo, opts)
	if err := a.service.EnsureReady(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases everything open returned, in reverse order.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("close cache", "error", err)
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
	if a.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTelemetry(ctx); err != nil {
			slog.Warn("flush telemetry", "error", err)
		}
	}
}
