package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/stockpilot/internal/web"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			slog.Info("configuration loaded",
				"port", c.cfg.Server.Port,
				"db_max_conns", c.cfg.Database.MaxConns,
				"cache_enabled", c.cfg.Cache.Enabled(),
				"rate_limit_enabled", c.cfg.Rate.Enabled,
				"import_max_concurrent", c.cfg.Import.MaxConcurrent,
			)

			server := web.NewServer(a.service, c.cfg)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start(c.cfg.Server.Addr()) }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
			defer cancel()

			if active := a.service.ActiveImports(); active > 0 {
				slog.Info("waiting for imports to complete", "active", active)
				if err := a.service.WaitForImports(shutdownCtx); err != nil {
					slog.Warn("imports did not complete in time", "error", err)
				} else {
					slog.Info("all imports completed")
				}
			}

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}
