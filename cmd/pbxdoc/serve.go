package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pbxtools/pbxdoc/adapters/metrics"
	"github.com/pbxtools/pbxdoc/config"
	"github.com/pbxtools/pbxdoc/ports"
	"github.com/pbxtools/pbxdoc/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the documentation over HTTP",
	Long: `Generate the documentation and serve it at / on the configured
address, with /healthz and Prometheus metrics at /metrics.

The config file is watched; a change reloads it and triggers a fresh
generation run. A failed run keeps the previous document up.

Examples:
  pbxdoc serve
  pbxdoc serve --config /etc/pbxdoc/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	bootLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	holder, err := config.NewHolder(cfgFile, bootLog)
	if err != nil {
		return err
	}
	cfg := holder.Get()
	logger := newLogger(cfg)

	collector := metrics.New()
	rt, err := buildRuntime(cmd.Context(), cfg, ports.ProgressSink{}, logger, collector)
	if err != nil {
		return err
	}
	defer rt.Close()

	server := web.New(rt.svc, collector, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Regenerate(ctx); err != nil {
		logger.Error().Err(err).Msg("initial generation failed; serving anyway")
	}

	holder.OnChange(func(*config.Config) {
		// The database and web session are wired from the old config; only
		// the regeneration itself is refreshed here.
		if err := server.Regenerate(context.Background()); err == nil {
			logger.Info().Msg("documentation regenerated after config change")
		}
	})
	if err := holder.Watch(); err != nil {
		logger.Warn().Err(err).Msg("config watch unavailable")
	}
	defer holder.Stop()

	httpServer := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Serve.Addr).Msg("serving documentation")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
