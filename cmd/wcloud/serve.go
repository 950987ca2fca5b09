package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/wordcloud/internal/config"
	"github.com/zulandar/wordcloud/internal/db"
	"github.com/zulandar/wordcloud/internal/live"
	"github.com/zulandar/wordcloud/internal/logging"
	"github.com/zulandar/wordcloud/internal/metrics"
	"github.com/zulandar/wordcloud/internal/server"
	"github.com/zulandar/wordcloud/internal/sweeper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the session sweeper",
		Long:  "Connects to the configured database, migrates it, then serves the API until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	for _, w := range startupWarnings(cfg) {
		logger.Warn(w)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	broker := live.NewBroker()
	m := metrics.New()

	var sw *sweeper.Sweeper
	if cfg.Sweeper.IsEnabled() {
		sw, err = sweeper.New(sweeper.Options{
			DB:         gormDB,
			Schedule:   cfg.Sweeper.Schedule,
			PruneGrace: cfg.Quota.PruneGrace,
			Publisher:  broker,
			Logger:     logger.Named("sweeper"),
			Metrics:    m,
		})
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx, server.StartOpts{
			DB:      gormDB,
			Config:  cfg,
			Broker:  broker,
			Logger:  logger,
			Metrics: m,
			Out:     cmd.OutOrStdout(),
		})
	})
	if sw != nil {
		g.Go(func() error { return sw.Run(ctx) })
	}

	logger.Info("serving",
		zap.Int("port", cfg.Server.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("sweeper", sw != nil),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Shut down cleanly")
	return nil
}

// startupWarnings lists configuration that works but should not reach
// production.
func startupWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Identity.UsesDefaultSecret() {
		warnings = append(warnings, "identity.secret is not set: participant tokens are signed with the built-in development secret and can be forged; set WCLOUD_IDENTITY_SECRET")
	}
	if !cfg.Quota.FallbackEnabled() {
		return warnings
	}
	return append(warnings, "quota.unguarded_fallback is on: entries are accepted without a quota check while the database is unavailable")
}
