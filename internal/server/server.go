// Package server exposes sessions, submissions and the live aggregate over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/zulandar/wordcloud/internal/config"
	"github.com/zulandar/wordcloud/internal/entry"
	"github.com/zulandar/wordcloud/internal/identity"
	"github.com/zulandar/wordcloud/internal/live"
	"github.com/zulandar/wordcloud/internal/metrics"
	"github.com/zulandar/wordcloud/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPort is used when no port is configured.
const DefaultPort = 8080

// shutdownTimeout bounds how long in-flight requests get after ctx ends.
const shutdownTimeout = 10 * time.Second

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	DB      *gorm.DB
	Config  *config.Config
	Broker  *live.Broker
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Out     io.Writer
}

func (opts StartOpts) withDefaults() (StartOpts, error) {
	if opts.DB == nil {
		return opts, fmt.Errorf("server: db is required")
	}
	if opts.Config == nil {
		cfg, err := config.Parse(nil)
		if err != nil {
			return opts, fmt.Errorf("server: default config: %w", err)
		}
		opts.Config = cfg
	}
	if opts.Broker == nil {
		opts.Broker = live.NewBroker()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return opts, nil
}

// NewHandler builds the full HTTP handler: the gin router wrapped in CORS.
func NewHandler(opts StartOpts) (http.Handler, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	cfg := opts.Config

	opts.Broker.OnSizeChange(func(n int) { opts.Metrics.LiveSubscribers.Set(float64(n)) })

	entries := entry.NewService(entry.Options{
		DB:        opts.DB,
		Surfaces:  entry.SurfacesFromConfig(cfg.Submission),
		Fallback:  cfg.Quota.FallbackEnabled(),
		Publisher: opts.Broker,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	})
	defaults := session.Defaults{
		MaxEntriesPerUser: cfg.SessionDefaults.MaxEntriesPerUser,
		CooldownMinutes:   cfg.SessionDefaults.CooldownMinutes,
		Theme:             cfg.SessionDefaults.Theme,
	}
	h := &handlers{
		db:        opts.DB,
		entries:   entries,
		issuer:    identity.NewIssuer(cfg.Identity.Secret, cfg.Identity.TokenTTL),
		broker:    opts.Broker,
		defaults:  defaults,
		maxUpload: cfg.Server.MaxUploadBytes,
		heartbeat: heartbeatInterval,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger), requestMetrics(opts.Metrics), securityHeaders())
	registerRoutes(router, h)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(router), nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}
	handler, err := NewHandler(opts)
	if err != nil {
		return err
	}

	port := opts.Config.Server.Port
	if port <= 0 {
		port = DefaultPort
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open event streams let go.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Word cloud server running at http://localhost:%d\n", port)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
