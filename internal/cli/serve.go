package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/incident-data-service/internal/adapter/csvsource"
	"github.com/couchcryptid/incident-data-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/incident-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/incident-data-service/internal/adapter/mapbox"
	"github.com/couchcryptid/incident-data-service/internal/config"
	"github.com/couchcryptid/incident-data-service/internal/domain"
	"github.com/couchcryptid/incident-data-service/internal/observability"
	"github.com/couchcryptid/incident-data-service/internal/pipeline"
	"github.com/couchcryptid/incident-data-service/internal/store"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the incident HTTP service",
		Long: `Serve incidents over HTTP. The CSV at INCIDENTS_CSV_PATH is loaded at
startup and reloaded lazily after CACHE_TTL. All settings come from the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return newExitError(ExitCommandError, "load config", err)
	}

	level := cfg.LogLevel
	if rootOpts.Verbose {
		level = "debug"
	}
	logger := observability.NewLogger(cmd.OutOrStdout(), level, cfg.LogFormat)
	metrics := observability.NewMetrics()

	classifier, err := loadClassifier(cfg.CategoriesPath)
	if err != nil {
		return newExitError(ExitCommandError, "load categories", err)
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger,
			mapbox.WithCountry("in"),
			mapbox.WithProximity(cfg.FallbackLatitude, cfg.FallbackLongitude),
		)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher pipeline.BatchPublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	transformer := pipeline.NewTransformer(cfg.ResolverConfig(), geocoder, classifier, logger)
	p := pipeline.New(csvsource.New(cfg.CSVPath), transformer, publisher, logger, metrics)
	incidents := store.New(p, logger, metrics,
		store.WithTTL(cfg.CacheTTL),
		store.WithReloadTimeout(cfg.ReloadTimeout),
		store.WithRetryInterval(cfg.ReloadRetryInterval),
	)
	srv := httpadapter.NewServer(cfg.HTTPAddr, incidents, cfg.ReloadRetryInterval, cfg.StatsLocation, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "csv_path", cfg.CSVPath)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Warm the cache so the first request does not pay for the load.
	go func() {
		if _, err := incidents.Snapshot(ctx); err != nil {
			logger.Warn("initial incident load failed", "error", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		logger.Error("http server error", "error", err)
		runErr = newExitError(ExitCommandError, "http server", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
