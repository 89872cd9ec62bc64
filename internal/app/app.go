// Package app wires the application together: stores, local sensor stations,
// the online channel client, the ingest pipeline, the intake server, and the
// periodic compose/drain jobs.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/dorolab/skywatch/internal/controllers/intake"
	"github.com/dorolab/skywatch/internal/forecast"
	"github.com/dorolab/skywatch/internal/ingest"
	"github.com/dorolab/skywatch/internal/log"
	"github.com/dorolab/skywatch/internal/managers"
	"github.com/dorolab/skywatch/internal/metrics"
	"github.com/dorolab/skywatch/internal/openweather"
	"github.com/dorolab/skywatch/internal/scheduler"
	"github.com/dorolab/skywatch/internal/store"
	"github.com/dorolab/skywatch/internal/types"
	"github.com/dorolab/skywatch/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// components holds everything built from the configuration.
type components struct {
	weather   *store.WeatherStore
	documents *store.DocumentStore
	status    *store.StatusStore
	collector *metrics.Collector
	pipeline  *ingest.Pipeline
	composer  *forecast.Composer
}

// build constructs the stores and the core pipeline objects.
func (a *App) build() (*components, error) {
	weather, err := store.NewWeatherStore(a.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	documents, err := store.NewDocumentStore(a.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	status, err := store.NewStatusStore(a.cfg.DataDir)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector("skywatch")
	pipeline := ingest.NewPipeline(a.cfg.DataDir, weather, documents, status, collector, a.logger)

	var online forecast.OnlineFetcher
	if a.cfg.OpenWeather.APIKey != "" {
		online = openweather.NewClient(openweather.Config{
			APIKey:  a.cfg.OpenWeather.APIKey,
			Lat:     a.cfg.Site.Latitude,
			Lon:     a.cfg.Site.Longitude,
			Timeout: a.cfg.OpenWeather.Timeout,
		})
	} else {
		log.Info("no OpenWeather API key configured; online channel disabled")
	}

	site := types.Coordinates{
		Lat:        a.cfg.Site.Latitude,
		Lon:        a.cfg.Site.Longitude,
		ElevationM: a.cfg.Site.ElevationM,
	}
	composer := forecast.NewComposer(a.cfg.Site.Name, site, online, weather, documents, collector, a.logger)

	return &components{
		weather:   weather,
		documents: documents,
		status:    status,
		collector: collector,
		pipeline:  pipeline,
		composer:  composer,
	}, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := a.build()
	if err != nil {
		return err
	}

	// Initialize the storage manager and the local sensor stations
	storageManager := managers.NewStorageManager(ctx, &wg, c.weather, c.collector, a.logger)
	wsm, err := managers.NewWeatherStationManager(ctx, &wg, a.cfg, storageManager.ReadingDistributor, a.logger)
	if err != nil {
		return err
	}
	if err := wsm.StartWeatherStations(); err != nil {
		return err
	}

	// Initialize the intake controller
	ic, err := intake.NewController(ctx, &wg, a.cfg.Intake, a.cfg.DataDir, c.weather, c.pipeline, c.collector, a.logger)
	if err != nil {
		return err
	}
	if err := ic.StartController(); err != nil {
		return err
	}

	// Start the periodic compose and inbox-drain jobs
	sched := scheduler.New(a.cfg.Scheduler.ComposeInterval, a.cfg.Ingest.DrainInterval,
		c.composer, c.pipeline, a.cfg.Ingest.InboxDir, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	if a.cfg.Metrics.ListenAddr != "" {
		a.startMetricsServer(ctx, &wg)
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// RunOnce performs a single compose cycle and exits. Used by the -oneshot
// flag for cron-style deployments.
func (a *App) RunOnce(ctx context.Context) error {
	c, err := a.build()
	if err != nil {
		return err
	}
	_, err = c.composer.Compose(ctx)
	return err
}

// startMetricsServer exposes the Prometheus registry on its own listener.
func (a *App) startMetricsServer(ctx context.Context, wg *sync.WaitGroup) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:    a.cfg.Metrics.ListenAddr,
		Handler: mux,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("metrics listening on %s", a.cfg.Metrics.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("metrics server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()
}
