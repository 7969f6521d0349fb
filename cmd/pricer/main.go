package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"house-pricer/internal/cfg"
	"house-pricer/internal/dataset"
	"house-pricer/internal/metrics"
	"house-pricer/internal/ml"
	"house-pricer/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ ml.MetricsInterface = (*metrics.MetricsWrapper)(nil)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	ds, err := dataset.Load(c.DatasetPath, c.TargetColumn)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.DatasetPath).Msg("dataset load failed, refusing to start")
	}

	predictor, err := ml.FitOrLoad(ctx, ds, fitOptions(c, mw))
	if err != nil {
		if errors.Is(err, ml.ErrSchemaMismatch) {
			log.Fatal().Err(err).Msg("cached model does not match the dataset; retrain with cmd/trainer -force")
		}
		log.Fatal().Err(err).Msg("model initialization failed")
	}

	store := initializeStorage(c)
	var manager *ml.ModelManager
	if store != nil {
		defer store.Close()
		manager = ml.NewModelManager(store)
		if err := manager.Register(predictor, c.ModelPath, c.ScalerPath); err != nil {
			log.Warn().Err(err).Msg("model registration failed")
		}
	}

	server := ml.NewModelServer(predictor, ml.ServerConfig{
		Port:           c.Port,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		MetricsHandler: promhttp.Handler(),
		Manager:        manager,
		Metrics:        mw,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	waitForShutdown(ctx, cancel, server, errCh)
}

func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func fitOptions(c cfg.Settings, mw ml.MetricsInterface) ml.FitOptions {
	params := ml.DefaultBoostParams()
	params.Rounds = c.Boost.Rounds
	params.MaxDepth = c.Boost.MaxDepth
	params.LearningRate = c.Boost.LearningRate
	params.Lambda = c.Boost.Lambda
	params.Gamma = c.Boost.Gamma
	params.MinChildWeight = c.Boost.MinChildWeight

	return ml.FitOptions{
		ModelPath:  c.ModelPath,
		ScalerPath: c.ScalerPath,
		TestSize:   c.TestSize,
		Seed:       c.Seed,
		Boost:      params,
		Metrics:    mw,
	}
}

// initializeStorage opens the model registry. The service runs without it
// when the registry cannot be opened.
func initializeStorage(c cfg.Settings) *storage.Store {
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("registry initialization failed, continuing without version history")
		return nil
	}
	return store
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *ml.ModelServer, errCh <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("model server failed")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
}
