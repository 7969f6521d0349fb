package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"house-pricer/internal/cfg"
	"house-pricer/internal/dataset"
	"house-pricer/internal/ml"
	"house-pricer/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		datasetPath = flag.String("dataset", "", "Path to the housing CSV (overrides config)")
		target      = flag.String("target", "", "Target column (overrides config)")
		modelPath   = flag.String("model", "", "Model artifact path (overrides config)")
		scalerPath  = flag.String("scaler", "", "Scaler artifact path (overrides config)")
		rounds      = flag.Int("rounds", 0, "Boosting rounds (overrides config)")
		depth       = flag.Int("depth", 0, "Maximum tree depth (overrides config)")
		eta         = flag.Float64("eta", 0, "Learning rate (overrides config)")
		force       = flag.Bool("force", true, "Refit even when cached artifacts exist")
		register    = flag.Bool("register", true, "Record the model in the version registry")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Override config with command line arguments
	if *datasetPath != "" {
		config.DatasetPath = *datasetPath
	}
	if *target != "" {
		config.TargetColumn = *target
	}
	if *modelPath != "" {
		config.ModelPath = *modelPath
	}
	if *scalerPath != "" {
		config.ScalerPath = *scalerPath
	}

	params := ml.DefaultBoostParams()
	params.Rounds = orInt(*rounds, config.Boost.Rounds)
	params.MaxDepth = orInt(*depth, config.Boost.MaxDepth)
	params.LearningRate = orFloat(*eta, config.Boost.LearningRate)
	params.Lambda = config.Boost.Lambda
	params.Gamma = config.Boost.Gamma
	params.MinChildWeight = config.Boost.MinChildWeight

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ds, err := dataset.Load(config.DatasetPath, config.TargetColumn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}

	predictor, err := ml.FitOrLoad(ctx, ds, ml.FitOptions{
		ModelPath:  config.ModelPath,
		ScalerPath: config.ScalerPath,
		TestSize:   config.TestSize,
		Seed:       config.Seed,
		Boost:      params,
		Force:      *force,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	if *register {
		store, err := storage.New(config.DataPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open registry")
		}
		defer store.Close()
		if err := ml.NewModelManager(store).Register(predictor, config.ModelPath, config.ScalerPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to register model")
		}
	}

	printReport(predictor)
}

func printReport(p *ml.Predictor) {
	r := p.Report()
	source := "fit"
	if p.FromCache() {
		source = "cache"
	}

	fmt.Println("=== Training Report ===")
	fmt.Printf("Version:       %s (%s)\n", r.Version, source)
	fmt.Printf("Fingerprint:   %s\n", r.Fingerprint)
	fmt.Printf("Features:      %d\n", r.Features)
	fmt.Printf("Rows:          %d train / %d test\n", r.TrainRows, r.TestRows)
	fmt.Printf("Training R²:   %.4f\n", r.TrainR2)
	fmt.Printf("Test R²:       %.4f\n", r.TestR2)
	fmt.Printf("Residual std:  %.2f\n", r.ResidualStd)
	fmt.Printf("Interval:      %s\n", ml.FormatHalfWidth(ml.ZScore*r.ResidualStd))
	fmt.Println("=======================")
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
