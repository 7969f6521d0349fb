// Package ml trains and serves the house price model.
//
// A Predictor is built once at startup by FitOrLoad: it either loads a cached
// model and scaler whose schema fingerprint matches the live dataset, or fits
// a gradient boosted regressor on the training split and caches both. The
// ModelServer exposes the predictor over HTTP together with the confidence
// band and income bracket for each estimate.
package ml

import (
	"context"

	"house-pricer/internal/features"
)

// MetricsInterface defines metrics methods needed by the predictor and server.
type MetricsInterface interface {
	PredictionsInc()
	FailuresInc()
	RejectionsInc()
	LatencyObserve(float64)
	PredictedPriceObserve(float64)
	ConfidenceObserve(float64)
	IncomeClassInc(string)
	ModelReportSet(trainR2, testR2, residualStd float64)
	ModelAgeSet(float64)
}

// PricingInterface is what the HTTP layer needs from a predictor.
type PricingInterface interface {
	Estimate(ctx context.Context, rec features.Record) (Estimate, error)
	Schema() *features.Schema
	Report() TrainingReport
	FromCache() bool
	Importance() []FeatureStats
}
