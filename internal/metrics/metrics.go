// Package metrics provides Prometheus metrics collection for the house price
// service. It defines the prediction, rejection and model quality metrics that
// are exposed via the Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pricing service.
type Metrics struct {
	// Request metrics
	Predictions       prometheus.Counter   // Successful price estimates
	PredictionFailure prometheus.Counter   // Estimates that errored after decoding
	Rejections        prometheus.Counter   // Requests rejected with a client error
	Latency           prometheus.Histogram // Estimate latency in seconds

	// Output distributions
	PredictedPrice prometheus.Histogram   // Distribution of predicted prices
	Confidence     prometheus.Histogram   // Distribution of confidence percentages
	IncomeClasses  *prometheus.CounterVec // Estimates per income bracket

	// Model metrics
	TrainR2     prometheus.Gauge // R² on the training split
	TestR2      prometheus.Gauge // R² on the held out split
	ResidualStd prometheus.Gauge // Training residual standard deviation
	ModelAge    prometheus.Gauge // Age of the active model in seconds
}

// New creates and registers all Prometheus metrics using the default registry.
// This is the standard way to create metrics for production use.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of price estimates served",
		}),
		PredictionFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of estimates that failed after the request was accepted",
		}),
		Rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_rejections_total",
			Help: "Total number of requests rejected with a client error",
		}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Estimate latency in seconds",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		PredictedPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predicted_price",
			Help:    "Distribution of predicted prices",
			Buckets: []float64{1_000_000, 2_000_000, 3_500_000, 5_000_000, 7_000_000, 10_000_000},
		}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "confidence_percentage",
			Help:    "Distribution of confidence percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		IncomeClasses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "income_class_total",
			Help: "Total number of estimates per income bracket",
		}, []string{"class"}),
		TrainR2: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_train_r2",
			Help: "R squared of the active model on its training split",
		}),
		TestR2: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_test_r2",
			Help: "R squared of the active model on its held out split",
		}),
		ResidualStd: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_residual_std",
			Help: "Standard deviation of training residuals",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the active model in seconds",
		}),
	}
}
