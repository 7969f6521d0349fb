package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZScore is the two sided 95% normal quantile used for the interval.
const ZScore = 1.96

// ErrNonPositiveEstimate is returned when a confidence percentage is requested
// for a point estimate that is zero, negative or not a number.
var ErrNonPositiveEstimate = errors.New("point estimate must be positive")

// Interval is a symmetric band around a point estimate.
type Interval struct {
	HalfWidth  float64
	Percentage float64
}

// ResidualStd is the sample standard deviation of observed minus predicted.
// Fewer than two residuals give 0.
func ResidualStd(observed, predicted []float64) (float64, error) {
	if len(observed) != len(predicted) {
		return 0, fmt.Errorf("residuals need equal lengths, got %d and %d", len(observed), len(predicted))
	}
	if len(observed) < 2 {
		return 0, nil
	}

	residuals := make([]float64, len(observed))
	for i := range observed {
		residuals[i] = observed[i] - predicted[i]
	}

	if v := stat.Variance(residuals, nil); v > 0 && !math.IsInf(v, 0) {
		return math.Sqrt(v), nil
	}
	return 0, nil
}

// Confidence derives the interval half-width from the residual spread and
// expresses it relative to the point estimate. The half-width is the same for
// every request; only the percentage depends on the estimate.
func Confidence(residualStd, estimate float64) (Interval, error) {
	half := ZScore * math.Max(residualStd, 0)
	if math.IsNaN(half) {
		half = 0
	}
	if !(estimate > 0) || math.IsInf(estimate, 0) {
		return Interval{HalfWidth: half}, fmt.Errorf("%w: got %v", ErrNonPositiveEstimate, estimate)
	}
	return Interval{
		HalfWidth:  half,
		Percentage: (1 - half/estimate) * 100,
	}, nil
}

// FormatHalfWidth renders a half-width as "±1234.56".
func FormatHalfWidth(v float64) string {
	return fmt.Sprintf("±%.2f", v)
}

// FormatPercentage renders a percentage as "87.65%".
func FormatPercentage(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
