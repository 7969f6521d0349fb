package ml

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Boundaries(t *testing.T) {
	testCases := []struct {
		price    float64
		expected string
	}{
		{-5, "Very Low"},
		{0, "Very Low"},
		{999_999, "Very Low"},
		{1_000_000, "Low"},
		{1_999_999.99, "Low"},
		{2_000_000, "Lower-Middle"},
		{3_499_999, "Lower-Middle"},
		{3_500_000, "Middle"},
		{5_000_000, "Upper-Middle"},
		{6_999_999, "Upper-Middle"},
		{7_000_000, "High"},
		{9_999_999, "High"},
		{10_000_000, "Very High"},
		{math.Inf(1), "Very High"},
		{math.Inf(-1), "Very Low"},
		{math.NaN(), "Very Low"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Classify(tc.price).String(), "price %v", tc.price)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		a := rng.Float64()*14_000_000 - 2_000_000
		b := rng.Float64()*14_000_000 - 2_000_000
		if a > b {
			a, b = b, a
		}
		assert.LessOrEqual(t, int(Classify(a)), int(Classify(b)), "classify(%v) vs classify(%v)", a, b)
	}
}

func TestIncomeBrackets(t *testing.T) {
	brackets := IncomeBrackets()
	require.Len(t, brackets, 7)
	assert.Equal(t, VeryLow, brackets[0])
	assert.Equal(t, VeryHigh, brackets[6])
	assert.Equal(t, "Unknown", IncomeBracket(42).String())
}

func TestResidualStd(t *testing.T) {
	std, err := ResidualStd([]float64{10, 12, 14}, []float64{9, 12, 15})
	require.NoError(t, err)
	// residuals 1, 0, -1 have sample variance 1
	assert.InDelta(t, 1.0, std, 1e-12)

	std, err = ResidualStd([]float64{5}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, std)

	std, err = ResidualStd([]float64{3, 4}, []float64{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, std)

	_, err = ResidualStd([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestConfidence(t *testing.T) {
	iv, err := Confidence(100_000, 4_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 196_000, iv.HalfWidth, 1e-9)
	assert.InDelta(t, 95.1, iv.Percentage, 1e-9)

	assert.Equal(t, "±196000.00", FormatHalfWidth(iv.HalfWidth))
	assert.Equal(t, "95.10%", FormatPercentage(iv.Percentage))
}

func TestConfidence_NonPositiveEstimate(t *testing.T) {
	for _, est := range []float64{0, -1, -2_500_000, math.NaN(), math.Inf(1)} {
		iv, err := Confidence(50_000, est)
		require.Error(t, err, "estimate %v", est)
		assert.True(t, errors.Is(err, ErrNonPositiveEstimate))
		assert.InDelta(t, 98_000, iv.HalfWidth, 1e-9)
	}
}

func TestConfidence_HalfWidthNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 500; i++ {
		n := 2 + rng.Intn(50)
		observed := make([]float64, n)
		predicted := make([]float64, n)
		for j := range observed {
			observed[j] = rng.NormFloat64() * 1e6
			predicted[j] = rng.NormFloat64() * 1e6
		}
		std, err := ResidualStd(observed, predicted)
		require.NoError(t, err)

		iv, _ := Confidence(std, rng.Float64()*1e7-2e6)
		assert.GreaterOrEqual(t, iv.HalfWidth, 0.0)
	}

	iv, _ := Confidence(-10, 100)
	assert.Equal(t, 0.0, iv.HalfWidth, "negative spread is clamped")
}
