package ml

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitScaler(t *testing.T) {
	x := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
	}

	s, err := FitScaler(x)
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 20, 5}, s.Mean)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.Scale[0], 1e-12, "population standard deviation")
	assert.InDelta(t, 10*math.Sqrt(2.0/3.0), s.Scale[1], 1e-12)
	assert.Equal(t, 1.0, s.Scale[2], "constant column keeps unit scale")

	row, err := s.Transform([]float64{2, 20, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, row)

	_, err = s.Transform([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrFeatureCount))
}

func TestFitScaler_Invalid(t *testing.T) {
	_, err := FitScaler(nil)
	assert.Error(t, err)

	_, err = FitScaler([][]float64{{}})
	assert.Error(t, err)

	_, err = FitScaler([][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, ErrFeatureCount))
}

func TestFitBooster_StepFunction(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		x = append(x, []float64{float64(i)})
		if i < 20 {
			y = append(y, 100)
		} else {
			y = append(y, 300)
		}
	}

	params := DefaultBoostParams()
	params.Rounds = 50
	b, err := FitBooster(context.Background(), x, y, params)
	require.NoError(t, err)
	assert.Len(t, b.Trees, 50)
	assert.InDelta(t, 200, b.BaseScore, 1e-9, "base score is the target mean")

	low, err := b.Predict([]float64{3})
	require.NoError(t, err)
	high, err := b.Predict([]float64{33})
	require.NoError(t, err)
	assert.InDelta(t, 100, low, 1)
	assert.InDelta(t, 300, high, 1)

	first := b.Trees[0].Nodes[0]
	assert.False(t, first.Leaf)
	assert.Equal(t, 0, first.Feature)
	assert.Equal(t, 19.5, first.Threshold, "threshold sits between adjacent distinct values")
}

func TestFitBooster_ConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{7, 7, 7, 7}

	b, err := FitBooster(context.Background(), x, y, DefaultBoostParams())
	require.NoError(t, err)

	for _, tree := range b.Trees {
		require.Len(t, tree.Nodes, 1, "no split has positive gain")
		assert.True(t, tree.Nodes[0].Leaf)
	}
	v, err := b.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 7, v, 1e-9)
}

func TestFitBooster_Invalid(t *testing.T) {
	ctx := context.Background()
	params := DefaultBoostParams()

	_, err := FitBooster(ctx, nil, nil, params)
	assert.Error(t, err)

	_, err = FitBooster(ctx, [][]float64{{1}, {2}}, []float64{1}, params)
	assert.Error(t, err)

	_, err = FitBooster(ctx, [][]float64{{1}, {2, 3}}, []float64{1, 2}, params)
	assert.True(t, errors.Is(err, ErrFeatureCount))

	bad := params
	bad.LearningRate = 0
	_, err = FitBooster(ctx, [][]float64{{1}, {2}}, []float64{1, 2}, bad)
	assert.Error(t, err)

	bad = params
	bad.MaxDepth = 0
	_, err = FitBooster(ctx, [][]float64{{1}, {2}}, []float64{1, 2}, bad)
	assert.Error(t, err)
}

func TestFitBooster_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FitBooster(ctx, [][]float64{{1}, {2}}, []float64{1, 2}, DefaultBoostParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBooster_PredictFeatureCount(t *testing.T) {
	b, err := FitBooster(context.Background(), [][]float64{{1, 2}, {3, 4}}, []float64{1, 2}, DefaultBoostParams())
	require.NoError(t, err)

	_, err = b.Predict([]float64{1})
	assert.True(t, errors.Is(err, ErrFeatureCount))
	_, err = b.PredictAll([][]float64{{1, 2}, {1, 2, 3}})
	assert.True(t, errors.Is(err, ErrFeatureCount))
}

func TestBooster_Validate(t *testing.T) {
	valid := &Booster{
		NumFeatures: 2,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 1, Threshold: 0.5, Left: 1, Right: 2},
			{Leaf: true, Value: -1},
			{Leaf: true, Value: 1},
		}}},
	}
	assert.NoError(t, valid.validate())

	v, err := valid.Predict([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)
	v, err = valid.Predict([]float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	badFeature := &Booster{NumFeatures: 1, Trees: valid.Trees}
	assert.Error(t, badFeature.validate())

	cycle := &Booster{NumFeatures: 2, Trees: []Tree{{Nodes: []Node{{Feature: 0, Left: 0, Right: 0}}}}}
	assert.Error(t, cycle.validate())

	empty := &Booster{NumFeatures: 2, Trees: []Tree{{}}}
	assert.Error(t, empty.validate())
}
