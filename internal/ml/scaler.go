package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrFeatureCount is returned when a row does not have the width the scaler
// and model were fit on.
var ErrFeatureCount = errors.New("feature count mismatch")

// StandardScaler centres each column on its training mean and divides by its
// population standard deviation. Columns with zero variance keep a scale of 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column statistics from a training matrix.
func FitScaler(x [][]float64) (*StandardScaler, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on empty matrix")
	}
	cols := len(x[0])
	if cols == 0 {
		return nil, fmt.Errorf("cannot fit scaler on zero columns")
	}

	flat := make([]float64, 0, len(x)*cols)
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrFeatureCount, i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	m := mat.NewDense(len(x), cols, flat)

	s := &StandardScaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Scale[j] = 1
		if sd := math.Sqrt(variance); sd > 0 {
			s.Scale[j] = sd
		}
	}
	return s, nil
}

// Width is the number of columns the scaler was fit on.
func (s *StandardScaler) Width() int {
	return len(s.Mean)
}

// Transform scales one row with the stored statistics.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll scales every row of a matrix.
func (s *StandardScaler) TransformAll(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler has %d means and %d scales", len(s.Mean), len(s.Scale))
	}
	for j, sc := range s.Scale {
		if sc <= 0 || math.IsNaN(sc) || math.IsInf(sc, 0) {
			return fmt.Errorf("scaler column %d has invalid scale %v", j, sc)
		}
	}
	return nil
}
