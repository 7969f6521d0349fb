// Package dataset loads the historical housing table and expands it into the
// numeric design matrix the model trains on.
//
// Numeric and boolean columns are kept in file order. Text columns are one-hot
// encoded after them: levels are sorted, the first level is the dropped
// reference category, and one indicator column named "<column>_<level>" is
// appended per remaining level.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"

	"house-pricer/internal/features"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingColumn is returned when the target column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrMissingValue is returned when a cell is empty or not a number.
	ErrMissingValue = errors.New("missing value")
)

// Dataset is an immutable, fully numeric view of the training table.
type Dataset struct {
	Schema *features.Schema
	X      [][]float64
	Y      []float64
	Target string
}

// Load reads a CSV file from disk.
func Load(path, target string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f, target)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", ds.Len()).
		Int("features", ds.Schema.Len()).
		Msg("dataset loaded")
	return ds, nil
}

// Read parses CSV with a header row and one-hot encodes its text columns.
func Read(r io.Reader, target string) (*Dataset, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	return FromDataFrame(df, target)
}

// FromDataFrame expands an already parsed frame.
func FromDataFrame(df dataframe.DataFrame, target string) (*Dataset, error) {
	names := df.Names()
	rows := df.Nrow()
	if rows == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}

	hasTarget := false
	for _, name := range names {
		if name == target {
			hasTarget = true
			break
		}
	}
	if !hasTarget {
		return nil, fmt.Errorf("%w: target %q", ErrMissingColumn, target)
	}

	targetCol := df.Col(target)
	if targetCol.Type() == series.String {
		return nil, fmt.Errorf("target %q is not numeric", target)
	}
	y, err := numericValues(targetCol)
	if err != nil {
		return nil, err
	}

	var (
		columns     []string
		numeric     [][]float64
		textColumns []string
	)
	for _, name := range names {
		if name == target {
			continue
		}
		col := df.Col(name)
		if col.Type() == series.String {
			textColumns = append(textColumns, name)
			continue
		}
		values, err := numericValues(col)
		if err != nil {
			return nil, err
		}
		columns = append(columns, name)
		numeric = append(numeric, values)
	}

	categorical := make(map[string][]string, len(textColumns))
	for _, name := range textColumns {
		records, err := textValues(df.Col(name))
		if err != nil {
			return nil, err
		}
		levels := Levels(records)
		categorical[name] = levels

		for _, level := range levels[1:] {
			indicator := make([]float64, rows)
			for i, v := range records {
				if v == level {
					indicator[i] = 1
				}
			}
			columns = append(columns, features.IndicatorName(name, level))
			numeric = append(numeric, indicator)
		}
	}

	schema, err := features.NewSchema(columns, categorical)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	x := make([][]float64, rows)
	for i := range x {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = numeric[j][i]
		}
		x[i] = row
	}

	return &Dataset{Schema: schema, X: x, Y: y, Target: target}, nil
}

// Levels returns the distinct values in sorted order.
func Levels(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func numericValues(col series.Series) ([]float64, error) {
	values := col.Float()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %q row %d", ErrMissingValue, col.Name, i+1)
		}
	}
	return values, nil
}

func textValues(col series.Series) ([]string, error) {
	nan := col.IsNaN()
	for i, missing := range nan {
		if missing {
			return nil, fmt.Errorf("%w: column %q row %d", ErrMissingValue, col.Name, i+1)
		}
	}
	return col.Records(), nil
}

// Len is the number of rows.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Split is a train/test partition of a dataset.
type Split struct {
	TrainX [][]float64
	TrainY []float64
	TestX  [][]float64
	TestY  []float64
}

// Split shuffles row indices with seed and holds out ceil(testSize*n) rows.
// The same seed always yields the same partition.
func (d *Dataset) Split(testSize float64, seed int64) (Split, error) {
	n := d.Len()
	if n < 2 {
		return Split{}, fmt.Errorf("need at least 2 rows to split, have %d", n)
	}
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size %v must be between 0 and 1", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	var s Split
	for i, idx := range perm {
		if i < nTest {
			s.TestX = append(s.TestX, d.X[idx])
			s.TestY = append(s.TestY, d.Y[idx])
			continue
		}
		s.TrainX = append(s.TrainX, d.X[idx])
		s.TrainY = append(s.TrainY, d.Y[idx])
	}
	return s, nil
}
