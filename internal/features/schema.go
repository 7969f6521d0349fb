// Package features turns client supplied feature mappings into model rows.
//
// A Schema is derived once from the one-hot encoded training data and frozen
// for the lifetime of the process. Every row handed to the predictor is
// produced by Schema.Align, so the column count and order always match what
// the scaler and model were fit on.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Record maps a feature name to its numeric value.
type Record map[string]float64

// Schema is the ordered canonical column set of a dataset.
type Schema struct {
	columns     []string
	index       map[string]int
	categorical map[string][]string
}

// NewSchema builds a schema from ordered column names. categorical maps a
// source column to its sorted levels; the first level is the dropped
// reference category and every other level must have a matching
// "<source>_<level>" column.
func NewSchema(columns []string, categorical map[string][]string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema needs at least one column")
	}

	s := &Schema{
		columns:     append([]string(nil), columns...),
		index:       make(map[string]int, len(columns)),
		categorical: make(map[string][]string, len(categorical)),
	}

	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := s.index[col]; dup {
			return nil, fmt.Errorf("duplicate column %q", col)
		}
		s.index[col] = i
	}

	for source, levels := range categorical {
		if _, clash := s.index[source]; clash {
			return nil, fmt.Errorf("categorical source %q is also a column", source)
		}
		if len(levels) == 0 {
			return nil, fmt.Errorf("categorical source %q has no levels", source)
		}
		for _, level := range levels[1:] {
			col := IndicatorName(source, level)
			if _, ok := s.index[col]; !ok {
				return nil, fmt.Errorf("categorical source %q: missing indicator column %q", source, col)
			}
		}
		s.categorical[source] = append([]string(nil), levels...)
	}

	return s, nil
}

// IndicatorName is the one-hot column name for a categorical level.
func IndicatorName(source, level string) string {
	return source + "_" + level
}

// Columns returns a copy of the canonical column names in order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Len is the number of canonical columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Has reports whether col is a canonical column.
func (s *Schema) Has(col string) bool {
	_, ok := s.index[col]
	return ok
}

// Categorical returns the sorted levels of a categorical source column.
func (s *Schema) Categorical(source string) ([]string, bool) {
	levels, ok := s.categorical[source]
	if !ok {
		return nil, false
	}
	return append([]string(nil), levels...), true
}

// Sources returns the categorical source column names, sorted.
func (s *Schema) Sources() []string {
	out := make([]string, 0, len(s.categorical))
	for source := range s.categorical {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// Fingerprint identifies the ordered column set. Two schemas share a
// fingerprint only if they have the same columns in the same order.
func (s *Schema) Fingerprint() string {
	return Fingerprint(s.columns)
}

// Fingerprint hashes an ordered list of column names.
func Fingerprint(columns []string) string {
	sum := sha256.Sum256([]byte(strings.Join(columns, "\n")))
	return hex.EncodeToString(sum[:])
}

// Align produces a row with exactly the canonical columns in canonical order.
// Absent columns are 0 and names outside the schema are ignored.
func (s *Schema) Align(rec Record) []float64 {
	row := make([]float64, len(s.columns))
	for name, v := range rec {
		if i, ok := s.index[name]; ok {
			row[i] = v
		}
	}
	return row
}

// Record converts an aligned row back into a record keyed by column name.
func (s *Schema) Record(row []float64) Record {
	rec := make(Record, len(s.columns))
	for i, col := range s.columns {
		if i < len(row) {
			rec[col] = row[i]
		}
	}
	return rec
}
