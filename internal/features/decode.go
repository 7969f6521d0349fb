package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when a request body is not a flat mapping of
// feature names to scalars.
var ErrMalformedRecord = errors.New("malformed record")

// Decode converts a decoded JSON object into a Record.
//
// Canonical columns accept numbers, booleans (1/0), numeric strings and null
// (treated as absent). A categorical source column such as "furnishingstatus"
// accepts one of its level labels and sets the matching indicator. Keys the
// schema does not know are dropped, but their values must still be scalars.
func (s *Schema) Decode(raw map[string]any) (Record, error) {
	rec := make(Record, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var labels []string
	for _, key := range keys {
		val := raw[key]
		switch val.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: feature %q is not a scalar", ErrMalformedRecord, key)
		}

		if _, ok := s.categorical[key]; ok {
			labels = append(labels, key)
			continue
		}
		if !s.Has(key) || val == nil {
			continue
		}

		v, err := scalar(val)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %q: %v", ErrMalformedRecord, key, err)
		}
		rec[key] = v
	}

	// Labels override explicit indicator values for the same source.
	for _, source := range labels {
		val := raw[source]
		if val == nil {
			continue
		}
		label, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%w: feature %q expects a category label", ErrMalformedRecord, source)
		}
		if err := s.setLevel(rec, source, label); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func (s *Schema) setLevel(rec Record, source, label string) error {
	levels := s.categorical[source]
	found := false
	for _, level := range levels {
		if level == label {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: feature %q: unknown category %q (want one of %s)",
			ErrMalformedRecord, source, label, strings.Join(levels, ", "))
	}

	for _, level := range levels[1:] {
		col := IndicatorName(source, level)
		if level == label {
			rec[col] = 1
		} else {
			rec[col] = 0
		}
	}
	return nil
}

func scalar(val any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch v := val.(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case bool:
		if v {
			f = 1
		}
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
	default:
		return 0, fmt.Errorf("unsupported value of type %T", val)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	return f, nil
}
