package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"house-pricer/internal/features"
)

// ArtifactFormat is bumped whenever the on-disk layout changes.
const ArtifactFormat = 1

var (
	// ErrSchemaMismatch is returned when cached artifacts were fit on a
	// different column set than the live dataset.
	ErrSchemaMismatch = errors.New("artifact schema mismatch")
	// ErrIncompleteArtifacts is returned when only one of the model and
	// scaler files exists.
	ErrIncompleteArtifacts = errors.New("incomplete artifacts")

	errNoArtifacts = errors.New("no cached artifacts")
)

// ArtifactHeader is written at the top of both artifacts so either file can
// be checked against the live schema on its own.
type ArtifactHeader struct {
	Format      int       `json:"format"`
	Version     string    `json:"version"`
	TrainedAt   time.Time `json:"trained_at"`
	Fingerprint string    `json:"fingerprint"`
	Columns     []string  `json:"columns"`
}

type modelArtifact struct {
	Header  ArtifactHeader `json:"header"`
	Report  TrainingReport `json:"report"`
	Booster *Booster       `json:"booster"`
}

type scalerArtifact struct {
	Header ArtifactHeader  `json:"header"`
	Scaler *StandardScaler `json:"scaler"`
}

func saveArtifacts(modelPath, scalerPath string, header ArtifactHeader, report TrainingReport, b *Booster, s *StandardScaler) error {
	if err := writeJSONAtomic(scalerPath, scalerArtifact{Header: header, Scaler: s}); err != nil {
		return fmt.Errorf("write scaler: %w", err)
	}
	if err := writeJSONAtomic(modelPath, modelArtifact{Header: header, Report: report, Booster: b}); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// loadArtifacts reads both files and checks them against schema. It returns
// errNoArtifacts when neither file exists.
func loadArtifacts(modelPath, scalerPath string, schema *features.Schema) (*modelArtifact, *scalerArtifact, error) {
	modelExists, err := fileExists(modelPath)
	if err != nil {
		return nil, nil, err
	}
	scalerExists, err := fileExists(scalerPath)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case !modelExists && !scalerExists:
		return nil, nil, errNoArtifacts
	case !modelExists:
		return nil, nil, fmt.Errorf("%w: scaler %s present but model %s missing", ErrIncompleteArtifacts, scalerPath, modelPath)
	case !scalerExists:
		return nil, nil, fmt.Errorf("%w: model %s present but scaler %s missing", ErrIncompleteArtifacts, modelPath, scalerPath)
	}

	var m modelArtifact
	if err := readJSON(modelPath, &m); err != nil {
		return nil, nil, fmt.Errorf("read model: %w", err)
	}
	var s scalerArtifact
	if err := readJSON(scalerPath, &s); err != nil {
		return nil, nil, fmt.Errorf("read scaler: %w", err)
	}

	if err := checkHeader(modelPath, m.Header, schema); err != nil {
		return nil, nil, err
	}
	if err := checkHeader(scalerPath, s.Header, schema); err != nil {
		return nil, nil, err
	}
	if m.Header.Version != s.Header.Version {
		return nil, nil, fmt.Errorf("%w: model version %s does not match scaler version %s",
			ErrSchemaMismatch, m.Header.Version, s.Header.Version)
	}

	if m.Booster == nil {
		return nil, nil, fmt.Errorf("model %s has no booster", modelPath)
	}
	if err := m.Booster.validate(); err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", modelPath, err)
	}
	if s.Scaler == nil {
		return nil, nil, fmt.Errorf("scaler %s has no statistics", scalerPath)
	}
	if err := s.Scaler.validate(); err != nil {
		return nil, nil, fmt.Errorf("scaler %s: %w", scalerPath, err)
	}
	if m.Booster.NumFeatures != schema.Len() || s.Scaler.Width() != schema.Len() {
		return nil, nil, fmt.Errorf("%w: model expects %d features, scaler %d, dataset has %d",
			ErrSchemaMismatch, m.Booster.NumFeatures, s.Scaler.Width(), schema.Len())
	}

	return &m, &s, nil
}

func checkHeader(path string, h ArtifactHeader, schema *features.Schema) error {
	if h.Format != ArtifactFormat {
		return fmt.Errorf("%w: %s has format %d, want %d", ErrSchemaMismatch, path, h.Format, ArtifactFormat)
	}
	if h.Fingerprint != schema.Fingerprint() || features.Fingerprint(h.Columns) != h.Fingerprint {
		return fmt.Errorf("%w: %s was fit on %d columns (%s), dataset has %d (%s)",
			ErrSchemaMismatch, path, len(h.Columns), short(h.Fingerprint), schema.Len(), short(schema.Fingerprint()))
	}
	return nil
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSONAtomic writes through a temp file in the target directory so a
// crash never leaves a truncated artifact behind.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
