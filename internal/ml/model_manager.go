package ml

import (
	"fmt"
	"time"

	"house-pricer/internal/storage"

	"github.com/rs/zerolog/log"
)

// VersionStore persists model versions.
type VersionStore interface {
	SaveVersion(v storage.ModelVersion) error
	ActivateVersion(version string) error
	ActiveVersion() (*storage.ModelVersion, error)
	ListVersions() ([]storage.ModelVersion, error)
}

// ModelManager records every model the service runs with.
type ModelManager struct {
	store VersionStore
}

// NewModelManager creates a new model manager
func NewModelManager(store VersionStore) *ModelManager {
	return &ModelManager{store: store}
}

// Register records the predictor's model and makes it the active version.
// Registering a cached model again only re-activates it.
func (mm *ModelManager) Register(p *Predictor, modelPath, scalerPath string) error {
	report := p.Report()

	created := report.TrainedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	version := storage.ModelVersion{
		Version:     report.Version,
		ModelPath:   modelPath,
		ScalerPath:  scalerPath,
		Fingerprint: report.Fingerprint,
		Features:    report.Features,
		TrainR2:     report.TrainR2,
		TestR2:      report.TestR2,
		ResidualStd: report.ResidualStd,
		TrainRows:   report.TrainRows,
		TestRows:    report.TestRows,
		CreatedAt:   created,
	}
	if err := mm.store.SaveVersion(version); err != nil {
		return fmt.Errorf("save version %s: %w", version.Version, err)
	}
	if err := mm.store.ActivateVersion(version.Version); err != nil {
		return fmt.Errorf("activate version %s: %w", version.Version, err)
	}

	log.Info().
		Str("version", version.Version).
		Bool("cached", p.FromCache()).
		Msg("model version registered")
	return nil
}

// GetCurrentVersion returns the currently active version
func (mm *ModelManager) GetCurrentVersion() (*storage.ModelVersion, error) {
	return mm.store.ActiveVersion()
}

// ListVersions returns all model versions
func (mm *ModelManager) ListVersions() ([]storage.ModelVersion, error) {
	return mm.store.ListVersions()
}
