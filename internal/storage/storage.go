// Package storage keeps the model version registry for the pricing service.
// It uses BoltDB as the underlying storage engine; each trained or loaded
// model is recorded once under its version key and one of them is marked
// active.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	versionsBucket = "versions" // Bucket name for model version records
	metaBucket     = "meta"     // Bucket name for registry pointers

	activeKey = "active"

	// DBFile is the registry file name inside the data directory.
	DBFile = "registry.db"
)

// ErrVersionNotFound is returned when a version key has no record.
var ErrVersionNotFound = errors.New("version not found")

// ModelVersion is one registered model.
type ModelVersion struct {
	Version     string    `json:"version"`
	ModelPath   string    `json:"model_path"`
	ScalerPath  string    `json:"scaler_path"`
	Fingerprint string    `json:"fingerprint"`
	Features    int       `json:"features"`
	TrainR2     float64   `json:"train_r2"`
	TestR2      float64   `json:"test_r2"`
	ResidualStd float64   `json:"residual_std"`
	TrainRows   int       `json:"train_rows"`
	TestRows    int       `json:"test_rows"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

// Store provides persistent storage for the model registry using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens (or creates) the registry under dataPath.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataPath, DBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(versionsBucket)); err != nil {
			return fmt.Errorf("create versions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveVersion inserts or replaces a version record. The active flag is
// derived from the registry pointer and is not stored.
func (s *Store) SaveVersion(v ModelVersion) error {
	if v.Version == "" {
		return fmt.Errorf("version key is required")
	}
	v.IsActive = false

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal version: %w", err)
		}
		return tx.Bucket([]byte(versionsBucket)).Put([]byte(v.Version), data)
	})
}

// ActivateVersion marks a stored version as active.
func (s *Store) ActivateVersion(version string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(versionsBucket)).Get([]byte(version)) == nil {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		return tx.Bucket([]byte(metaBucket)).Put([]byte(activeKey), []byte(version))
	})
}

// GetVersion returns one version record.
func (s *Store) GetVersion(version string) (ModelVersion, error) {
	var v ModelVersion
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(versionsBucket)).Get([]byte(version))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("unmarshal version %s: %w", version, err)
		}
		v.IsActive = string(tx.Bucket([]byte(metaBucket)).Get([]byte(activeKey))) == version
		return nil
	})
	return v, err
}

// ActiveVersion returns the active version, or nil when none is set.
func (s *Store) ActiveVersion() (*ModelVersion, error) {
	var active string
	err := s.db.View(func(tx *bbolt.Tx) error {
		active = string(tx.Bucket([]byte(metaBucket)).Get([]byte(activeKey)))
		return nil
	})
	if err != nil || active == "" {
		return nil, err
	}

	v, err := s.GetVersion(active)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVersions returns every version, newest first.
func (s *Store) ListVersions() ([]ModelVersion, error) {
	versions := []ModelVersion{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		active := string(tx.Bucket([]byte(metaBucket)).Get([]byte(activeKey)))
		return tx.Bucket([]byte(versionsBucket)).ForEach(func(k, data []byte) error {
			var v ModelVersion
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("unmarshal version %s: %w", k, err)
			}
			v.IsActive = v.Version == active
			versions = append(versions, v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(versions, func(i, j int) bool {
		if versions[i].CreatedAt.Equal(versions[j].CreatedAt) {
			return versions[i].Version > versions[j].Version
		}
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})
	return versions, nil
}
