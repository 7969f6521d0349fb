package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "Housing.csv", settings.DatasetPath)
				assert.Equal(t, "price", settings.TargetColumn)
				assert.Equal(t, "models/model.json", settings.ModelPath)
				assert.Equal(t, "models/scaler.json", settings.ScalerPath)
				assert.Equal(t, 5000, settings.Port)
				assert.Equal(t, 0.2, settings.TestSize)
				assert.Equal(t, int64(42), settings.Seed)
				assert.Equal(t, 100, settings.Boost.Rounds)
				assert.Equal(t, 6, settings.Boost.MaxDepth)
				assert.Equal(t, 0.3, settings.Boost.LearningRate)
				assert.Equal(t, 10*time.Second, settings.ReadTimeout)
				assert.Equal(t, ":5000", settings.Addr())
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"DATASET_PATH":  "/data/houses.csv",
				"TARGET_COLUMN": "sale_price",
				"PORT":          "8081",
				"TEST_SIZE":     "0.25",
				"SEED":          "7",
				"BOOST_ROUNDS":  "250",
				"MAX_DEPTH":     "4",
				"LEARNING_RATE": "0.1",
				"GAMMA":         "0.5",
				"READ_TIMEOUT":  "20s",
				"LOG_LEVEL":     "debug",
				"LOG_FORMAT":    "json",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "/data/houses.csv", settings.DatasetPath)
				assert.Equal(t, "sale_price", settings.TargetColumn)
				assert.Equal(t, 8081, settings.Port)
				assert.Equal(t, 0.25, settings.TestSize)
				assert.Equal(t, int64(7), settings.Seed)
				assert.Equal(t, 250, settings.Boost.Rounds)
				assert.Equal(t, 4, settings.Boost.MaxDepth)
				assert.Equal(t, 0.1, settings.Boost.LearningRate)
				assert.Equal(t, 0.5, settings.Boost.Gamma)
				assert.Equal(t, 1.0, settings.Boost.MinChildWeight)
				assert.Equal(t, 20*time.Second, settings.ReadTimeout)
				assert.Equal(t, "debug", settings.LogLevel)
				assert.Equal(t, "json", settings.LogFormat)
			},
		},
		{
			name: "unparseable values fall back to defaults",
			envVars: map[string]string{
				"PORT":         "not-a-port",
				"READ_TIMEOUT": "soon",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, 5000, settings.Port)
				assert.Equal(t, 10*time.Second, settings.ReadTimeout)
			},
		},
		{
			name: "invalid port",
			envVars: map[string]string{
				"PORT": "80",
			},
			wantErr: true,
		},
		{
			name: "invalid learning rate",
			envVars: map[string]string{
				"LEARNING_RATE": "2.5",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
dataset:
  path: "/srv/Housing.csv"
  targetColumn: "price"
  testSize: 0.3
  seed: 11

model:
  modelPath: "/srv/models/model.json"
  scalerPath: "/srv/models/scaler.json"
  boost:
    rounds: 300
    maxDepth: 5
    learningRate: 0.05
    lambda: 2
    minChildWeight: 3

server:
  port: 9000
  readTimeout: "15s"
  writeTimeout: "20s"

system:
  dataPath: "/srv/data"
  logLevel: "warn"
  logFormat: "json"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "/srv/Housing.csv", settings.DatasetPath)
				assert.Equal(t, 0.3, settings.TestSize)
				assert.Equal(t, int64(11), settings.Seed)
				assert.Equal(t, "/srv/models/model.json", settings.ModelPath)
				assert.Equal(t, "/srv/models/scaler.json", settings.ScalerPath)
				assert.Equal(t, 300, settings.Boost.Rounds)
				assert.Equal(t, 5, settings.Boost.MaxDepth)
				assert.Equal(t, 0.05, settings.Boost.LearningRate)
				assert.Equal(t, 2.0, settings.Boost.Lambda)
				assert.Equal(t, 3.0, settings.Boost.MinChildWeight)
				assert.Equal(t, 0.0, settings.Boost.Gamma)
				assert.Equal(t, 9000, settings.Port)
				assert.Equal(t, 15*time.Second, settings.ReadTimeout)
				assert.Equal(t, 20*time.Second, settings.WriteTimeout)
				assert.Equal(t, "/srv/data", settings.DataPath)
				assert.Equal(t, "warn", settings.LogLevel)
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
dataset:
  path: "/srv/Housing.csv"
server:
  port: 9000
`,
			envOverrides: map[string]string{
				"DATASET_PATH": "/override/Housing.csv",
				"PORT":         "9100",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, "/override/Housing.csv", settings.DatasetPath)
				assert.Equal(t, 9100, settings.Port)
				assert.Equal(t, 100, settings.Boost.Rounds, "unset YAML values use defaults")
			},
		},
		{
			name: "YAML zero values are kept",
			yamlContent: `
dataset:
  seed: 0
model:
  boost:
    lambda: 0
    gamma: 0
    minChildWeight: 0
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, int64(0), settings.Seed)
				assert.Equal(t, 0.0, settings.Boost.Lambda)
				assert.Equal(t, 0.0, settings.Boost.Gamma)
				assert.Equal(t, 0.0, settings.Boost.MinChildWeight)
			},
		},
		{
			name: "YAML without optional keys uses defaults",
			yamlContent: `
server:
  port: 9000
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				assert.Equal(t, int64(42), settings.Seed)
				assert.Equal(t, 1.0, settings.Boost.Lambda)
				assert.Equal(t, 1.0, settings.Boost.MinChildWeight)
			},
		},
		{
			name: "YAML with invalid values",
			yamlContent: `
model:
  boost:
    maxDepth: 64
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			require.NoError(t, err, "failed to write test config file")

			settings, err := loadFromYAML(configPath)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	_, err := loadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("PORT", "6000")

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 6000, settings.Port)
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 7000\n"), 0o644))
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 7000, settings.Port)
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadDotEnv(filepath.Join(dir, ".env")))
	})

	t.Run("file populates environment", func(t *testing.T) {
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("HOUSE_PRICER_DOTENV_CHECK=value\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("HOUSE_PRICER_DOTENV_CHECK") })

		require.NoError(t, loadDotEnv(path))
		assert.Equal(t, "value", os.Getenv("HOUSE_PRICER_DOTENV_CHECK"))
	})
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "DATASET_PATH", "TARGET_COLUMN", "MODEL_PATH", "SCALER_PATH",
		"DATA_PATH", "PORT", "TEST_SIZE", "SEED", "BOOST_ROUNDS", "MAX_DEPTH",
		"LEARNING_RATE", "LAMBDA", "GAMMA", "MIN_CHILD_WEIGHT", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT",
	}

	for _, env := range envVars {
		t.Setenv(env, "")
	}
}
