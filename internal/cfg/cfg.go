package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"house-pricer/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	DatasetPath  string
	TargetColumn string
	ModelPath    string
	ScalerPath   string
	DataPath     string
	Port         int
	TestSize     float64
	Seed         int64
	Boost        BoostConfig
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string
	LogFormat    string
}

// BoostConfig holds the gradient boosting hyperparameters.
type BoostConfig struct {
	Rounds         int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64
	Gamma          float64
	MinChildWeight float64
}

// boostFile is the YAML form of BoostConfig. Keys where 0 is a valid value
// are pointers so an explicit 0 is not mistaken for an unset key.
type boostFile struct {
	Rounds         int      `yaml:"rounds"`
	MaxDepth       int      `yaml:"maxDepth"`
	LearningRate   float64  `yaml:"learningRate"`
	Lambda         *float64 `yaml:"lambda"`
	Gamma          *float64 `yaml:"gamma"`
	MinChildWeight *float64 `yaml:"minChildWeight"`
}

type ConfigFile struct {
	Dataset struct {
		Path         string  `yaml:"path"`
		TargetColumn string  `yaml:"targetColumn"`
		TestSize     float64 `yaml:"testSize"`
		Seed         *int64  `yaml:"seed"`
	} `yaml:"dataset"`

	Model struct {
		ModelPath  string    `yaml:"modelPath"`
		ScalerPath string    `yaml:"scalerPath"`
		Boost      boostFile `yaml:"boost"`
	} `yaml:"model"`

	Server struct {
		Port         int    `yaml:"port"`
		ReadTimeout  string `yaml:"readTimeout"`
		WriteTimeout string `yaml:"writeTimeout"`
	} `yaml:"server"`

	System struct {
		DataPath  string `yaml:"dataPath"`
		LogLevel  string `yaml:"logLevel"`
		LogFormat string `yaml:"logFormat"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

// loadDotEnv populates the environment from a dotenv file when one exists.
// Variables already present in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Parse durations
	readTimeout, err := time.ParseDuration(config.Server.ReadTimeout)
	if err != nil {
		readTimeout = 10 * time.Second
	}

	writeTimeout, err := time.ParseDuration(config.Server.WriteTimeout)
	if err != nil {
		writeTimeout = 10 * time.Second
	}

	settings := Settings{
		DatasetPath:  getEnvOrDefault(common.EnvDatasetPath, orString(config.Dataset.Path, common.DefaultDatasetPath)),
		TargetColumn: getEnvOrDefault(common.EnvTargetColumn, orString(config.Dataset.TargetColumn, common.DefaultTargetColumn)),
		ModelPath:    getEnvOrDefault(common.EnvModelPath, orString(config.Model.ModelPath, common.DefaultModelPath)),
		ScalerPath:   getEnvOrDefault(common.EnvScalerPath, orString(config.Model.ScalerPath, common.DefaultScalerPath)),
		DataPath:     getEnvOrDefault(common.EnvDataPath, orString(config.System.DataPath, common.DefaultDataPath)),
		Port:         getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		TestSize:     getFloatFromEnvOrConfig(common.EnvTestSize, config.Dataset.TestSize, common.DefaultTestSize),
		Seed:         getInt64FromEnvOrOptional(common.EnvSeed, config.Dataset.Seed, common.DefaultSeed),
		Boost: BoostConfig{
			Rounds:         getIntFromEnvOrConfig(common.EnvBoostRounds, config.Model.Boost.Rounds, common.DefaultBoostRounds),
			MaxDepth:       getIntFromEnvOrConfig(common.EnvMaxDepth, config.Model.Boost.MaxDepth, common.DefaultMaxDepth),
			LearningRate:   getFloatFromEnvOrConfig(common.EnvLearningRate, config.Model.Boost.LearningRate, common.DefaultLearningRate),
			Lambda:         getFloatFromEnvOrOptional(common.EnvLambda, config.Model.Boost.Lambda, common.DefaultLambda),
			Gamma:          getFloatFromEnvOrOptional(common.EnvGamma, config.Model.Boost.Gamma, common.DefaultGamma),
			MinChildWeight: getFloatFromEnvOrOptional(common.EnvMinChild, config.Model.Boost.MinChildWeight, common.DefaultMinChild),
		},
		ReadTimeout:  getDurationOrDefault(common.EnvReadTimeout, readTimeout),
		WriteTimeout: getDurationOrDefault(common.EnvWriteTimeout, writeTimeout),
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, orString(config.System.LogLevel, common.DefaultLogLevel)),
		LogFormat:    getEnvOrDefault(common.EnvLogFormat, orString(config.System.LogFormat, common.DefaultLogFormat)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DatasetPath:  getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		TargetColumn: getEnvOrDefault(common.EnvTargetColumn, common.DefaultTargetColumn),
		ModelPath:    getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ScalerPath:   getEnvOrDefault(common.EnvScalerPath, common.DefaultScalerPath),
		DataPath:     getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		Port:         getIntOrDefault(common.EnvPort, common.DefaultPort),
		TestSize:     getFloatOrDefault(common.EnvTestSize, common.DefaultTestSize),
		Seed:         int64(getIntOrDefault(common.EnvSeed, common.DefaultSeed)),
		Boost: BoostConfig{
			Rounds:         getIntOrDefault(common.EnvBoostRounds, common.DefaultBoostRounds),
			MaxDepth:       getIntOrDefault(common.EnvMaxDepth, common.DefaultMaxDepth),
			LearningRate:   getFloatOrDefault(common.EnvLearningRate, common.DefaultLearningRate),
			Lambda:         getFloatOrDefault(common.EnvLambda, common.DefaultLambda),
			Gamma:          getFloatOrDefault(common.EnvGamma, common.DefaultGamma),
			MinChildWeight: getFloatOrDefault(common.EnvMinChild, common.DefaultMinChild),
		},
		ReadTimeout:  getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout: getDurationOrDefault(common.EnvWriteTimeout, 10*time.Second),
		LogLevel:     getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:    getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Addr returns the listen address for the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrOptional(key string, configValue *float64, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

func getInt64FromEnvOrOptional(key string, configValue *int64, defaultValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.DatasetPath == "" {
		return errors.New(common.ErrMsgDatasetRequired)
	}
	if settings.TargetColumn == "" {
		return errors.New(common.ErrMsgTargetRequired)
	}
	if settings.ModelPath == "" || settings.ScalerPath == "" {
		return errors.New(common.ErrMsgModelRequired)
	}
	if settings.ModelPath == settings.ScalerPath {
		return fmt.Errorf("model and scaler paths must differ, both are %s", settings.ModelPath)
	}
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}

	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	// Validate time durations
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}

	// Validate split and boosting parameters
	if settings.TestSize < common.MinTestSize || settings.TestSize > common.MaxTestSize {
		return fmt.Errorf("test size must be between %.2f and %.2f, got %f", common.MinTestSize, common.MaxTestSize, settings.TestSize)
	}
	if settings.Boost.Rounds <= 0 || settings.Boost.Rounds > common.MaxBoostRounds {
		return fmt.Errorf("boost rounds must be between 1 and %d, got %d", common.MaxBoostRounds, settings.Boost.Rounds)
	}
	if settings.Boost.MaxDepth <= 0 || settings.Boost.MaxDepth > common.MaxDepthLimit {
		return fmt.Errorf("max depth must be between 1 and %d, got %d", common.MaxDepthLimit, settings.Boost.MaxDepth)
	}
	if settings.Boost.LearningRate <= 0 || settings.Boost.LearningRate > common.MaxLearningRate {
		return fmt.Errorf("learning rate must be in (0, %.1f], got %f", common.MaxLearningRate, settings.Boost.LearningRate)
	}
	if settings.Boost.Lambda < 0 || settings.Boost.Lambda > common.MaxLambda {
		return fmt.Errorf("lambda must be between 0 and %.0f, got %f", common.MaxLambda, settings.Boost.Lambda)
	}
	if settings.Boost.Gamma < 0 {
		return fmt.Errorf("gamma must be non-negative, got %f", settings.Boost.Gamma)
	}
	if settings.Boost.MinChildWeight < 0 {
		return fmt.Errorf("min child weight must be non-negative, got %f", settings.Boost.MinChildWeight)
	}

	switch settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json, got %q", settings.LogFormat)
	}

	return nil
}
