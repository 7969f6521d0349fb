package common

// Environment variable keys
const (
	EnvConfigFile   = "CONFIG_FILE"
	EnvDatasetPath  = "DATASET_PATH"
	EnvTargetColumn = "TARGET_COLUMN"
	EnvModelPath    = "MODEL_PATH"
	EnvScalerPath   = "SCALER_PATH"
	EnvDataPath     = "DATA_PATH"
	EnvPort         = "PORT"
	EnvTestSize     = "TEST_SIZE"
	EnvSeed         = "SEED"
	EnvBoostRounds  = "BOOST_ROUNDS"
	EnvMaxDepth     = "MAX_DEPTH"
	EnvLearningRate = "LEARNING_RATE"
	EnvLambda       = "LAMBDA"
	EnvGamma        = "GAMMA"
	EnvMinChild     = "MIN_CHILD_WEIGHT"
	EnvReadTimeout  = "READ_TIMEOUT"
	EnvWriteTimeout = "WRITE_TIMEOUT"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
	EnvServerURL    = "PRICER_URL"
)

// Configuration defaults
const (
	DefaultDatasetPath  = "Housing.csv"
	DefaultTargetColumn = "price"
	DefaultModelPath    = "models/model.json"
	DefaultScalerPath   = "models/scaler.json"
	DefaultDataPath     = "data"
	DefaultPort         = 5000
	DefaultTestSize     = 0.2
	DefaultSeed         = 42
	DefaultBoostRounds  = 100
	DefaultMaxDepth     = 6
	DefaultLearningRate = 0.3
	DefaultLambda       = 1.0
	DefaultGamma        = 0.0
	DefaultMinChild     = 1.0
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultServerURL    = "http://localhost:5000"
)

// Validation constants
const (
	MinPort         = 1024
	MaxPort         = 65535
	MinTestSize     = 0.05
	MaxTestSize     = 0.5
	MaxBoostRounds  = 5000
	MaxDepthLimit   = 16
	MaxLearningRate = 1.0
	MaxLambda       = 100.0
)

// Common error messages
const (
	ErrMsgDatasetRequired = "dataset path is required"
	ErrMsgTargetRequired  = "target column is required"
	ErrMsgModelRequired   = "model and scaler paths are required"
)
