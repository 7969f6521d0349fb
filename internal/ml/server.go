package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"house-pricer/internal/features"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const (
	// MaxBodyBytes caps a prediction request body.
	MaxBodyBytes = 1 << 20
	// RequestIDHeader carries the per request correlation id.
	RequestIDHeader = "X-Request-ID"

	predictTimeout = 5 * time.Second
)

// ServerConfig holds the optional parts of a ModelServer.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
	// Manager backs /model/versions when set.
	Manager *ModelManager
	Metrics MetricsInterface
}

// ModelServer provides HTTP API for model predictions
type ModelServer struct {
	predictor PricingInterface
	manager   *ModelManager
	metrics   MetricsInterface
	handler   http.Handler
	server    *http.Server
}

// PredictionResponse is the body of a successful /predict call.
type PredictionResponse struct {
	PredictedPrice       float64 `json:"predicted_price"`
	ConfidenceInterval   string  `json:"confidence_interval"`
	ConfidencePercentage string  `json:"confidence_percentage"`
	IncomeClass          string  `json:"income_class"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status          string  `json:"status"`
	ModelVersion    string  `json:"model_version"`
	Features        int     `json:"features"`
	ModelAgeSeconds float64 `json:"model_age_seconds"`
}

// ModelInfo is the body of /model/info.
type ModelInfo struct {
	Version     string              `json:"version"`
	TrainedAt   time.Time           `json:"trained_at"`
	Fingerprint string              `json:"fingerprint"`
	Source      string              `json:"source"`
	Columns     []string            `json:"columns"`
	Categorical map[string][]string `json:"categorical"`
	TrainR2     float64             `json:"train_r2"`
	TestR2      float64             `json:"test_r2"`
	ResidualStd float64             `json:"residual_std"`
	TrainRows   int                 `json:"train_rows"`
	TestRows    int                 `json:"test_rows"`
	Params      BoostParams         `json:"params"`
	Importance  []FeatureStats      `json:"importance"`
}

// NewModelServer creates a new HTTP server for model serving
func NewModelServer(predictor PricingInterface, cfg ServerConfig) *ModelServer {
	ms := &ModelServer{
		predictor: predictor,
		manager:   cfg.Manager,
		metrics:   cfg.Metrics,
	}

	// Preflight header names are matched lowercase, as browsers send them.
	predictCORS := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})

	mux := http.NewServeMux()
	mux.Handle("/predict", predictCORS.Handler(http.HandlerFunc(ms.handlePredict)))
	mux.HandleFunc("/health", ms.handleHealth)
	mux.HandleFunc("/model/info", ms.handleModelInfo)
	if ms.manager != nil {
		mux.HandleFunc("/model/versions", ms.handleVersions)
	}
	if cfg.MetricsHandler != nil {
		mux.Handle("/metrics", cfg.MetricsHandler)
	}
	ms.handler = ms.withRequestID(mux)

	readTimeout, writeTimeout := cfg.ReadTimeout, cfg.WriteTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	ms.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      ms.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return ms
}

// Handler exposes the routed handler, mainly for tests.
func (ms *ModelServer) Handler() http.Handler {
	return ms.handler
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

type requestIDKey struct{}

func (ms *ModelServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		ms.reject(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	raw, err := decodeObject(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ms.reject(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		ms.reject(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	rec, err := ms.predictor.Schema().Decode(raw)
	if err != nil {
		ms.reject(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), predictTimeout)
	defer cancel()

	est, err := ms.predictor.Estimate(ctx, rec)
	switch {
	case errors.Is(err, ErrNonPositiveEstimate):
		log.Warn().
			Str("request_id", requestID(r)).
			Float64("predicted_price", est.Price).
			Msg("estimate has no meaningful confidence percentage")
		ms.reject(w, r, http.StatusUnprocessableEntity,
			fmt.Sprintf("predicted price %.2f is not positive", est.Price))
		return
	case err != nil:
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("prediction failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     "prediction failed",
			RequestID: requestID(r),
		})
		return
	}

	resp := PredictionResponse{
		PredictedPrice:       est.Price,
		ConfidenceInterval:   FormatHalfWidth(est.Interval.HalfWidth),
		ConfidencePercentage: FormatPercentage(est.Interval.Percentage),
		IncomeClass:          est.Bracket.String(),
	}

	log.Info().
		Str("request_id", requestID(r)).
		Str("confidence_percentage", resp.ConfidencePercentage).
		Float64("predicted_price", resp.PredictedPrice).
		Str("income_class", resp.IncomeClass).
		Msg("prediction served")

	writeJSON(w, http.StatusOK, resp)
}

// decodeObject reads exactly one JSON object, keeping numbers as json.Number.
func decodeObject(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("body must contain a single JSON object")
	}
	return raw, nil
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		ms.reject(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report := ms.predictor.Report()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		ModelVersion:    report.Version,
		Features:        ms.predictor.Schema().Len(),
		ModelAgeSeconds: time.Since(report.TrainedAt).Seconds(),
	})
}

func (ms *ModelServer) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		ms.reject(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	schema := ms.predictor.Schema()
	report := ms.predictor.Report()

	source := "fit"
	if ms.predictor.FromCache() {
		source = "cache"
	}

	writeJSON(w, http.StatusOK, ModelInfo{
		Version:     report.Version,
		TrainedAt:   report.TrainedAt,
		Fingerprint: report.Fingerprint,
		Source:      source,
		Columns:     schema.Columns(),
		Categorical: categorical(schema),
		TrainR2:     report.TrainR2,
		TestR2:      report.TestR2,
		ResidualStd: report.ResidualStd,
		TrainRows:   report.TrainRows,
		TestRows:    report.TestRows,
		Params:      report.Params,
		Importance:  ms.predictor.Importance(),
	})
}

func categorical(schema *features.Schema) map[string][]string {
	out := make(map[string][]string)
	for _, source := range schema.Sources() {
		levels, _ := schema.Categorical(source)
		out[source] = levels
	}
	return out
}

func (ms *ModelServer) handleVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		ms.reject(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	versions, err := ms.manager.ListVersions()
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r)).Msg("list model versions failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     "registry unavailable",
			RequestID: requestID(r),
		})
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (ms *ModelServer) reject(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if ms.metrics != nil {
		ms.metrics.RejectionsInc()
	}
	log.Debug().
		Str("request_id", requestID(r)).
		Int("status", status).
		Str("reason", msg).
		Msg("request rejected")
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: requestID(r)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
