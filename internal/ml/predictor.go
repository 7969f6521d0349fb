package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"house-pricer/internal/dataset"
	"house-pricer/internal/features"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// versionLayout sorts lexically in training order.
const versionLayout = "20060102-150405.000000"

// TrainingReport describes the fit that produced the active model. R² values
// are diagnostics only.
type TrainingReport struct {
	Version     string      `json:"version"`
	Fingerprint string      `json:"fingerprint"`
	TrainedAt   time.Time   `json:"trained_at"`
	TrainR2     float64     `json:"train_r2"`
	TestR2      float64     `json:"test_r2"`
	ResidualStd float64     `json:"residual_std"`
	TrainRows   int         `json:"train_rows"`
	TestRows    int         `json:"test_rows"`
	Features    int         `json:"features"`
	Params      BoostParams `json:"params"`
}

// FitOptions controls FitOrLoad.
type FitOptions struct {
	ModelPath  string
	ScalerPath string
	TestSize   float64
	Seed       int64
	Boost      BoostParams
	// Force refits even when cached artifacts exist.
	Force   bool
	Metrics MetricsInterface
}

// Estimate is the outcome of pricing one record.
type Estimate struct {
	Price    float64
	Interval Interval
	Bracket  IncomeBracket
}

// Predictor is the trained state shared by every request. It is built once
// and never mutated afterwards.
type Predictor struct {
	schema      *features.Schema
	scaler      *StandardScaler
	booster     *Booster
	residualStd float64
	report      TrainingReport
	fromCache   bool
	importance  []FeatureStats
	metrics     MetricsInterface
}

// FitOrLoad returns the predictor for ds. Cached artifacts are used when both
// exist and were fit on the same schema; otherwise the model is fit on the
// training split and both artifacts are written.
func FitOrLoad(ctx context.Context, ds *dataset.Dataset, opts FitOptions) (*Predictor, error) {
	if !opts.Force {
		p, err := load(ds.Schema, opts)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, errNoArtifacts) {
			return nil, err
		}
		log.Info().Str("model_path", opts.ModelPath).Msg("no cached model, fitting")
	}
	return fit(ctx, ds, opts)
}

func load(schema *features.Schema, opts FitOptions) (*Predictor, error) {
	m, s, err := loadArtifacts(opts.ModelPath, opts.ScalerPath, schema)
	if err != nil {
		return nil, err
	}

	p := &Predictor{
		schema:      schema,
		scaler:      s.Scaler,
		booster:     m.Booster,
		residualStd: m.Report.ResidualStd,
		report:      m.Report,
		fromCache:   true,
		importance:  FeatureImportance(m.Booster, schema.Columns()),
		metrics:     opts.Metrics,
	}

	log.Info().
		Str("version", p.report.Version).
		Str("fingerprint", short(p.report.Fingerprint)).
		Float64("train_r2", p.report.TrainR2).
		Float64("test_r2", p.report.TestR2).
		Msg("loaded cached model")
	p.publishReport()
	return p, nil
}

func fit(ctx context.Context, ds *dataset.Dataset, opts FitOptions) (*Predictor, error) {
	start := time.Now()

	split, err := ds.Split(opts.TestSize, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	scaler, err := FitScaler(split.TrainX)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	trainX, err := scaler.TransformAll(split.TrainX)
	if err != nil {
		return nil, err
	}
	testX, err := scaler.TransformAll(split.TestX)
	if err != nil {
		return nil, err
	}

	booster, err := FitBooster(ctx, trainX, split.TrainY, opts.Boost)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	trainPred, err := booster.PredictAll(trainX)
	if err != nil {
		return nil, err
	}
	testPred, err := booster.PredictAll(testX)
	if err != nil {
		return nil, err
	}

	residualStd, err := ResidualStd(split.TrainY, trainPred)
	if err != nil {
		return nil, err
	}

	trainedAt := time.Now().UTC()
	report := TrainingReport{
		Version:     newVersion(trainedAt),
		Fingerprint: ds.Schema.Fingerprint(),
		TrainedAt:   trainedAt,
		TrainR2:     finite(stat.RSquaredFrom(trainPred, split.TrainY, nil)),
		TestR2:      finite(stat.RSquaredFrom(testPred, split.TestY, nil)),
		ResidualStd: residualStd,
		TrainRows:   len(split.TrainY),
		TestRows:    len(split.TestY),
		Features:    ds.Schema.Len(),
		Params:      opts.Boost,
	}

	header := ArtifactHeader{
		Format:      ArtifactFormat,
		Version:     report.Version,
		TrainedAt:   trainedAt,
		Fingerprint: report.Fingerprint,
		Columns:     ds.Schema.Columns(),
	}
	if err := saveArtifacts(opts.ModelPath, opts.ScalerPath, header, report, booster, scaler); err != nil {
		return nil, err
	}

	log.Info().
		Str("version", report.Version).
		Int("train_rows", report.TrainRows).
		Int("test_rows", report.TestRows).
		Float64("train_r2", report.TrainR2).
		Float64("test_r2", report.TestR2).
		Float64("residual_std", report.ResidualStd).
		Dur("took", time.Since(start)).
		Msg("model trained")

	p := &Predictor{
		schema:      ds.Schema,
		scaler:      scaler,
		booster:     booster,
		residualStd: residualStd,
		report:      report,
		importance:  FeatureImportance(booster, ds.Schema.Columns()),
		metrics:     opts.Metrics,
	}
	p.publishReport()
	return p, nil
}

// newVersion names a fitted model. The random suffix keeps fits within the
// same microsecond apart.
func newVersion(trainedAt time.Time) string {
	return trainedAt.UTC().Format(versionLayout) + "-" + uuid.NewString()[:8]
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (p *Predictor) publishReport() {
	if p.metrics == nil {
		return
	}
	p.metrics.ModelReportSet(p.report.TrainR2, p.report.TestR2, p.report.ResidualStd)
	p.metrics.ModelAgeSet(p.ModelAge().Seconds())
}

// Schema is the column set the predictor accepts.
func (p *Predictor) Schema() *features.Schema {
	return p.schema
}

// Report describes the active model.
func (p *Predictor) Report() TrainingReport {
	return p.report
}

// FromCache reports whether the model was loaded rather than fit.
func (p *Predictor) FromCache() bool {
	return p.fromCache
}

// Importance ranks the schema columns by split gain, highest first.
func (p *Predictor) Importance() []FeatureStats {
	return append([]FeatureStats(nil), p.importance...)
}

// ResidualStd is the training split residual standard deviation.
func (p *Predictor) ResidualStd() float64 {
	return p.residualStd
}

// ModelAge is the time since the active model was trained.
func (p *Predictor) ModelAge() time.Duration {
	return time.Since(p.report.TrainedAt)
}

// Predict scales an aligned row with the stored statistics and evaluates the
// model.
func (p *Predictor) Predict(ctx context.Context, row []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	scaled, err := p.scaler.Transform(row)
	if err != nil {
		return 0, err
	}
	return p.booster.Predict(scaled)
}

// Estimate aligns a record, predicts its price, and attaches the confidence
// band and income bracket. A non-positive price is returned together with
// ErrNonPositiveEstimate.
func (p *Predictor) Estimate(ctx context.Context, rec features.Record) (Estimate, error) {
	start := time.Now()

	price, err := p.Predict(ctx, p.schema.Align(rec))
	if err != nil {
		if p.metrics != nil {
			p.metrics.FailuresInc()
		}
		return Estimate{}, fmt.Errorf("predict: %w", err)
	}

	est := Estimate{Price: price, Bracket: Classify(price)}
	est.Interval, err = Confidence(p.residualStd, price)

	if p.metrics != nil {
		p.metrics.LatencyObserve(time.Since(start).Seconds())
		p.metrics.ModelAgeSet(p.ModelAge().Seconds())
		if err != nil {
			p.metrics.FailuresInc()
		} else {
			p.metrics.PredictionsInc()
			p.metrics.PredictedPriceObserve(price)
			p.metrics.ConfidenceObserve(est.Interval.Percentage)
			p.metrics.IncomeClassInc(est.Bracket.String())
		}
	}
	return est, err
}
