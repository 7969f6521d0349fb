package metrics

// MetricsWrapper adapts Metrics to the method set the predictor and model
// server record through, keeping prometheus types out of those packages.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) FailuresInc() {
	w.m.PredictionFailure.Inc()
}

func (w *MetricsWrapper) RejectionsInc() {
	w.m.Rejections.Inc()
}

func (w *MetricsWrapper) LatencyObserve(v float64) {
	w.m.Latency.Observe(v)
}

func (w *MetricsWrapper) PredictedPriceObserve(v float64) {
	w.m.PredictedPrice.Observe(v)
}

func (w *MetricsWrapper) ConfidenceObserve(v float64) {
	w.m.Confidence.Observe(v)
}

func (w *MetricsWrapper) IncomeClassInc(class string) {
	w.m.IncomeClasses.WithLabelValues(class).Inc()
}

func (w *MetricsWrapper) ModelReportSet(trainR2, testR2, residualStd float64) {
	w.m.TrainR2.Set(trainR2)
	w.m.TestR2.Set(testR2)
	w.m.ResidualStd.Set(residualStd)
}

func (w *MetricsWrapper) ModelAgeSet(v float64) {
	w.m.ModelAge.Set(v)
}
