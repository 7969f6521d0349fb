package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	predictions  int
	failures     int
	rejections   int
	latencySum   float64
	prices       []float64
	confidences  []float64
	classes      map[string]int
	trainR2      float64
	testR2       float64
	residualStd  float64
	modelAge     float64
	reportCalled int
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) FailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) RejectionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections++
}

func (m *MockMetrics) LatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) PredictedPriceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices = append(m.prices, v)
}

func (m *MockMetrics) ConfidenceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidences = append(m.confidences, v)
}

func (m *MockMetrics) IncomeClassInc(class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.classes == nil {
		m.classes = make(map[string]int)
	}
	m.classes[class]++
}

func (m *MockMetrics) ModelReportSet(trainR2, testR2, residualStd float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trainR2, m.testR2, m.residualStd = trainR2, testR2, residualStd
	m.reportCalled++
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) counts() (predictions, failures, rejections int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions, m.failures, m.rejections
}
