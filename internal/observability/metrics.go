package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversion metrics
	activeConversions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "narrator_active_conversions",
		Help: "Number of conversions currently running",
	})

	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrator_conversions_total",
		Help: "Total number of conversions by voice and terminal status",
	}, []string{"voice", "status"})

	conversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "narrator_conversion_duration_seconds",
		Help:    "Wall time of a conversion from submission to terminal event",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Synthesis metrics
	synthesisLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "narrator_synthesis_latency_seconds",
		Help:    "Backend synthesis latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 90.0},
	}, []string{"voice"})

	synthesisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrator_synthesis_requests_total",
		Help: "Total number of backend synthesis calls",
	}, []string{"voice", "status"})

	// Document metrics
	extractedCharacters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narrator_extracted_characters_total",
		Help: "Characters of text extracted from documents",
	})

	audioBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "narrator_audio_bytes_written_total",
		Help: "Audio bytes written to output files",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrator_synthesis_cache_lookups_total",
		Help: "Synthesis cache lookups by result",
	}, []string{"result"}) // hit, miss, error

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrator_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "narrator_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "narrator_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// Metrics tracks metrics for a single conversion
type Metrics struct {
	voice          string
	startTime      time.Time
	synthesisStart time.Time
	mu             sync.Mutex
}

// NewConversionMetrics creates a new metrics tracker for a conversion
func NewConversionMetrics(voice string) *Metrics {
	return &Metrics{
		voice:     voice,
		startTime: time.Now(),
	}
}

// RecordConversionStart records the start of a conversion
func (m *Metrics) RecordConversionStart() {
	activeConversions.Inc()
}

// RecordConversionEnd records the terminal status of a conversion
func (m *Metrics) RecordConversionEnd(success bool) {
	activeConversions.Dec()
	conversionDuration.Observe(time.Since(m.startTime).Seconds())
	conversionsTotal.WithLabelValues(m.voice, statusLabel(success)).Inc()
}

// RecordSynthesisStart records the start of the backend call
func (m *Metrics) RecordSynthesisStart() {
	m.mu.Lock()
	m.synthesisStart = time.Now()
	m.mu.Unlock()
}

// RecordSynthesisEnd records the end of the backend call
func (m *Metrics) RecordSynthesisEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.synthesisStart.IsZero() {
		synthesisLatency.WithLabelValues(m.voice).Observe(time.Since(m.synthesisStart).Seconds())
	}
	synthesisRequests.WithLabelValues(m.voice, statusLabel(success)).Inc()
}

// RecordAudioBytes records audio bytes written to disk
func (m *Metrics) RecordAudioBytes(n int) {
	audioBytesWritten.Add(float64(n))
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordExtractedCharacters records the size of extracted document text
func RecordExtractedCharacters(n int) {
	extractedCharacters.Add(float64(n))
}

// RecordCacheLookup records a synthesis cache lookup result
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordError records an error outside of a conversion
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
