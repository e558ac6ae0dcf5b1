package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docpile-ai/docpile/pkg/metrics"
)

type Metrics struct {
	apiResponseTime *prometheus.HistogramVec
	apiErrorCounter *prometheus.CounterVec

	embeddingTime    *prometheus.HistogramVec
	generateTime     *prometheus.HistogramVec
	ingestCounter    *prometheus.CounterVec
	queryCounter     *prometheus.CounterVec
	matchedChunks    *prometheus.HistogramVec
	documentsByState *prometheus.GaugeVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	return &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		embeddingTime:    metrics.NewHistogramVec("embedding_time", []string{"kind"}),
		generateTime:     metrics.NewHistogramVec("answer_generate_time", nil),
		ingestCounter:    metrics.NewCounterVec("document_ingest", []string{"result"}),
		queryCounter:     metrics.NewCounterVec("query", []string{"result"}),
		matchedChunks:    metrics.NewHistogramVec("matched_chunks", nil),
		documentsByState: metrics.NewGaugeVec("documents_by_state", []string{"state"}),
	}
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

// EmbeddingTimer tracks embedding latency, kind is "query" or "document".
func (m *Metrics) EmbeddingTimer(kind string) *prometheus.Timer {
	return prometheus.NewTimer(m.embeddingTime.WithLabelValues(kind))
}

func (m *Metrics) GenerateTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.generateTime.WithLabelValues())
}

func (m *Metrics) IngestResultInc(result string) {
	m.ingestCounter.WithLabelValues(result).Inc()
}

func (m *Metrics) QueryResultInc(result string) {
	m.queryCounter.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveMatchedChunks(n int) {
	m.matchedChunks.WithLabelValues().Observe(float64(n))
}

func (m *Metrics) SetDocumentsByState(state string, n float64) {
	m.documentsByState.WithLabelValues(state).Set(n)
}
