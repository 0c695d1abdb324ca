package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the chat service.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	RequestDurationMs  *prometheus.HistogramVec
	ToolCallTotal      *prometheus.CounterVec
	ToolCallDurationMs *prometheus.HistogramVec
	RateLimitHitTotal  prometheus.Counter
	UpstreamRetryTotal *prometheus.CounterVec
	TokensTotal        *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "billchat_request_total",
			Help: "Total number of chat requests processed.",
		}, []string{"status"}),

		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billchat_request_duration_ms",
			Help:    "Chat request duration in milliseconds (including model latency).",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"status"}),

		ToolCallTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "billchat_tool_call_total",
			Help: "Total tool invocations requested by the model.",
		}, []string{"tool", "outcome"}),

		ToolCallDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billchat_tool_call_duration_ms",
			Help:    "Tool execution duration in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}, []string{"tool"}),

		RateLimitHitTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "billchat_rate_limit_hit_total",
			Help: "Total requests rejected by the rate limiter.",
		}),

		UpstreamRetryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "billchat_upstream_retry_total",
			Help: "Total retries against backing stores.",
		}, []string{"store"}),

		TokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "billchat_tokens_total",
			Help: "Total model tokens processed.",
		}, []string{"direction"}),
	}
}

// RecordRequest records metrics for a completed chat request.
func (m *Metrics) RecordRequest(status string, durationMs float64) {
	m.RequestTotal.WithLabelValues(status).Inc()
	m.RequestDurationMs.WithLabelValues(status).Observe(durationMs)
}

// RecordToolCall records one tool invocation.
func (m *Metrics) RecordToolCall(tool, outcome string, durationMs float64) {
	m.ToolCallTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolCallDurationMs.WithLabelValues(tool).Observe(durationMs)
}

// RecordRateLimitHit records a 429 rejection.
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitTotal.Inc()
}

// RecordRetry records one retry attempt against a backing store.
func (m *Metrics) RecordRetry(store string) {
	m.UpstreamRetryTotal.WithLabelValues(store).Inc()
}

// RecordTokens records prompt/completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	if prompt > 0 {
		m.TokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		m.TokensTotal.WithLabelValues("completion").Add(float64(completion))
	}
}
