// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the sampler.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Call outcomes recorded in SamplerCallsTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
	OutcomeAbandoned = "abandoned"
	OutcomeCancelled = "cancelled"
)

var (
	// RequestsTotal counts HTTP requests served by "sampler serve".
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lorasampler_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lorasampler_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// SamplerCallsTotal counts Generate calls by final outcome.
	SamplerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lorasampler_calls_total",
			Help: "Generate calls by outcome",
		},
		[]string{"adapter", "outcome"},
	)

	// SamplerCallDuration records the wall time of a Generate call,
	// including backoff sleeps.
	SamplerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lorasampler_call_duration_seconds",
			Help:    "Generate call duration including retries",
			Buckets: LLMBuckets,
		},
		[]string{"adapter"},
	)

	// ProviderAttemptsTotal counts individual requests sent to the backend.
	ProviderAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lorasampler_provider_attempts_total",
			Help: "Backend requests",
		},
		[]string{"adapter", "status"},
	)

	// ProviderFailuresTotal counts failed backend requests by error kind.
	ProviderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lorasampler_provider_failures_total",
			Help: "Failed backend requests by kind",
		},
		[]string{"adapter", "kind"},
	)

	// ProviderLatency records the latency of a single backend request.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lorasampler_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"adapter"},
	)

	// BackoffSecondsTotal accumulates time spent sleeping between attempts.
	BackoffSecondsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lorasampler_backoff_seconds_total",
			Help: "Seconds spent in retry backoff",
		},
		[]string{"adapter"},
	)

	// ProviderTokensTotal counts tokens processed by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lorasampler_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"adapter", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SamplerCallsTotal,
		SamplerCallDuration,
		ProviderAttemptsTotal,
		ProviderFailuresTotal,
		ProviderLatency,
		BackoffSecondsTotal,
		ProviderTokensTotal,
	)
}
