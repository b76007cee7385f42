// Package metrics implements the ChatMetric recorder: Prometheus counters
// and histograms for chat turns, tool invocations, and provider retries,
// trimmed down from the teacher's pkg/observability metrics surface. The
// chat orchestrator records turns and the tool executor records tool
// calls; nothing in this module calls RecordProviderRetry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds every metric this runtime emits. A nil *Recorder is safe
// to call methods on (all become no-ops), so callers that didn't wire
// metrics never need a nil check of their own.
type Recorder struct {
	registry *prometheus.Registry

	chatCalls      *prometheus.CounterVec
	chatDuration   *prometheus.HistogramVec
	chatTokensUsed *prometheus.CounterVec

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec

	providerRetries *prometheus.CounterVec
}

// New builds a Recorder registered under namespace (e.g. "agentrt").
func New(namespace string) *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.chatCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Total number of chat turns, by agent/provider/model/success.",
	}, []string{"agent_name", "provider", "model", "success"})

	r.chatDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "turn_duration_seconds",
		Help:      "Chat turn duration in seconds, start to final text.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"agent_name", "provider", "model"})

	r.chatTokensUsed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "tokens_total",
		Help:      "Total tokens reported by the provider across all iterations of a turn.",
	}, []string{"agent_name", "provider", "model"})

	r.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "calls_total",
		Help:      "Total number of tool invocations, by tool name and outcome.",
	}, []string{"tool_name", "success"})

	r.toolDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "call_duration_seconds",
		Help:      "Tool invocation duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
	}, []string{"tool_name"})

	r.providerRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "retries_total",
		Help:      "Total number of retry attempts issued against a provider.",
	}, []string{"provider"})

	r.registry.MustRegister(r.chatCalls, r.chatDuration, r.chatTokensUsed, r.toolCalls, r.toolDuration, r.providerRetries)
	return r
}

// RecordChat satisfies pkg/chat.MetricsRecorder.
func (r *Recorder) RecordChat(agentName, provider, model string, success bool, latency time.Duration, tokensUsed int) {
	if r == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	r.chatCalls.WithLabelValues(agentName, provider, model, label).Inc()
	r.chatDuration.WithLabelValues(agentName, provider, model).Observe(latency.Seconds())
	if tokensUsed > 0 {
		r.chatTokensUsed.WithLabelValues(agentName, provider, model).Add(float64(tokensUsed))
	}
}

// RecordToolCall records one tool.Result's outcome and duration.
func (r *Recorder) RecordToolCall(toolName string, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	r.toolCalls.WithLabelValues(toolName, label).Inc()
	r.toolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordProviderRetry records one retry attempt against provider.
func (r *Recorder) RecordProviderRetry(provider string) {
	if r == nil {
		return
	}
	r.providerRetries.WithLabelValues(provider).Inc()
}

// Handler exposes the registry over HTTP in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry, for tests or a
// custom exposition path.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
