package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors the loop and executor record
// against, grounded on the teacher's internal/observability/metrics.go
// counters/histograms.
type Metrics struct {
	Iterations       prometheus.Counter
	Retries          *prometheus.CounterVec
	ToolCalls        *prometheus.CounterVec
	ToolDuration     *prometheus.HistogramVec
	RunsCompleted    prometheus.Counter
	RunsFailed       *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

// NewMetrics registers all collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Iterations: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_loop_iterations_total",
			Help: "Total AgentLoop iterations executed.",
		}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_loop_retries_total",
			Help: "Total retries taken, labeled by reason.",
		}, []string{"reason"}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_tool_calls_total",
			Help: "Total tool invocations, labeled by tool name and outcome.",
		}, []string{"tool", "success"}),
		ToolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcore_tool_duration_seconds",
			Help:    "Tool execution latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_runs_completed_total",
			Help: "Total loop runs that reached a done event.",
		}),
		RunsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_runs_failed_total",
			Help: "Total loop runs that terminated with an error event, labeled by error code.",
		}, []string{"error_code"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentcore_run_duration_seconds",
			Help:    "Wall-clock duration of a full loop run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveToolCall records one tool invocation's outcome and latency.
func (m *Metrics) ObserveToolCall(tool string, success bool, d time.Duration) {
	outcome := "true"
	if !success {
		outcome = "false"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}
