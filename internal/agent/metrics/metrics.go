package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics captures per-agent monitor and act outcomes.
type Metrics struct {
	MonitorDuration *prometheus.HistogramVec
	MonitorFailures *prometheus.CounterVec
	Acts            *prometheus.CounterVec
	Supersessions   *prometheus.CounterVec
}

// New registers the agent metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MonitorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hayat_agent_monitor_duration_seconds",
			Help:    "Duration of agent monitor refreshes",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"agent_id"}),
		MonitorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_agent_monitor_failures_total",
			Help: "Monitor refreshes that fell back to last-known data",
		}, []string{"agent_id"}),
		Acts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_agent_acts_total",
			Help: "Act invocations by agent and result",
		}, []string{"agent_id", "result"}), // result: "completed", "failed", "duplicate", "trace_failed"
		Supersessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_agent_record_supersessions_total",
			Help: "Obligation records replaced by a newer version",
		}, []string{"agent_id"}),
	}
}

func (m *Metrics) ObserveMonitor(agentID string, d time.Duration) {
	if m == nil {
		return
	}
	m.MonitorDuration.WithLabelValues(agentID).Observe(d.Seconds())
}

func (m *Metrics) IncMonitorFailure(agentID string) {
	if m == nil {
		return
	}
	m.MonitorFailures.WithLabelValues(agentID).Inc()
}

func (m *Metrics) IncAct(agentID, result string) {
	if m == nil {
		return
	}
	m.Acts.WithLabelValues(agentID, result).Inc()
}

func (m *Metrics) AddSupersessions(agentID string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Supersessions.WithLabelValues(agentID).Add(float64(n))
}
