package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics captures orchestrator cycles and per-agent failures.
type Metrics struct {
	RegisteredAgents prometheus.Gauge
	CycleDuration    prometheus.Histogram
	SkippedTicks     *prometheus.CounterVec
	AgentFailures    *prometheus.CounterVec
	Executions       *prometheus.CounterVec
}

// New registers the orchestrator metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegisteredAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hayat_orchestrator_registered_agents",
			Help: "Number of registered agents",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hayat_orchestrator_monitor_cycle_duration_seconds",
			Help:    "Time to dispatch one monitor cycle to every idle agent",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SkippedTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_orchestrator_skipped_ticks_total",
			Help: "Monitor ticks skipped because the agent was still busy",
		}, []string{"agent_id"}),
		AgentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_orchestrator_agent_failures_total",
			Help: "Agent calls that failed or panicked, by operation",
		}, []string{"agent_id", "operation"}),
		Executions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_orchestrator_executions_total",
			Help: "Routed action executions by agent and outcome",
		}, []string{"agent_id", "outcome"}), // outcome: "success", "failure", "not_found"
	}
}

func (m *Metrics) SetRegistered(n int) {
	if m == nil {
		return
	}
	m.RegisteredAgents.Set(float64(n))
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) IncSkipped(agentID string) {
	if m == nil {
		return
	}
	m.SkippedTicks.WithLabelValues(agentID).Inc()
}

func (m *Metrics) IncFailure(agentID, operation string) {
	if m == nil {
		return
	}
	m.AgentFailures.WithLabelValues(agentID, operation).Inc()
}

func (m *Metrics) IncExecution(agentID, outcome string) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(agentID, outcome).Inc()
}
