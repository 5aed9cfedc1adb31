package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trace ledger and its sinks.
type Metrics struct {
	Appended       *prometheus.CounterVec
	StoreFailures  prometheus.Counter
	StoreDuration  prometheus.Histogram
	SinkDeliveries *prometheus.CounterVec
	SinkDropped    prometheus.Counter
	SinkCircuit    *prometheus.GaugeVec
}

// New registers the trace metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_trace_entries_appended_total",
			Help: "Total trace entries appended by agent",
		}, []string{"agent_id"}),
		StoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hayat_trace_store_failures_total",
			Help: "Total trace appends rejected because the durable store failed",
		}),
		StoreDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hayat_trace_store_duration_seconds",
			Help:    "Duration of durable trace writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		SinkDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hayat_trace_sink_deliveries_total",
			Help: "Trace entries delivered to async sinks by sink and result",
		}, []string{"sink", "result"}), // result: "ok", "error", "circuit_open"
		SinkDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "hayat_trace_sink_dropped_total",
			Help: "Trace entries dropped because the sink buffer was full",
		}),
		SinkCircuit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hayat_trace_sink_circuit_state",
			Help: "Sink circuit breaker state (0=closed, 1=open)",
		}, []string{"sink"}),
	}
}

// IncAppended records an appended entry.
func (m *Metrics) IncAppended(agentID string) {
	if m != nil {
		m.Appended.WithLabelValues(agentID).Inc()
	}
}

// IncStoreFailures records a rejected durable write.
func (m *Metrics) IncStoreFailures() {
	if m != nil {
		m.StoreFailures.Inc()
	}
}

// ObserveStoreDuration records a durable write duration.
func (m *Metrics) ObserveStoreDuration(d time.Duration) {
	if m != nil {
		m.StoreDuration.Observe(d.Seconds())
	}
}

// IncSinkDelivery records a delivery attempt outcome.
func (m *Metrics) IncSinkDelivery(sink, result string) {
	if m != nil {
		m.SinkDeliveries.WithLabelValues(sink, result).Inc()
	}
}

// IncSinkDropped records an entry dropped at enqueue.
func (m *Metrics) IncSinkDropped() {
	if m != nil {
		m.SinkDropped.Inc()
	}
}

// SetSinkCircuit records a sink's breaker state.
func (m *Metrics) SetSinkCircuit(sink string, open bool) {
	if m == nil {
		return
	}
	if open {
		m.SinkCircuit.WithLabelValues(sink).Set(1)
	} else {
		m.SinkCircuit.WithLabelValues(sink).Set(0)
	}
}
