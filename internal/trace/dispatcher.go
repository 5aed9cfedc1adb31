package trace

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"hayat/internal/trace/metrics"
	"hayat/pkg/platform/circuit"
)

const (
	defaultBufferSize     = 1024
	defaultPublishTimeout = 5 * time.Second
)

// Dispatcher fans committed entries out to async sinks. Enqueue never blocks:
// when the buffer is full the entry is dropped and counted. Each sink sits
// behind its own circuit breaker so one unhealthy sink does not stall others.
type Dispatcher struct {
	sinks    []Sink
	breakers map[string]*circuit.Breaker
	inbox    chan Entry
	timeout  time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics

	closeOnce sync.Once
	done      chan struct{}
	started   atomic.Bool
	stopped   chan struct{}
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithBufferSize bounds the number of queued entries.
func WithBufferSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.inbox = make(chan Entry, n)
		}
	}
}

// WithPublishTimeout bounds each sink call.
func WithPublishTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDispatcherLogger sets a logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithDispatcherMetrics sets the metrics collector.
func WithDispatcherMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher for sinks. Call Run to start delivery.
func NewDispatcher(sinks []Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sinks:    sinks,
		breakers: make(map[string]*circuit.Breaker, len(sinks)),
		inbox:    make(chan Entry, defaultBufferSize),
		timeout:  defaultPublishTimeout,
		logger:   slog.Default(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, s := range sinks {
		d.breakers[s.Name()] = circuit.New("trace-sink-"+s.Name(), circuit.WithCooldown(time.Minute))
	}
	return d
}

// Enqueue queues an entry for delivery, dropping it when the buffer is full.
func (d *Dispatcher) Enqueue(entry Entry) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.inbox <- entry:
		return true
	default:
		d.metrics.IncSinkDropped()
		d.logger.Warn("trace sink buffer full, entry dropped",
			"entry_id", entry.ID,
			"agent_id", entry.AgentID,
		)
		return false
	}
}

// Run delivers entries until ctx is cancelled or Close is called, then
// drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return nil
	}
	defer close(d.stopped)
	select {
	case <-d.done:
		return nil
	default:
	}
	for {
		select {
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-d.done:
			d.drain(ctx)
			return nil
		case entry := <-d.inbox:
			d.deliver(ctx, entry)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case entry := <-d.inbox:
			d.deliver(ctx, entry)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, entry Entry) {
	for _, sink := range d.sinks {
		name := sink.Name()
		breaker := d.breakers[name]
		if !breaker.Allow() {
			d.metrics.IncSinkDelivery(name, "circuit_open")
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := sink.Publish(pubCtx, entry)
		cancel()

		if err != nil {
			_, change := breaker.RecordFailure()
			d.metrics.IncSinkDelivery(name, "error")
			if change.Opened {
				d.metrics.SetSinkCircuit(name, true)
				d.logger.WarnContext(ctx, "trace sink circuit opened", "sink", name, "error", err)
			} else {
				d.logger.DebugContext(ctx, "trace sink publish failed", "sink", name, "entry_id", entry.ID, "error", err)
			}
			continue
		}

		_, change := breaker.RecordSuccess()
		d.metrics.IncSinkDelivery(name, "ok")
		if change.Closed {
			d.metrics.SetSinkCircuit(name, false)
			d.logger.InfoContext(ctx, "trace sink circuit closed", "sink", name)
		}
	}
}

// Close stops accepting entries, waits for a running Run to drain, then
// closes the sinks.
func (d *Dispatcher) Close() error {
	var firstErr error
	d.closeOnce.Do(func() {
		close(d.done)
		if d.started.Load() {
			<-d.stopped
		}
		for _, s := range d.sinks {
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
