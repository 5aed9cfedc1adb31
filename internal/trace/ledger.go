package trace

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"hayat/internal/trace/metrics"
	dErrors "hayat/pkg/domain-errors"
	"hayat/pkg/requestcontext"
)

// Store durably mirrors ledger appends. A Store failure fails the append.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListAll(ctx context.Context) ([]Entry, error)
}

// Sink receives entries asynchronously after they are committed.
type Sink interface {
	Name() string
	Publish(ctx context.Context, entry Entry) error
	Close() error
}

type actionKey struct {
	agentID  string
	actionID string
}

// Ledger is the in-process, append-only trace log. Appends are serialized;
// reads take a shared lock and return copies.
type Ledger struct {
	writeMu sync.Mutex

	mu            sync.RWMutex
	entries       []Entry
	byAgentAction map[actionKey]int
	byAgent       map[string][]int
	byUser        map[string][]int

	store      Store
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithStore mirrors appends to a durable store with fail-closed semantics.
func WithStore(store Store) Option {
	return func(l *Ledger) {
		l.store = store
	}
}

// WithDispatcher forwards committed entries to async sinks.
func WithDispatcher(d *Dispatcher) Option {
	return func(l *Ledger) {
		l.dispatcher = d
	}
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		byAgentAction: make(map[actionKey]int),
		byAgent:       make(map[string][]int),
		byUser:        make(map[string][]int),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append commits a new entry. The timestamp comes from the request context
// and the acting user defaults to the context user.
func (l *Ledger) Append(ctx context.Context, rec Record) (Entry, error) {
	if rec.AgentID == "" {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "trace requires agent id")
	}
	if rec.Action == "" {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "trace requires action")
	}

	var snapshot json.RawMessage
	if rec.Context != nil {
		raw, err := json.Marshal(rec.Context)
		if err != nil {
			return Entry{}, dErrors.Wrap(err, dErrors.CodeValidation, "trace context is not serializable")
		}
		snapshot = raw
	}

	userID := rec.UserID
	if userID == "" {
		userID = requestcontext.ActingUser(ctx)
	}

	entry := Entry{
		ID:        uuid.NewString(),
		AgentID:   rec.AgentID,
		ActionID:  rec.ActionID,
		Action:    rec.Action,
		Reasoning: rec.Reasoning,
		Context:   snapshot,
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.store != nil {
		start := time.Now()
		if err := l.store.Append(ctx, entry); err != nil {
			l.metrics.IncStoreFailures()
			l.logger.ErrorContext(ctx, "trace persistence failed",
				"agent_id", entry.AgentID,
				"action", entry.Action,
				"error", err,
			)
			return Entry{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "trace persistence failed")
		}
		l.metrics.ObserveStoreDuration(time.Since(start))
	}

	l.mu.Lock()
	l.indexLocked(entry)
	l.mu.Unlock()

	l.metrics.IncAppended(entry.AgentID)
	if l.dispatcher != nil {
		l.dispatcher.Enqueue(entry.clone())
	}
	return entry.clone(), nil
}

func (l *Ledger) indexLocked(entry Entry) {
	idx := len(l.entries)
	l.entries = append(l.entries, entry)
	if entry.ActionID != "" {
		key := actionKey{agentID: entry.AgentID, actionID: entry.ActionID}
		if _, exists := l.byAgentAction[key]; !exists {
			l.byAgentAction[key] = idx
		}
	}
	l.byAgent[entry.AgentID] = append(l.byAgent[entry.AgentID], idx)
	l.byUser[entry.UserID] = append(l.byUser[entry.UserID], idx)
}

// Restore loads previously persisted entries into an empty ledger.
func (l *Ledger) Restore(ctx context.Context) (int, error) {
	if l.store == nil {
		return 0, nil
	}
	entries, err := l.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore trace ledger: %w", err)
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) > 0 {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "restore requires an empty ledger")
	}
	for _, e := range entries {
		l.indexLocked(e)
	}
	return len(entries), nil
}

// Lookup returns the first entry recorded for an agent's action.
func (l *Ledger) Lookup(agentID, actionID string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.byAgentAction[actionKey{agentID: agentID, actionID: actionID}]
	if !ok {
		return Entry{}, false
	}
	return l.entries[idx].clone(), true
}

// ByUser returns a user's entries, most recent first.
func (l *Ledger) ByUser(userID string) []Entry {
	l.mu.RLock()
	out := l.collectLocked(l.byUser[userID])
	l.mu.RUnlock()

	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})
	return out
}

// ByAgent returns an agent's entries in append order.
func (l *Ledger) ByAgent(agentID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collectLocked(l.byAgent[agentID])
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Ledger) collectLocked(idxs []int) []Entry {
	out := make([]Entry, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, l.entries[idx].clone())
	}
	return out
}
