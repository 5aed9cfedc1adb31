// Package postgres is the durable mirror of the trace ledger.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hayat/internal/trace"
	"hayat/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS trace_entries (
		id         UUID PRIMARY KEY,
		agent_id   TEXT NOT NULL,
		action_id  TEXT NOT NULL DEFAULT '',
		action     TEXT NOT NULL,
		reasoning  TEXT NOT NULL DEFAULT '',
		context    JSONB,
		timestamp  TIMESTAMPTZ NOT NULL,
		user_id    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS trace_entries_user_idx ON trace_entries (user_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS trace_entries_agent_action_idx ON trace_entries (agent_id, action_id);
`

// Store implements trace.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a trace store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the trace table and indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure trace schema: %w", err)
	}
	return nil
}

// Append inserts an entry. Entries are immutable: a duplicate id is a conflict.
func (s *Store) Append(ctx context.Context, entry trace.Entry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("trace entry id: %w", err)
	}

	var contextJSON any
	if len(entry.Context) > 0 {
		contextJSON = []byte(entry.Context)
	}

	query := `
		INSERT INTO trace_entries (id, agent_id, action_id, action, reasoning, context, timestamp, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		entry.AgentID,
		entry.ActionID,
		entry.Action,
		entry.Reasoning,
		contextJSON,
		entry.Timestamp,
		entry.UserID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("trace entry %s: %w", entry.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert trace entry: %w", err)
	}
	return nil
}

// ListAll returns every entry, oldest first.
func (s *Store) ListAll(ctx context.Context) ([]trace.Entry, error) {
	query := `
		SELECT id, agent_id, action_id, action, reasoning, context, timestamp, user_id
		FROM trace_entries
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trace entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByUser returns a user's entries, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]trace.Entry, error) {
	query := `
		SELECT id, agent_id, action_id, action, reasoning, context, timestamp, user_id
		FROM trace_entries
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query trace entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]trace.Entry, error) {
	var entries []trace.Entry
	for rows.Next() {
		var (
			e          trace.Entry
			id         uuid.UUID
			rawContext []byte
		)
		if err := rows.Scan(&id, &e.AgentID, &e.ActionID, &e.Action, &e.Reasoning, &rawContext, &e.Timestamp, &e.UserID); err != nil {
			return nil, fmt.Errorf("scan trace entry: %w", err)
		}
		e.ID = id.String()
		if len(rawContext) > 0 {
			e.Context = json.RawMessage(rawContext)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace entries: %w", err)
	}
	return entries, nil
}
