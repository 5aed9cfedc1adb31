// Package trace is the append-only decision ledger. Every action an agent
// executes is recorded here before its side effect, so any decision can be
// explained after the fact.
package trace

import (
	"encoding/json"
	"time"
)

// Well-known action labels written by agents outside of Act.
const (
	ActionRecordSuperseded = "record_superseded"
	ActionMemberAdded      = "member_added"
	ActionMemberUpdated    = "member_updated"
	ActionStructureUpdated = "family_structure_updated"
)

// Entry is an immutable ledger row. Context is a JSON snapshot taken at append
// time; later changes to the source data never alter it.
type Entry struct {
	ID        string          `json:"id"`
	AgentID   string          `json:"agent_id"`
	ActionID  string          `json:"action_id,omitempty"`
	Action    string          `json:"action"`
	Reasoning string          `json:"reasoning"`
	Context   json.RawMessage `json:"context,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    string          `json:"user_id"`
}

// Record is the input to Append.
type Record struct {
	AgentID   string
	ActionID  string
	Action    string
	Reasoning string
	Context   any
	UserID    string
}

func (e Entry) clone() Entry {
	if e.Context != nil {
		e.Context = append(json.RawMessage(nil), e.Context...)
	}
	return e
}
