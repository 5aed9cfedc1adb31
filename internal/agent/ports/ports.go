// Package ports declares the narrow collaborator interfaces agents consume.
// Adapters live under internal/collaborator.
package ports

import (
	"context"

	"hayat/internal/family"
	"hayat/internal/obligation"
)

// FeedPort fetches the current obligation facts for household members.
type FeedPort interface {
	Fetch(ctx context.Context, memberIDs []string) ([]obligation.Record, error)
}

// SubscriptionPort pushes new facts as they happen. Delivery is at-most-once
// and unordered. The returned function unsubscribes and is safe to call twice.
type SubscriptionPort interface {
	Subscribe(callback func(obligation.Record)) (unsubscribe func())
}

// Command kinds understood by CommandPort adapters.
const (
	CommandPayment      = "payment"
	CommandRenewal      = "renewal"
	CommandNotification = "notification"
)

// CommandResult is the outcome of an external command.
type CommandResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
}

// CommandPort performs irreversible external work such as a payment.
type CommandPort interface {
	Perform(ctx context.Context, kind string, params map[string]string) (CommandResult, error)
}

// FamilyStructureProvider exposes the household to obligation agents.
type FamilyStructureProvider interface {
	FamilyStructure() (*family.Structure, bool)
	MemberIDs() []string
}
