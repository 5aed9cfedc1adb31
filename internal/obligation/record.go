// Package obligation models time-bound requirements tracked per household member
// and the cache each agent keeps of them.
package obligation

import (
	"math"
	"time"
)

// Kind identifies the obligation category.
type Kind string

const (
	KindVisa           Kind = "visa"
	KindEmiratesID     Kind = "emirates_id"
	KindParkingFine    Kind = "parking_fine"
	KindVaccination    Kind = "vaccination"
	KindMedicalFitness Kind = "medical_fitness"
	KindInsurance      Kind = "insurance"
)

// Key is the identity of an authoritative record.
type Key struct {
	Kind     Kind   `json:"kind"`
	MemberID string `json:"member_id"`
	Ref      string `json:"ref"`
}

// Fine holds the payment-specific details of a parking fine.
type Fine struct {
	Emirate        string    `json:"emirate" yaml:"emirate"`
	Amount         float64   `json:"amount" yaml:"amount"`
	ViolationAt    time.Time `json:"violation_at" yaml:"violation_at"`
	DiscountEndsAt time.Time `json:"discount_ends_at" yaml:"discount_ends_at"`
}

// Record is one obligation fact as reported by a feed. DueAt is the expiry for
// documents and insurance, the due date for vaccinations and medical tests, and
// the end of the discount window for fines.
type Record struct {
	Kind              Kind      `json:"kind" yaml:"kind"`
	MemberID          string    `json:"member_id" yaml:"member_id"`
	Ref               string    `json:"ref" yaml:"ref"`
	Label             string    `json:"label,omitempty" yaml:"label"`
	DueAt             time.Time `json:"due_at" yaml:"due_at"`
	Completed         bool      `json:"completed" yaml:"completed"`
	RenewalInProgress bool      `json:"renewal_in_progress" yaml:"renewal_in_progress"`
	Mandatory         bool      `json:"mandatory" yaml:"mandatory"`
	Invalid           bool      `json:"invalid,omitempty" yaml:"invalid"`
	Agency            string    `json:"agency,omitempty" yaml:"agency"`
	Fine              *Fine     `json:"fine,omitempty" yaml:"fine"`
}

// Normalize returns r with derived fields filled in. A fine's discount window
// end, when reported, is its due date.
func (r Record) Normalize() Record {
	if r.Kind == KindParkingFine && r.Fine != nil && !r.Fine.DiscountEndsAt.IsZero() {
		r.DueAt = r.Fine.DiscountEndsAt
	}
	return r
}

// Key returns the record identity.
func (r Record) Key() Key {
	return Key{Kind: r.Kind, MemberID: r.MemberID, Ref: r.Ref}
}

// Outstanding reports whether the obligation still needs attention.
func (r Record) Outstanding() bool {
	return !r.Completed && !r.RenewalInProgress
}

// DaysUntilDue returns whole days until DueAt, rounded down, so any moment
// past the deadline is negative.
func (r Record) DaysUntilDue(now time.Time) int {
	return int(math.Floor(r.DueAt.Sub(now).Hours() / 24))
}

// HoursUntilDue returns whole hours until DueAt, truncated toward zero.
func (r Record) HoursUntilDue(now time.Time) int {
	return int(r.DueAt.Sub(now).Hours())
}

// Overdue reports whether now is past DueAt.
func (r Record) Overdue(now time.Time) bool {
	return now.After(r.DueAt)
}

// DisplayLabel returns the label or, failing that, the reference.
func (r Record) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Ref
}

// Equal reports whether two records carry the same facts.
func (r Record) Equal(o Record) bool {
	if r.Kind != o.Kind || r.MemberID != o.MemberID || r.Ref != o.Ref ||
		r.Label != o.Label || !r.DueAt.Equal(o.DueAt) ||
		r.Completed != o.Completed || r.RenewalInProgress != o.RenewalInProgress ||
		r.Mandatory != o.Mandatory || r.Invalid != o.Invalid || r.Agency != o.Agency {
		return false
	}
	switch {
	case r.Fine == nil && o.Fine == nil:
		return true
	case r.Fine == nil || o.Fine == nil:
		return false
	}
	return r.Fine.Emirate == o.Fine.Emirate && r.Fine.Amount == o.Fine.Amount &&
		r.Fine.ViolationAt.Equal(o.Fine.ViolationAt) && r.Fine.DiscountEndsAt.Equal(o.Fine.DiscountEndsAt)
}

func (r Record) clone() Record {
	if r.Fine != nil {
		f := *r.Fine
		r.Fine = &f
	}
	return r
}
