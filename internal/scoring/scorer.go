// Package scoring converts obligation timing, mandatoriness and the affected
// member's role into a 0-100 priority and a coarse urgency tier. It is pure.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"hayat/internal/family"
	"hayat/internal/obligation"
)

// Urgency is the coarse display bucket.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Escalation selects the message tone for payment-style obligations.
type Escalation string

const (
	EscalationFriendly Escalation = "friendly"
	EscalationUrgent   Escalation = "urgent"
	EscalationFormal   Escalation = "formal"
)

// Assessment is the scored risk of one obligation.
type Assessment struct {
	Stress       float64 `json:"stress"`
	LegalRisk    float64 `json:"legal_risk"`
	FamilyImpact float64 `json:"family_impact"`
	Urgency      Urgency `json:"urgency"`
	Priority     int     `json:"priority"`
}

// FineAssessment is the scored risk of a fine inside or past its discount window.
type FineAssessment struct {
	Priority   int        `json:"priority"`
	Escalation Escalation `json:"escalation"`
}

const (
	weightStress = 0.3
	weightLegal  = 0.4
	weightImpact = 0.3
)

// Score assesses a dated obligation.
func Score(kind obligation.Kind, daysUntilDue int, role family.Role, mandatory bool) Assessment {
	stress := stressLevel(daysUntilDue, mandatory)
	legal := legalRisk(kind, daysUntilDue, mandatory)
	impact := familyImpact(role, kind)
	return Assessment{
		Stress:       stress,
		LegalRisk:    legal,
		FamilyImpact: impact,
		Urgency:      urgencyFor((stress + legal + impact) / 3),
		Priority:     int(math.Round(100 * (weightStress*stress + weightLegal*legal + weightImpact*impact))),
	}
}

func stressLevel(days int, mandatory bool) float64 {
	switch {
	case days < 0:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	case days <= 60:
		return 0.5
	case days <= 90:
		return 0.3
	case mandatory:
		return 0.3
	default:
		return 0.1
	}
}

// farBandLegalCap keeps priority non-increasing in days: beyond 60 days the
// kind base may not exceed the 31-60 day band.
const farBandLegalCap = 0.5

func legalRisk(kind obligation.Kind, days int, mandatory bool) float64 {
	if !mandatory {
		return 0.1
	}
	switch {
	case days < 0:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	case days <= 60:
		return 0.5
	}
	return math.Min(kindBase(kind), farBandLegalCap)
}

func kindBase(kind obligation.Kind) float64 {
	switch kind {
	case obligation.KindVaccination:
		return 0.8
	case obligation.KindInsurance:
		return 0.7
	case obligation.KindMedicalFitness:
		return 0.6
	default:
		return 0.3
	}
}

func familyImpact(role family.Role, kind obligation.Kind) float64 {
	if role == family.RoleChild && kind == obligation.KindVaccination {
		return 0.9
	}
	switch role {
	case family.RoleSponsor:
		return 1.0
	case family.RoleSpouse:
		return 0.9
	case family.RoleChild:
		return 0.7
	default:
		return 0.5
	}
}

func urgencyFor(mean float64) Urgency {
	switch {
	case mean >= 0.8:
		return UrgencyCritical
	case mean >= 0.6:
		return UrgencyHigh
	case mean >= 0.4:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// ScoreFine assesses a fine by the whole hours left in its discount window.
func ScoreFine(hoursRemaining int, expired bool) FineAssessment {
	switch {
	case expired || hoursRemaining < 0:
		return FineAssessment{Priority: 95, Escalation: EscalationFormal}
	case hoursRemaining <= 6:
		return FineAssessment{Priority: 90, Escalation: EscalationUrgent}
	case hoursRemaining <= 12:
		return FineAssessment{Priority: 85, Escalation: EscalationUrgent}
	case hoursRemaining <= 24:
		return FineAssessment{Priority: 75, Escalation: EscalationFriendly}
	default:
		return FineAssessment{Priority: 70, Escalation: EscalationFriendly}
	}
}

// TierForPriority maps a 0-100 priority onto the display tier.
func TierForPriority(priority int) Urgency {
	switch {
	case priority >= 90:
		return UrgencyCritical
	case priority >= 70:
		return UrgencyHigh
	case priority >= 50:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Prioritize stable-sorts items by descending priority.
func Prioritize[T any](items []T, priority func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(priority(b), priority(a))
	})
}
