// Package family models the household whose obligations the agents monitor.
package family

import (
	"slices"
	"time"
)

// Role is a member's position in the household. It drives family-impact scoring.
type Role string

const (
	RoleSponsor        Role = "sponsor"
	RoleSpouse         Role = "spouse"
	RoleChild          Role = "child"
	RoleDomesticWorker Role = "domestic_worker"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSponsor, RoleSpouse, RoleChild, RoleDomesticWorker:
		return true
	}
	return false
}

// ResidencyType selects the consequence narrative for visa obligations.
type ResidencyType string

const (
	ResidencyTourist        ResidencyType = "tourist"
	ResidencySkilledExpat   ResidencyType = "skilled_expat"
	ResidencyDomesticWorker ResidencyType = "domestic_worker"
)

// IsValid reports whether t is a known residency type. The empty value is
// accepted and treated as skilled_expat by consumers.
func (t ResidencyType) IsValid() bool {
	switch t {
	case "", ResidencyTourist, ResidencySkilledExpat, ResidencyDomesticWorker:
		return true
	}
	return false
}

// OrDefault returns t, or skilled_expat when unset.
func (t ResidencyType) OrDefault() ResidencyType {
	if t == "" {
		return ResidencySkilledExpat
	}
	return t
}

// Member is one person in the household.
type Member struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	Role         Role          `json:"role" yaml:"role"`
	Residency    ResidencyType `json:"residency_type,omitempty" yaml:"residency_type"`
	DateOfBirth  *time.Time    `json:"date_of_birth,omitempty" yaml:"date_of_birth"`
	EmiratesID   string        `json:"emirates_id,omitempty" yaml:"emirates_id"`
	VisaNumber   string        `json:"visa_number,omitempty" yaml:"visa_number"`
	Dependencies []string      `json:"dependencies,omitempty" yaml:"dependencies"`
	UpdatedAt    time.Time     `json:"updated_at" yaml:"-"`
}

// DisplayName returns the member name, or a generic label when unnamed.
func (m Member) DisplayName() string {
	if m.Name == "" {
		return "Member"
	}
	return m.Name
}

func (m Member) clone() Member {
	out := m
	out.Dependencies = slices.Clone(m.Dependencies)
	if m.DateOfBirth != nil {
		dob := *m.DateOfBirth
		out.DateOfBirth = &dob
	}
	return out
}

// MemberUpdate carries optional field changes. Nil fields are left untouched.
type MemberUpdate struct {
	Name         *string        `json:"name,omitempty"`
	Residency    *ResidencyType `json:"residency_type,omitempty"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty"`
	EmiratesID   *string        `json:"emirates_id,omitempty"`
	VisaNumber   *string        `json:"visa_number,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u MemberUpdate) IsEmpty() bool {
	return u.Name == nil && u.Residency == nil && u.DateOfBirth == nil &&
		u.EmiratesID == nil && u.VisaNumber == nil && u.Dependencies == nil
}

func (u MemberUpdate) apply(m *Member) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Residency != nil {
		m.Residency = *u.Residency
	}
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		m.DateOfBirth = &dob
	}
	if u.EmiratesID != nil {
		m.EmiratesID = *u.EmiratesID
	}
	if u.VisaNumber != nil {
		m.VisaNumber = *u.VisaNumber
	}
	if u.Dependencies != nil {
		m.Dependencies = slices.Clone(u.Dependencies)
	}
}
