package family

import (
	"fmt"
	"slices"
	"time"

	dErrors "hayat/pkg/domain-errors"
)

// Structure is the household: a sponsor plus ordered dependants.
//
// Invariants:
//   - member ids are unique and non-empty
//   - SponsorID references the single member with RoleSponsor
//   - dependencies reference members of the same structure
type Structure struct {
	ID        string    `json:"id" yaml:"id"`
	SponsorID string    `json:"sponsor_id" yaml:"sponsor_id"`
	Members   []Member  `json:"members" yaml:"members"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// NewStructure validates members and builds a structure stamped at now.
func NewStructure(id string, members []Member, now time.Time) (*Structure, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "family structure id is required")
	}
	s := &Structure{ID: id, CreatedAt: now, UpdatedAt: now}
	for _, m := range members {
		m = m.clone()
		m.UpdatedAt = now
		s.Members = append(s.Members, m)
		if m.Role == RoleSponsor {
			s.SponsorID = m.ID
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the structure invariants.
func (s *Structure) Validate() error {
	seen := make(map[string]struct{}, len(s.Members))
	sponsors := 0
	for _, m := range s.Members {
		if m.ID == "" {
			return dErrors.New(dErrors.CodeValidation, "member id is required")
		}
		if !m.Role.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("member %s has unknown role %q", m.ID, m.Role))
		}
		if !m.Residency.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("member %s has unknown residency type %q", m.ID, m.Residency))
		}
		if _, dup := seen[m.ID]; dup {
			return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("duplicate member id %s", m.ID))
		}
		seen[m.ID] = struct{}{}
		if m.Role == RoleSponsor {
			sponsors++
		}
	}
	if sponsors != 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "family structure requires exactly one sponsor")
	}
	sponsor, ok := s.Member(s.SponsorID)
	if !ok || sponsor.Role != RoleSponsor {
		return dErrors.New(dErrors.CodeInvariantViolation, "sponsor id must reference the sponsor member")
	}
	for _, m := range s.Members {
		for _, dep := range m.Dependencies {
			if _, ok := seen[dep]; !ok {
				return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("member %s depends on unknown member %s", m.ID, dep))
			}
		}
	}
	return nil
}

// Member returns a copy of the member with the given id.
func (s *Structure) Member(id string) (Member, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m.clone(), true
		}
	}
	return Member{}, false
}

// MemberIDs returns member ids in structure order.
func (s *Structure) MemberIDs() []string {
	ids := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// AddMember appends a new member. A second sponsor or a duplicate id is an
// invariant violation; the structure is left unchanged on error.
func (s *Structure) AddMember(m Member, now time.Time) error {
	next := s.Clone()
	m = m.clone()
	m.UpdatedAt = now
	next.Members = append(next.Members, m)
	if err := next.Validate(); err != nil {
		return err
	}
	s.Members = next.Members
	s.UpdatedAt = now
	return nil
}

// UpdateMember applies u to the member with the given id and returns the
// updated member. Role changes are not supported through updates.
func (s *Structure) UpdateMember(id string, u MemberUpdate, now time.Time) (Member, error) {
	idx := slices.IndexFunc(s.Members, func(m Member) bool { return m.ID == id })
	if idx < 0 {
		return Member{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("member %s not found", id))
	}
	if u.IsEmpty() {
		return Member{}, dErrors.New(dErrors.CodeValidation, "member update changes nothing")
	}
	next := s.Clone()
	u.apply(&next.Members[idx])
	next.Members[idx].UpdatedAt = now
	if err := next.Validate(); err != nil {
		return Member{}, err
	}
	s.Members = next.Members
	s.UpdatedAt = now
	return s.Members[idx].clone(), nil
}

// Clone returns a deep copy.
func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}
	out := *s
	out.Members = make([]Member, len(s.Members))
	for i, m := range s.Members {
		out.Members[i] = m.clone()
	}
	return &out
}
