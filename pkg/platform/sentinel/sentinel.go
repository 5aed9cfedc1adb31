package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so callers can branch on them without importing a driver.
//
//   - ErrConflict: a record with the same identity already exists
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrConflict = errors.New("conflict")
)
