/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All error types in one place. Row-level problems are classified so the
  batch driver can tell a skipped row from a failed one; neither aborts
  the batch.

ERROR CATEGORIES:
  1. Validation skips - required field missing (house number, booth,
     family, cluster, owner) or nothing to attach the row to
  2. Store errors - not found, duplicate natural key
  3. Row errors - any of the above bound to a sheet line

USAGE:
  if census.IsSkip(err) {
      summary.Skipped++
  }

SEE ALSO:
  - engine.go: Converts failures into RowError entries of a Summary
  - store.go: Returns ErrNotFound / ErrDuplicateVariant / ErrDuplicateHousehold
*/
package census

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingHouseNumber is returned for bulk rows without a house number.
	// The household cannot be resolved, so the row is skipped.
	ErrMissingHouseNumber = errors.New("missing house number")

	// ErrMissingBooth is returned for corrective rows without a polling booth.
	// Booth is the mandatory scope of the corrective workflow.
	ErrMissingBooth = errors.New("missing polling booth")

	// ErrMissingIdentifier is returned when a row carries no usable identifier.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrNoMatch is returned when a corrective row resolves to no resident.
	ErrNoMatch = errors.New("no matching resident")

	// ErrMissingFamilyName, ErrMissingCluster and ErrMissingOwner are
	// returned for house rows lacking a required column.
	ErrMissingFamilyName = errors.New("missing family name")
	ErrMissingCluster    = errors.New("missing cluster")
	ErrMissingOwner      = errors.New("missing owner")

	// ErrFamilyNotFound is returned when a house row names no known
	// household and carries no house number to create one from.
	ErrFamilyNotFound = errors.New("family not found")

	// ErrNotFound is returned by stores for unknown IDs.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVariant is returned when creating a variant whose
	// (resident, normalized name) pair already exists.
	ErrDuplicateVariant = errors.New("duplicate name variant")

	// ErrDuplicateHousehold is returned when a household is moved to a
	// house number another household already holds.
	ErrDuplicateHousehold = errors.New("duplicate household")

	// ErrUnarchivableName is returned when a canonical name would be
	// replaced but the old value has no letters or digits to key it by.
	// The name is left unchanged.
	ErrUnarchivableName = errors.New("canonical name cannot be archived")

	// ErrInvalidSource is returned for an unknown variant provenance.
	ErrInvalidSource = errors.New("invalid variant source")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RowError binds a failure to a sheet line.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Line, e.Reason, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsSkip reports whether err is an expected validation skip rather than
// an unexpected failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrMissingHouseNumber) ||
		errors.Is(err, ErrMissingBooth) ||
		errors.Is(err, ErrMissingIdentifier) ||
		errors.Is(err, ErrNoMatch) ||
		errors.Is(err, ErrMissingFamilyName) ||
		errors.Is(err, ErrMissingCluster) ||
		errors.Is(err, ErrMissingOwner) ||
		errors.Is(err, ErrFamilyNotFound)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
