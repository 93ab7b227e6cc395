package okr

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
)

// Field is an optional patch value. Set is true when the caller supplied the
// key, even if Value is the zero value.
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a Field carrying v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Patch is a partial objective update. Absent fields keep their stored value.
// Relation and date fields use a nil Value to clear the stored value.
type Patch struct {
	// Version, when non-nil, must equal the stored version.
	Version *int

	Title          Field[string]
	Description    Field[string]
	OwnerID        Field[uuid.UUID] // always replaced by the caller
	TeamID         Field[*uuid.UUID]
	DepartmentID   Field[*uuid.UUID]
	OrganizationID Field[*uuid.UUID]
	ObjectiveType  Field[domain.Scope]
	Status         Field[domain.ObjectiveStatus]
	Progress       Field[int]
	Tags           Field[[]string]
	StartDate      Field[*time.Time]
	DueDate        Field[*time.Time]

	// KeyResults, when set, is the complete new sequence. It is reconciled
	// against the stored sequence by index.
	KeyResults Field[[]KeyResultPatch]
}

// KeyResultPatch describes one element of the new key-result sequence.
// Only set fields are compared against the stored key result at the same index.
type KeyResultPatch struct {
	Title       Field[string]
	Description Field[string]
	Target      Field[float64]
	Current     Field[float64]
	Unit        Field[string]
	Progress    Field[int]
}
