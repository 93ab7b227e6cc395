package okr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
)

// DateLayout is the calendar-date format used for startDate and dueDate
// values in the update log.
const DateLayout = "2006-01-02"

type scalarField struct {
	name     string
	provided bool
	old, new any
	apply    func(o *domain.Objective)
}

type keyResultField struct {
	name     string
	provided bool
	old, new any
	apply    func(kr *domain.KeyResult)
}

// Apply merges p into a copy of stored on behalf of callerID and returns the
// merged objective with one update log entry per discrete change. stored is
// not modified. An empty entry slice means the patch was a no-op.
//
// Key results are matched by position, not by id: the element at index i of
// the patch is compared with the stored element at index i. Reordering a
// sequence therefore shows up as field edits at every moved index, and
// removing a non-last element as edits followed by a delete of the tail.
func Apply(stored *domain.Objective, callerID uuid.UUID, p Patch, now time.Time) (*domain.Objective, []*domain.UpdateLogEntry, error) {
	if err := validatePatch(p); err != nil {
		return nil, nil, fmt.Errorf("okr.Apply: %w", err)
	}

	next := stored.Clone()
	var entries []*domain.UpdateLogEntry
	record := func(action domain.UpdateAction, field string, keyResultID *uuid.UUID, oldValue, newValue any) {
		entries = append(entries, &domain.UpdateLogEntry{
			ID:           uuid.New(),
			OKRID:        stored.ID,
			KeyResultID:  keyResultID,
			UserID:       callerID,
			Action:       action,
			FieldChanged: field,
			OldValue:     oldValue,
			NewValue:     newValue,
			Timestamp:    now,
		})
	}

	for _, f := range scalarFields(stored, callerID, p) {
		if !f.provided || sameValue(f.old, f.new) {
			continue
		}
		record(domain.ActionUpdate, f.name, nil, f.old, f.new)
		f.apply(next)
	}

	if p.KeyResults.Set {
		if err := reconcileKeyResults(next, p.KeyResults.Value, now, record); err != nil {
			return nil, nil, fmt.Errorf("okr.Apply: %w", err)
		}
	}

	if len(entries) > 0 {
		next.UpdatedAt = now
	}

	return next, entries, nil
}

// scalarFields lists the tracked objective fields in comparison order.
// ownerId is always provided and always resolves to the caller.
func scalarFields(o *domain.Objective, callerID uuid.UUID, p Patch) []scalarField {
	return []scalarField{
		{"title", p.Title.Set, o.Title, p.Title.Value, func(o *domain.Objective) {
			o.Title = p.Title.Value
		}},
		{"description", p.Description.Set, o.Description, p.Description.Value, func(o *domain.Objective) {
			o.Description = p.Description.Value
		}},
		{"ownerId", true, o.OwnerID.String(), callerID.String(), func(o *domain.Objective) {
			o.OwnerID = callerID
		}},
		{"teamId", p.TeamID.Set, refValue(o.TeamID), refValue(p.TeamID.Value), func(o *domain.Objective) {
			o.TeamID = copyRef(p.TeamID.Value)
		}},
		{"departmentId", p.DepartmentID.Set, refValue(o.DepartmentID), refValue(p.DepartmentID.Value), func(o *domain.Objective) {
			o.DepartmentID = copyRef(p.DepartmentID.Value)
		}},
		{"organizationId", p.OrganizationID.Set, refValue(o.OrganizationID), refValue(p.OrganizationID.Value), func(o *domain.Objective) {
			o.OrganizationID = copyRef(p.OrganizationID.Value)
		}},
		{"objectiveType", p.ObjectiveType.Set, string(o.ObjectiveType), string(p.ObjectiveType.Value), func(o *domain.Objective) {
			o.ObjectiveType = p.ObjectiveType.Value
		}},
		{"status", p.Status.Set, string(o.Status), string(p.Status.Value), func(o *domain.Objective) {
			o.Status = p.Status.Value
		}},
		{"progress", p.Progress.Set, o.Progress, p.Progress.Value, func(o *domain.Objective) {
			o.Progress = p.Progress.Value
		}},
		{"tags", p.Tags.Set, tagsValue(o.Tags), tagsValue(p.Tags.Value), func(o *domain.Objective) {
			o.Tags = append([]string{}, p.Tags.Value...)
		}},
		{"startDate", p.StartDate.Set, dateValue(o.StartDate), dateValue(p.StartDate.Value), func(o *domain.Objective) {
			o.StartDate = TruncateDate(p.StartDate.Value)
		}},
		{"dueDate", p.DueDate.Set, dateValue(o.DueDate), dateValue(p.DueDate.Value), func(o *domain.Objective) {
			o.DueDate = TruncateDate(p.DueDate.Value)
		}},
	}
}

func reconcileKeyResults(
	next *domain.Objective,
	incoming []KeyResultPatch,
	now time.Time,
	record func(domain.UpdateAction, string, *uuid.UUID, any, any),
) error {
	stored := len(next.KeyResults)

	for i, in := range incoming {
		if i >= stored {
			kr, err := NewKeyResult(in, now)
			if err != nil {
				return err
			}
			serialized, err := serializeKeyResult(kr)
			if err != nil {
				return err
			}
			record(domain.ActionCreate, indexPath(i), nil, nil, serialized)
			next.KeyResults = append(next.KeyResults, kr)
			continue
		}

		cur := &next.KeyResults[i]
		id := cur.ID
		touched := false
		for _, f := range keyResultFields(*cur, in) {
			if !f.provided || sameValue(f.old, f.new) {
				continue
			}
			action := domain.ActionUpdate
			if f.name == "progress" {
				action = domain.ActionProgressUpdate
			}
			record(action, "keyResults."+f.name, &id, f.old, f.new)
			f.apply(cur)
			touched = true
		}
		if touched {
			cur.UpdatedAt = now
		}
	}

	for i := len(incoming); i < stored; i++ {
		removed := next.KeyResults[i]
		serialized, err := serializeKeyResult(removed)
		if err != nil {
			return err
		}
		id := removed.ID
		record(domain.ActionDelete, indexPath(i), &id, serialized, nil)
	}
	if len(incoming) < stored {
		next.KeyResults = next.KeyResults[:len(incoming)]
	}

	return nil
}

func keyResultFields(kr domain.KeyResult, in KeyResultPatch) []keyResultField {
	return []keyResultField{
		{"title", in.Title.Set, kr.Title, in.Title.Value, func(kr *domain.KeyResult) {
			kr.Title = in.Title.Value
		}},
		{"description", in.Description.Set, kr.Description, in.Description.Value, func(kr *domain.KeyResult) {
			kr.Description = in.Description.Value
		}},
		{"target", in.Target.Set, kr.Target, in.Target.Value, func(kr *domain.KeyResult) {
			kr.Target = in.Target.Value
		}},
		{"current", in.Current.Set, kr.Current, in.Current.Value, func(kr *domain.KeyResult) {
			kr.Current = in.Current.Value
		}},
		{"unit", in.Unit.Set, kr.Unit, in.Unit.Value, func(kr *domain.KeyResult) {
			kr.Unit = in.Unit.Value
		}},
		{"progress", in.Progress.Set, kr.Progress, in.Progress.Value, func(kr *domain.KeyResult) {
			kr.Progress = in.Progress.Value
		}},
	}
}

// NewKeyResult builds a key result with a fresh id from a patch element.
// A title is required.
func NewKeyResult(in KeyResultPatch, now time.Time) (domain.KeyResult, error) {
	if !in.Title.Set || strings.TrimSpace(in.Title.Value) == "" {
		return domain.KeyResult{}, &domain.FieldError{Field: "keyResults.title", Reason: "is required"}
	}
	return domain.KeyResult{
		ID:          uuid.New(),
		Title:       in.Title.Value,
		Description: in.Description.Value,
		Target:      in.Target.Value,
		Current:     in.Current.Value,
		Unit:        in.Unit.Value,
		Progress:    in.Progress.Value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validatePatch(p Patch) error {
	if p.Title.Set && strings.TrimSpace(p.Title.Value) == "" {
		return &domain.FieldError{Field: "title", Reason: "must not be empty"}
	}
	if p.ObjectiveType.Set && !p.ObjectiveType.Value.Valid() {
		return &domain.FieldError{Field: "objectiveType", Reason: "unknown objective type " + strconv.Quote(string(p.ObjectiveType.Value))}
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		return &domain.FieldError{Field: "status", Reason: "unknown status " + strconv.Quote(string(p.Status.Value))}
	}
	if p.Progress.Set && !validProgress(p.Progress.Value) {
		return &domain.FieldError{Field: "progress", Reason: "must be between 0 and 100"}
	}
	for _, kr := range p.KeyResults.Value {
		if kr.Title.Set && strings.TrimSpace(kr.Title.Value) == "" {
			return &domain.FieldError{Field: "keyResults.title", Reason: "must not be empty"}
		}
		if kr.Progress.Set && !validProgress(kr.Progress.Value) {
			return &domain.FieldError{Field: "keyResults.progress", Reason: "must be between 0 and 100"}
		}
	}
	return nil
}

func validProgress(v int) bool {
	return v >= 0 && v <= 100
}

// sameValue compares the JSON encodings of a and b, so numbers, strings,
// string slices and nil compare the way they are stored.
func sameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func serializeKeyResult(kr domain.KeyResult) (string, error) {
	b, err := json.Marshal(kr)
	if err != nil {
		return "", fmt.Errorf("serialize key result: %w", err)
	}
	return string(b), nil
}

func indexPath(i int) string {
	return "keyResults[" + strconv.Itoa(i) + "]"
}

func refValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func copyRef(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(DateLayout)
}

func tagsValue(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// TruncateDate drops the time of day, keeping the UTC calendar date.
func TruncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
