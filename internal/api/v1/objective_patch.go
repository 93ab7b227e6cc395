package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
)

// objectivePatchBody keeps every field raw so an absent key, an explicit
// null and a value can be told apart. ownerId and memberId are accepted and
// ignored.
type objectivePatchBody struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Version        *int            `json:"version,omitempty" doc:"Stored version the edit is based on; a mismatch is rejected with 409"`
	Title          json.RawMessage `json:"title,omitempty"`
	Description    json.RawMessage `json:"description,omitempty"`
	TeamID         json.RawMessage `json:"teamId,omitempty" doc:"null or \"\" clears"`
	DepartmentID   json.RawMessage `json:"departmentId,omitempty" doc:"null or \"\" clears"`
	OrganizationID json.RawMessage `json:"organizationId,omitempty" doc:"null or \"\" clears"`
	ObjectiveType  json.RawMessage `json:"objectiveType,omitempty"`
	Status         json.RawMessage `json:"status,omitempty"`
	Progress       json.RawMessage `json:"progress,omitempty" doc:"0-100"`
	Tags           json.RawMessage `json:"tags,omitempty"`
	StartDate      json.RawMessage `json:"startDate,omitempty" doc:"YYYY-MM-DD, RFC 3339, or null to clear"`
	DueDate        json.RawMessage `json:"dueDate,omitempty" doc:"YYYY-MM-DD, RFC 3339, or null to clear"`
	KeyResults     json.RawMessage `json:"keyResults,omitempty" doc:"Complete new key result sequence, matched by position"`
}

type keyResultPatchBody struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Target      json.RawMessage `json:"target"`
	Current     json.RawMessage `json:"current"`
	Unit        json.RawMessage `json:"unit"`
	Progress    json.RawMessage `json:"progress"`
}

func (b *objectivePatchBody) toPatch() (okr.Patch, error) {
	p := okr.Patch{Version: b.Version}
	var err error

	if p.Title, err = required[string]("title", b.Title); err != nil {
		return p, err
	}
	if p.Description, err = optional[string]("description", b.Description); err != nil {
		return p, err
	}
	if p.TeamID, err = ref("teamId", b.TeamID); err != nil {
		return p, err
	}
	if p.DepartmentID, err = ref("departmentId", b.DepartmentID); err != nil {
		return p, err
	}
	if p.OrganizationID, err = ref("organizationId", b.OrganizationID); err != nil {
		return p, err
	}
	if p.ObjectiveType, err = required[domain.Scope]("objectiveType", b.ObjectiveType); err != nil {
		return p, err
	}
	if p.Status, err = required[domain.ObjectiveStatus]("status", b.Status); err != nil {
		return p, err
	}
	if p.Progress, err = required[int]("progress", b.Progress); err != nil {
		return p, err
	}
	if p.Tags, err = optional[[]string]("tags", b.Tags); err != nil {
		return p, err
	}
	if p.Tags.Set && p.Tags.Value == nil {
		p.Tags.Value = []string{}
	}
	if p.StartDate, err = date("startDate", b.StartDate); err != nil {
		return p, err
	}
	if p.DueDate, err = date("dueDate", b.DueDate); err != nil {
		return p, err
	}
	if p.KeyResults, err = keyResults(b.KeyResults); err != nil {
		return p, err
	}

	return p, nil
}

func keyResults(raw json.RawMessage) (okr.Field[[]okr.KeyResultPatch], error) {
	var out okr.Field[[]okr.KeyResultPatch]
	if raw == nil {
		return out, nil
	}
	if isNull(raw) {
		return out, &domain.FieldError{Field: "keyResults", Reason: "must be an array"}
	}

	var elems []keyResultPatchBody
	if err := json.Unmarshal(raw, &elems); err != nil {
		return out, &domain.FieldError{Field: "keyResults", Reason: "must be an array of objects"}
	}

	patches := make([]okr.KeyResultPatch, len(elems))
	for i, e := range elems {
		name := func(field string) string { return fmt.Sprintf("keyResults[%d].%s", i, field) }
		kr := &patches[i]
		var err error
		if kr.Title, err = required[string](name("title"), e.Title); err != nil {
			return out, err
		}
		if kr.Description, err = optional[string](name("description"), e.Description); err != nil {
			return out, err
		}
		if kr.Target, err = required[float64](name("target"), e.Target); err != nil {
			return out, err
		}
		if kr.Current, err = required[float64](name("current"), e.Current); err != nil {
			return out, err
		}
		if kr.Unit, err = optional[string](name("unit"), e.Unit); err != nil {
			return out, err
		}
		if kr.Progress, err = required[int](name("progress"), e.Progress); err != nil {
			return out, err
		}
	}

	return okr.Some(patches), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// required decodes a field that may be absent but not null.
func required[T any](name string, raw json.RawMessage) (okr.Field[T], error) {
	if raw == nil {
		return okr.Field[T]{}, nil
	}
	if isNull(raw) {
		return okr.Field[T]{}, &domain.FieldError{Field: name, Reason: "must not be null"}
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return okr.Field[T]{}, &domain.FieldError{Field: name, Reason: "has the wrong type"}
	}
	return okr.Some(v), nil
}

// optional decodes a field where null means the zero value.
func optional[T any](name string, raw json.RawMessage) (okr.Field[T], error) {
	if raw == nil {
		return okr.Field[T]{}, nil
	}
	var v T
	if isNull(raw) {
		return okr.Some(v), nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return okr.Field[T]{}, &domain.FieldError{Field: name, Reason: "has the wrong type"}
	}
	return okr.Some(v), nil
}

// ref decodes a relation id. null and "" clear the relation.
func ref(name string, raw json.RawMessage) (okr.Field[*uuid.UUID], error) {
	s, err := optional[string](name, raw)
	if err != nil || !s.Set {
		return okr.Field[*uuid.UUID]{}, err
	}
	if strings.TrimSpace(s.Value) == "" {
		return okr.Some[*uuid.UUID](nil), nil
	}
	id, err := uuid.Parse(s.Value)
	if err != nil {
		return okr.Field[*uuid.UUID]{}, &domain.FieldError{Field: name, Reason: "is not a valid identifier"}
	}
	return okr.Some(&id), nil
}

// date decodes a calendar date. null and "" clear the date.
func date(name string, raw json.RawMessage) (okr.Field[*time.Time], error) {
	s, err := optional[string](name, raw)
	if err != nil || !s.Set {
		return okr.Field[*time.Time]{}, err
	}
	if s.Value == "" {
		return okr.Some[*time.Time](nil), nil
	}
	t, err := parseDateValue(s.Value)
	if err != nil {
		return okr.Field[*time.Time]{}, &domain.FieldError{Field: name, Reason: "expected YYYY-MM-DD or an RFC 3339 timestamp"}
	}
	return okr.Some(&t), nil
}
