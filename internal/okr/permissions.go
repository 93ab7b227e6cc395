package okr

import (
	"fmt"
	"slices"

	"github.com/gosuda/okrs/internal/domain"
)

// ScopeTable maps a role to the objective scopes it may create.
type ScopeTable map[domain.Role][]domain.Scope

// DefaultScopeTable is the built-in creation policy.
//
//nolint:gochecknoglobals // policy table
var DefaultScopeTable = ScopeTable{
	domain.RoleAdmin:       {domain.ScopeIndividual, domain.ScopeTeam, domain.ScopeDepartment, domain.ScopeOrganization},
	domain.RoleDeptManager: {domain.ScopeIndividual, domain.ScopeTeam, domain.ScopeDepartment},
	domain.RoleTeamManager: {domain.ScopeIndividual, domain.ScopeTeam},
	domain.RoleMember:      {domain.ScopeIndividual},
}

// Allows reports whether role may create objectives of scope.
// Unknown roles are allowed nothing.
func (t ScopeTable) Allows(role domain.Role, scope domain.Scope) bool {
	return slices.Contains(t[role], scope)
}

// PermissionError is returned when a role may not create a scope.
// It matches domain.ErrForbidden.
type PermissionError struct {
	Role  domain.Role
	Scope domain.Scope
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role '%s' cannot create objective type '%s'", e.Role, e.Scope)
}

func (e *PermissionError) Unwrap() error {
	return domain.ErrForbidden
}
