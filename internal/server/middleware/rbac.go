package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/okrs/internal/domain"
)

// RequireRole returns a huma operation middleware that checks the role the
// Auth middleware stored in the request context.
//
// Returns 401 Unauthorized when no role is present and 403 Forbidden when the
// role is not one of roles.
func RequireRole(api huma.API, roles ...domain.Role) func(huma.Context, func(huma.Context)) {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		role, ok := RoleFromContext(ctx.Context())
		if !ok || role == "" {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "authentication required")
			return
		}

		if _, match := allowed[role]; !match {
			_ = huma.WriteErr(api, ctx, http.StatusForbidden, "insufficient permissions")
			return
		}

		next(ctx)
	}
}

// RequireAdmin is a convenience wrapper for RequireRole(api, domain.RoleAdmin).
func RequireAdmin(api huma.API) func(huma.Context, func(huma.Context)) {
	return RequireRole(api, domain.RoleAdmin)
}
