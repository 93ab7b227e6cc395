package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
	"github.com/gosuda/okrs/internal/server/middleware"
)

// toHTTPError maps domain errors to problem responses; resource names the
// entity in 404 and 409 messages. Anything unrecognized is logged and
// reported as a generic 500.
func toHTTPError(op, resource string, err error) error {
	var fieldErr *domain.FieldError
	var permErr *okr.PermissionError

	switch {
	case errors.As(err, &fieldErr):
		return huma.Error400BadRequest(fieldErr.Error())
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest("invalid request")
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("unauthorized")
	case errors.As(err, &permErr):
		return huma.Error403Forbidden(permErr.Error())
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("forbidden")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(resource + " not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(resource + " was modified concurrently; reload and retry")
	case errors.Is(err, context.Canceled):
		return huma.NewError(499, "request cancelled")
	}

	log.Error().Err(err).Str("op", op).Msg("request failed")
	return huma.Error500InternalServerError("internal server error")
}

// parseID parses a path or query identifier. Malformed ids are a 400.
func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, huma.Error400BadRequest("invalid " + name + ": not a valid identifier")
	}
	return id, nil
}

// parseOptionalID treats "" as absent.
func parseOptionalID(name, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// callerID returns the authenticated user, or a 401 when the request
// carries none.
func callerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, huma.Error401Unauthorized("authentication required")
	}
	return id, nil
}
