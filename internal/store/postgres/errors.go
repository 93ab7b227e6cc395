package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/okrs/internal/domain"
)

// mapError converts pgx errors to domain sentinels and prefixes op.
// Context cancellation and unknown errors pass through wrapped.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, domain.ErrConflict)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, domain.ErrNotFound)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, domain.ErrValidation)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return fmt.Errorf("%s: transaction conflict: %w", op, domain.ErrConflict)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
