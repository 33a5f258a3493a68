package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// MapWriteError translates constraint violations into AppErrors.
// Other errors are wrapped with op and returned unchanged otherwise.
func MapWriteError(err error, entity, op string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return apperror.NewDuplicate(entity, pgErr.ConstraintName).WithCause(err)
		case foreignKeyViolation:
			return apperror.NewNotFound(entity, pgErr.ConstraintName).WithCause(err)
		case checkViolation:
			return apperror.NewInvalidArgument(fmt.Sprintf("%s violates constraint %s", entity, pgErr.ConstraintName)).WithCause(err)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
