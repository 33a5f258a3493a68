package postgres

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/apperror"
)

func TestMapWriteError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, MapWriteError(nil, "invoice", "insert invoice"))
	})

	t.Run("unique violation becomes duplicate", func(t *testing.T) {
		err := MapWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "invoices_user_id_number_key"}, "invoice", "insert invoice")
		assert.True(t, apperror.IsDuplicate(err))
		assert.Equal(t, http.StatusConflict, apperror.GetHTTPStatus(err))
	})

	t.Run("check violation becomes invalid argument", func(t *testing.T) {
		err := MapWriteError(&pgconn.PgError{Code: "23514", ConstraintName: "warehouse_inventories_quantity_check"}, "inventory", "update inventory")
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument))
	})

	t.Run("foreign key violation becomes not found", func(t *testing.T) {
		err := MapWriteError(&pgconn.PgError{Code: "23503"}, "product", "insert ledger")
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := MapWriteError(cause, "invoice", "insert invoice")
		assert.ErrorIs(t, err, cause)
		assert.False(t, apperror.IsAppError(err))
		assert.Contains(t, err.Error(), "insert invoice")
	})
}
