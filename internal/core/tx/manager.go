// Package tx defines the unit-of-work contract used by domain services.
// The postgres implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a function as one atomic unit.
//
// Inventory mutations and their ledger entries are always written through the
// same RunInTransaction call, so either both persist or neither does.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// A non-nil error from fn rolls the transaction back.
	// Nested calls join the transaction already carried by ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
