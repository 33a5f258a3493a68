// Package inventory provides the on-hand quantity register keyed by
// (owner, product, warehouse category).
package inventory

import (
	"context"
	"time"

	"stockledger/internal/core/id"
)

// Key addresses one inventory row.
type Key struct {
	OwnerID   string
	ProductID id.ID
	Category  string
}

// Inventory is the current quantity of one product in one warehouse category.
type Inventory struct {
	ID          id.ID     `db:"id" json:"id"`
	OwnerID     string    `db:"user_id" json:"user_id"`
	ProductID   id.ID     `db:"product_id" json:"product_id"`
	Category    string    `db:"warehouse_category" json:"warehouse_category"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Key returns the row's address.
func (i Inventory) Key() Key {
	return Key{OwnerID: i.OwnerID, ProductID: i.ProductID, Category: i.Category}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	ProductID *id.ID
	Category  string
}

// Repository is the Inventory Store.
// Every write is a single conditional statement, so concurrent writers on the
// same key never lose updates.
type Repository interface {
	// Get returns the row for key, or a zero-quantity row when none exists.
	Get(ctx context.Context, key Key) (Inventory, error)

	// List returns the owner's rows matching filter.
	List(ctx context.Context, ownerID string, filter Filter) ([]Inventory, error)

	// Increment adds qty, creating the row when absent, and returns the new quantity.
	Increment(ctx context.Context, key Key, qty int64) (int64, error)

	// Decrement subtracts qty only if enough stock is on hand and returns the new quantity.
	// It fails with INSUFFICIENT_STOCK otherwise and writes nothing.
	Decrement(ctx context.Context, key Key, qty int64) (int64, error)

	// CompareAndSet writes newQty only if the stored quantity still equals expected.
	// A missing row counts as expected == 0. It fails with CONCURRENT_MODIFICATION on mismatch.
	CompareAndSet(ctx context.Context, key Key, expected, newQty int64) error
}
