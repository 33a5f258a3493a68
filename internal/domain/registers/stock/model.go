// Package stock applies inventory movements: single transactions, transfers
// between categories, adjustments to a counted quantity and purchase receipts.
// Each operation writes the Inventory Store and the Stock Ledger in one transaction.
package stock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
)

// ProductLookup resolves the owner's product, failing with NOT_FOUND.
type ProductLookup interface {
	GetByID(ctx context.Context, ownerID string, productID id.ID) (*product.Product, error)
}

// Locker serializes work on inventory keys across service instances.
// Implementations acquire keys in the given order and release them in reverse.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// NoopLocker is used when no distributed lock backend is configured.
type NoopLocker struct{}

// Acquire implements Locker.
func (NoopLocker) Acquire(context.Context, ...string) (func(), error) {
	return func() {}, nil
}

// LockKey is the lock name for one inventory key.
func LockKey(k inventory.Key) string {
	return fmt.Sprintf("stock:%s:%s:%s", k.OwnerID, k.ProductID, k.Category)
}

func lockKeys(keys ...inventory.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = LockKey(k)
	}
	sort.Strings(out)
	return out
}

// TransactionInput is a single in, out or initial movement.
type TransactionInput struct {
	OwnerID   string
	ProductID id.ID
	EventType ledger.EventType
	Quantity  int64
	Category  string
	Notes     string
	// EventDate defaults to today (UTC) when zero.
	EventDate time.Time
}

// TransactionResult reports the quantity after the movement.
type TransactionResult struct {
	NewStock int64 `json:"new_stock"`
}

// TransferInput moves quantity between two categories of one product.
type TransferInput struct {
	OwnerID      string
	ProductID    id.ID
	FromCategory string
	ToCategory   string
	Quantity     int64
	Notes        string
	EventDate    time.Time
}

// TransferResult reports both sides after the transfer.
type TransferResult struct {
	FromStock int64 `json:"from_stock"`
	ToStock   int64 `json:"to_stock"`
}

// AdjustmentInput sets a category to an authoritative counted quantity.
type AdjustmentInput struct {
	OwnerID     string
	ProductID   id.ID
	Category    string
	NewQuantity int64
	Notes       string
	EventDate   time.Time
}

// AdjustmentResult reports the quantities before and after.
// Changed is false when the count matched and nothing was written.
type AdjustmentResult struct {
	OldStock int64 `json:"old_stock"`
	NewStock int64 `json:"new_stock"`
	Changed  bool  `json:"changed"`
}

// ReceiveInput credits goods received against a source document.
type ReceiveInput struct {
	OwnerID       string
	ProductID     id.ID
	Category      string
	Quantity      int64
	Notes         string
	ReferenceCode string
	EventDate     time.Time
}

// Discrepancy is a (product, category) whose stored quantity differs from the ledger.
type Discrepancy struct {
	ProductID id.ID  `json:"product_id"`
	Category  string `json:"warehouse_category"`
	Inventory int64  `json:"inventory_quantity"`
	Ledger    int64  `json:"ledger_quantity"`
	Diff      int64  `json:"difference"`
}
