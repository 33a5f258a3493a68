package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
)

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct{ s *Store }

var _ inventory.Repository = (*InventoryRepo)(nil)

// Inventory returns the Inventory Store view.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

func (r *InventoryRepo) Get(_ context.Context, key inventory.Key) (inventory.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.st.inventory[key]; ok {
		return row, nil
	}
	return inventory.Inventory{OwnerID: key.OwnerID, ProductID: key.ProductID, Category: key.Category}, nil
}

func (r *InventoryRepo) List(_ context.Context, ownerID string, f inventory.Filter) ([]inventory.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]inventory.Inventory, 0)
	for _, row := range r.s.st.inventory {
		if row.OwnerID != ownerID {
			continue
		}
		if f.ProductID != nil && row.ProductID != *f.ProductID {
			continue
		}
		if f.Category != "" && row.Category != f.Category {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID.String() < out[j].ProductID.String()
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *InventoryRepo) Increment(_ context.Context, key inventory.Key, qty int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpInventoryIncrement); err != nil {
		return 0, err
	}
	newQty := r.s.st.inventory[key].Quantity + qty
	r.s.putInventory(key, newQty)
	return newQty, nil
}

func (r *InventoryRepo) Decrement(_ context.Context, key inventory.Key, qty int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpInventoryDecrement); err != nil {
		return 0, err
	}
	row, ok := r.s.st.inventory[key]
	if !ok || row.Quantity < qty {
		return 0, apperror.NewInsufficientStock(key.ProductID.String(), key.Category, qty, row.Quantity)
	}
	r.s.putInventory(key, row.Quantity-qty)
	return row.Quantity - qty, nil
}

func (r *InventoryRepo) CompareAndSet(_ context.Context, key inventory.Key, expected, newQty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpInventoryCAS); err != nil {
		return err
	}
	if r.s.st.inventory[key].Quantity != expected {
		return apperror.NewConcurrentModification("inventory", fmt.Sprintf("%s/%s", key.ProductID, key.Category))
	}
	r.s.putInventory(key, newQty)
	return nil
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct{ s *Store }

var _ ledger.Repository = (*LedgerRepo)(nil)

// Ledger returns the Stock Ledger view.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }

func (r *LedgerRepo) Append(_ context.Context, e *ledger.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpLedgerAppend); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.s.st.entries = append(r.s.st.entries, *e)
	return nil
}

func matchesCategory(e ledger.Entry, category string) bool {
	return (e.FromCategory != nil && *e.FromCategory == category) ||
		(e.ToCategory != nil && *e.ToCategory == category)
}

func (r *LedgerRepo) List(_ context.Context, ownerID string, f ledger.Filter) ([]ledger.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]ledger.Entry, 0)
	// Newest first: walk append order backwards.
	for i := len(r.s.st.entries) - 1; i >= 0; i-- {
		e := r.s.st.entries[i]
		if e.OwnerID != ownerID {
			continue
		}
		if f.ProductID != nil && e.ProductID != *f.ProductID {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		if f.Category != "" && !matchesCategory(e, f.Category) {
			continue
		}
		if f.FromDate != nil && e.EventDate.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && e.EventDate.After(*f.ToDate) {
			continue
		}
		out = append(out, e)
	}

	if f.Offset >= len(out) {
		return []ledger.Entry{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *LedgerRepo) Balances(_ context.Context, ownerID string, productID *id.ID) ([]ledger.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type key struct {
		product  id.ID
		category string
	}
	sums := make(map[key]int64)
	var order []key
	add := func(k key, d int64) {
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += d
	}
	for _, e := range r.s.st.entries {
		if e.OwnerID != ownerID || (productID != nil && e.ProductID != *productID) {
			continue
		}
		if e.ToCategory != nil {
			add(key{e.ProductID, *e.ToCategory}, e.Quantity)
		}
		if e.FromCategory != nil {
			add(key{e.ProductID, *e.FromCategory}, -e.Quantity)
		}
	}

	out := make([]ledger.Balance, 0, len(order))
	for _, k := range order {
		out = append(out, ledger.Balance{ProductID: k.product, Category: k.category, Quantity: sums[k]})
	}
	return out, nil
}
