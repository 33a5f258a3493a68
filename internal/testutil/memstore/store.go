// Package memstore is an in-memory implementation of every repository and of
// tx.Manager, for service and handler tests. Transactions are serialized and a
// failed transaction restores the state it started from.
package memstore

import (
	"context"
	"sync"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/documents/invoice"
	pr "stockledger/internal/domain/documents/purchase_request"
	sr "stockledger/internal/domain/documents/scheduling_request"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
)

// Operation names accepted by FailOn.
const (
	OpInventoryIncrement = "inventory.increment"
	OpInventoryDecrement = "inventory.decrement"
	OpInventoryCAS       = "inventory.compare_and_set"
	OpLedgerAppend       = "ledger.append"
	OpPurchaseUpdate     = "purchase.update"
	OpInvoiceCreate      = "invoice.create"
	OpInvoiceSaveItems   = "invoice.save_items"
	OpScheduleUpdate     = "schedule.update"
	OpNumeratorNext      = "numerator.next"
)

type state struct {
	inventory map[inventory.Key]inventory.Inventory
	entries   []ledger.Entry
	products  map[id.ID]product.Product
	purchases map[id.ID]pr.PurchaseRequest
	invoices  map[id.ID]invoice.Invoice
	items     map[id.ID][]invoice.Item
	schedules map[id.ID]sr.SchedulingRequest
	counters  map[string]int64
	profiles  map[string]auth.Profile
}

func newState() state {
	return state{
		inventory: make(map[inventory.Key]inventory.Inventory),
		products:  make(map[id.ID]product.Product),
		purchases: make(map[id.ID]pr.PurchaseRequest),
		invoices:  make(map[id.ID]invoice.Invoice),
		items:     make(map[id.ID][]invoice.Item),
		schedules: make(map[id.ID]sr.SchedulingRequest),
		counters:  make(map[string]int64),
		profiles:  make(map[string]auth.Profile),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	items := make(map[id.ID][]invoice.Item, len(s.items))
	for k, v := range s.items {
		items[k] = append([]invoice.Item(nil), v...)
	}
	return state{
		inventory: cloneMap(s.inventory),
		entries:   append([]ledger.Entry(nil), s.entries...),
		products:  cloneMap(s.products),
		purchases: cloneMap(s.purchases),
		invoices:  cloneMap(s.invoices),
		items:     items,
		schedules: cloneMap(s.schedules),
		counters:  cloneMap(s.counters),
		profiles:  cloneMap(s.profiles),
	}
}

type fault struct {
	err   error
	times int
}

// Store holds all fake tables.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	st     state
	faults map[string]*fault

	commits   int
	rollbacks int
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState(), faults: make(map[string]*fault)}
}

// FailOn makes the next times calls of op return err.
func (s *Store) FailOn(op string, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{err: err, times: times}
}

// fault must be called with mu held.
func (s *Store) fault(op string) error {
	f, ok := s.faults[op]
	if !ok || f.times == 0 {
		return nil
	}
	f.times--
	return f.err
}

type txKey struct{}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		// Counter allocations commit on their own and survive the rollback.
		snapshot.counters = s.st.counters
		s.st = snapshot
		s.rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

// Commits returns how many top-level transactions committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns how many top-level transactions rolled back.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// AddProduct inserts a product for ownerID and returns it.
func (s *Store) AddProduct(ownerID, code string, safeStock int64) *product.Product {
	p := product.NewProduct(ownerID, code, "Product "+code, "pcs")
	p.SafeStock = safeStock
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = *p
	return p
}

// SetProfile stores a profile with role.
func (s *Store) SetProfile(userID string, role auth.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.profiles[userID] = auth.Profile{ID: userID, Role: role}
}

// SetQuantity writes an inventory row directly, bypassing the ledger.
func (s *Store) SetQuantity(key inventory.Key, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putInventory(key, qty)
}

// Quantity returns the stored quantity for key, zero when absent.
func (s *Store) Quantity(key inventory.Key) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.inventory[key].Quantity
}

// HasInventoryRow reports whether a row exists for key.
func (s *Store) HasInventoryRow(key inventory.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.inventory[key]
	return ok
}

// Entries returns all ledger entries in append order.
func (s *Store) Entries() []ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Entry(nil), s.st.entries...)
}

// putInventory must be called with mu held.
func (s *Store) putInventory(key inventory.Key, qty int64) {
	now := time.Now().UTC()
	row, ok := s.st.inventory[key]
	if !ok {
		row = inventory.Inventory{
			ID:        id.New(),
			OwnerID:   key.OwnerID,
			ProductID: key.ProductID,
			Category:  key.Category,
			CreatedAt: now,
		}
	}
	row.Quantity = qty
	row.LastUpdated = now
	s.st.inventory[key] = row
}
