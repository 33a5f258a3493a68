// Package ledger provides the append-only log of inventory-affecting events.
package ledger

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// EventType classifies a ledger entry.
type EventType string

const (
	EventIn         EventType = "in"
	EventOut        EventType = "out"
	EventInitial    EventType = "initial"
	EventAdjustment EventType = "adjustment"
	EventTransfer   EventType = "transfer"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventIn, EventOut, EventInitial, EventAdjustment, EventTransfer:
		return true
	}
	return false
}

// Entry is one immutable inventory-affecting event.
// Quantity is always a non-negative magnitude; direction is carried by
// FromCategory and ToCategory.
type Entry struct {
	ID            id.ID     `db:"id" json:"id"`
	OwnerID       string    `db:"user_id" json:"user_id"`
	ProductID     id.ID     `db:"product_id" json:"product_id"`
	EventType     EventType `db:"event_type" json:"event_type"`
	Quantity      int64     `db:"quantity" json:"quantity"`
	FromCategory  *string   `db:"from_warehouse_category" json:"from_warehouse_category"`
	ToCategory    *string   `db:"to_warehouse_category" json:"to_warehouse_category"`
	Notes         string    `db:"notes" json:"notes"`
	EventDate     time.Time `db:"event_date" json:"event_date"`
	ReferenceCode *string   `db:"reference_code" json:"reference_code,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func newEntry(ownerID string, productID id.ID, eventType EventType, qty int64, notes string, eventDate time.Time) *Entry {
	return &Entry{
		ID:        id.New(),
		OwnerID:   ownerID,
		ProductID: productID,
		EventType: eventType,
		Quantity:  qty,
		Notes:     notes,
		EventDate: eventDate,
		CreatedAt: time.Now().UTC(),
	}
}

// NewMovement builds an in, initial or out entry against category.
func NewMovement(ownerID string, productID id.ID, eventType EventType, category string, qty int64, notes string, eventDate time.Time) *Entry {
	e := newEntry(ownerID, productID, eventType, qty, notes, eventDate)
	if eventType == EventOut {
		e.FromCategory = &category
	} else {
		e.ToCategory = &category
	}
	return e
}

// NewTransfer builds a transfer entry moving qty from one category to another.
func NewTransfer(ownerID string, productID id.ID, from, to string, qty int64, notes string, eventDate time.Time) *Entry {
	e := newEntry(ownerID, productID, EventTransfer, qty, notes, eventDate)
	e.FromCategory = &from
	e.ToCategory = &to
	return e
}

// NewAdjustment builds an adjustment entry for a signed delta.
// A negative delta debits category, a positive one credits it.
func NewAdjustment(ownerID string, productID id.ID, category string, delta int64, notes string, eventDate time.Time) *Entry {
	qty := delta
	if qty < 0 {
		qty = -qty
	}
	e := newEntry(ownerID, productID, EventAdjustment, qty, notes, eventDate)
	if delta < 0 {
		e.FromCategory = &category
	} else {
		e.ToCategory = &category
	}
	return e
}

// WithReference stamps the identifying code of the document that caused the event.
func (e *Entry) WithReference(code string) *Entry {
	e.ReferenceCode = &code
	return e
}

// Validate enforces the source/destination shape of each event type.
func (e *Entry) Validate() error {
	if e.OwnerID == "" {
		return apperror.NewInvalidArgument("ledger entry owner is required")
	}
	if id.IsNil(e.ProductID) {
		return apperror.NewInvalidArgument("ledger entry product_id is required")
	}
	if e.Quantity < 0 {
		return apperror.NewInvalidArgument("ledger entry quantity must be non-negative").
			WithDetail("quantity", e.Quantity)
	}

	hasFrom := e.FromCategory != nil && *e.FromCategory != ""
	hasTo := e.ToCategory != nil && *e.ToCategory != ""

	var ok bool
	switch e.EventType {
	case EventIn, EventInitial:
		ok = hasTo && !hasFrom
	case EventOut:
		ok = hasFrom && !hasTo
	case EventTransfer:
		ok = hasFrom && hasTo && *e.FromCategory != *e.ToCategory
	case EventAdjustment:
		ok = hasFrom != hasTo
	default:
		return apperror.NewInvalidArgument(fmt.Sprintf("unknown event type %q", e.EventType))
	}
	if !ok {
		return apperror.NewInvalidArgument("ledger entry categories do not match event type").
			WithDetail("event_type", e.EventType)
	}
	return nil
}

// Delta returns the signed effect of e on category.
func (e *Entry) Delta(category string) int64 {
	var d int64
	if e.ToCategory != nil && *e.ToCategory == category {
		d += e.Quantity
	}
	if e.FromCategory != nil && *e.FromCategory == category {
		d -= e.Quantity
	}
	return d
}

// Replay folds entries into the quantity they imply for category.
func Replay(entries []Entry, category string) int64 {
	var total int64
	for i := range entries {
		total += entries[i].Delta(category)
	}
	return total
}

// Balance is the quantity implied by the ledger for one (product, category).
type Balance struct {
	ProductID id.ID  `db:"product_id" json:"product_id"`
	Category  string `db:"warehouse_category" json:"warehouse_category"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	domain.ListFilter

	ProductID *id.ID
	EventType EventType
	// Category matches either side of an entry.
	Category string
	FromDate *time.Time
	ToDate   *time.Time
}

// Repository stores ledger entries. Entries are never updated or deleted.
type Repository interface {
	// Append inserts one entry.
	Append(ctx context.Context, entry *Entry) error

	// List returns entries newest first.
	List(ctx context.Context, ownerID string, filter Filter) ([]Entry, error)

	// Balances sums the ledger per (product, category), optionally for one product.
	Balances(ctx context.Context, ownerID string, productID *id.ID) ([]Balance, error)
}
