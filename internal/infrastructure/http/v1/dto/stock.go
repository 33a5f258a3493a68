package dto

import (
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/domain/registers/stock"
)

// TransactionRequest posts a single in, out or initial movement.
type TransactionRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	EventType string `json:"event_type" binding:"required,stock_event"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	Category  string `json:"warehouse_category" binding:"required,warehouse_category"`
	Notes     string `json:"notes" binding:"max=1000"`
	// EventDate is YYYY-MM-DD; missing or malformed means today.
	EventDate string `json:"event_date"`
}

// ToInput converts to the stock service input.
func (r TransactionRequest) ToInput(ownerID string) (stock.TransactionInput, error) {
	productID, err := ParseID("product_id", r.ProductID)
	if err != nil {
		return stock.TransactionInput{}, err
	}
	return stock.TransactionInput{
		OwnerID:   ownerID,
		ProductID: productID,
		EventType: ledger.EventType(r.EventType),
		Quantity:  r.Quantity,
		Category:  r.Category,
		Notes:     r.Notes,
		EventDate: LenientDate(r.EventDate),
	}, nil
}

// TransferRequest moves stock between two categories.
type TransferRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	FromCategory string `json:"from_warehouse_category" binding:"required,warehouse_category"`
	ToCategory   string `json:"to_warehouse_category" binding:"required,warehouse_category"`
	Quantity     int64  `json:"quantity" binding:"required,gt=0"`
	Notes        string `json:"notes" binding:"max=1000"`
	EventDate    string `json:"event_date"`
}

// ToInput converts to the stock service input.
func (r TransferRequest) ToInput(ownerID string) (stock.TransferInput, error) {
	productID, err := ParseID("product_id", r.ProductID)
	if err != nil {
		return stock.TransferInput{}, err
	}
	return stock.TransferInput{
		OwnerID:      ownerID,
		ProductID:    productID,
		FromCategory: r.FromCategory,
		ToCategory:   r.ToCategory,
		Quantity:     r.Quantity,
		Notes:        r.Notes,
		EventDate:    LenientDate(r.EventDate),
	}, nil
}

// AdjustmentRequest sets a category to a counted quantity.
type AdjustmentRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Category  string `json:"warehouse_category" binding:"required,warehouse_category"`
	Notes     string `json:"notes" binding:"max=1000"`
	EventDate string `json:"event_date"`

	// NewQuantity is a pointer so an explicit zero passes "required".
	NewQuantity *int64 `json:"new_quantity" binding:"required"`
}

// ToInput converts to the stock service input.
func (r AdjustmentRequest) ToInput(ownerID string) (stock.AdjustmentInput, error) {
	productID, err := ParseID("product_id", r.ProductID)
	if err != nil {
		return stock.AdjustmentInput{}, err
	}
	return stock.AdjustmentInput{
		OwnerID:     ownerID,
		ProductID:   productID,
		Category:    r.Category,
		NewQuantity: *r.NewQuantity,
		Notes:       r.Notes,
		EventDate:   LenientDate(r.EventDate),
	}, nil
}

// InventoryQuery filters inventory rows.
type InventoryQuery struct {
	ProductID string `form:"product_id"`
	Category  string `form:"warehouse_category" binding:"omitempty,warehouse_category"`
}

// ToFilter converts to the inventory filter.
func (q InventoryQuery) ToFilter() (inventory.Filter, error) {
	productID, err := ParseOptionalID("product_id", q.ProductID)
	if err != nil {
		return inventory.Filter{}, err
	}
	return inventory.Filter{ProductID: productID, Category: q.Category}, nil
}

// LedgerQuery filters ledger entries.
type LedgerQuery struct {
	PageQuery

	ProductID string `form:"product_id"`
	EventType string `form:"event_type" binding:"omitempty,oneof=in out initial adjustment transfer"`
	Category  string `form:"warehouse_category" binding:"omitempty,warehouse_category"`
	From      string `form:"from"`
	To        string `form:"to"`
}

// ToFilter converts to the ledger filter.
func (q LedgerQuery) ToFilter() (ledger.Filter, error) {
	productID, err := ParseOptionalID("product_id", q.ProductID)
	if err != nil {
		return ledger.Filter{}, err
	}
	from, err := ParseOptionalDate("from", q.From)
	if err != nil {
		return ledger.Filter{}, err
	}
	to, err := ParseOptionalDate("to", q.To)
	if err != nil {
		return ledger.Filter{}, err
	}
	return ledger.Filter{
		ListFilter: q.ListFilter(),
		ProductID:  productID,
		EventType:  ledger.EventType(q.EventType),
		Category:   q.Category,
		FromDate:   from,
		ToDate:     to,
	}, nil
}

// ReconcileQuery optionally narrows reconciliation to one product.
type ReconcileQuery struct {
	ProductID string `form:"product_id"`
}
