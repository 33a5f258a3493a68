// Package invoice provides customer invoices numbered INV-YYYYMMDD-NNNN.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
)

// Status of an invoice.
type Status string

const (
	StatusIssued Status = "issued"
	StatusPaid   Status = "paid"
)

// Invoice is a customer invoice header with its lines.
type Invoice struct {
	ID           id.ID       `db:"id" json:"id"`
	OwnerID      string      `db:"user_id" json:"user_id"`
	Number       string      `db:"number" json:"number"`
	CustomerName string      `db:"customer_name" json:"customer_name"`
	IssueDate    time.Time   `db:"issue_date" json:"issue_date"`
	DueDate      *time.Time  `db:"due_date" json:"due_date,omitempty"`
	Notes        string      `db:"notes" json:"notes"`
	TotalAmount  types.Money `db:"total_amount" json:"total_amount"`
	Status       Status      `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`

	Items []Item `db:"-" json:"items"`
}

// Item is one invoice line.
type Item struct {
	ID        id.ID       `db:"id" json:"id"`
	InvoiceID id.ID       `db:"invoice_id" json:"invoice_id"`
	ProductID id.ID       `db:"product_id" json:"product_id"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unit_price"`
	Amount    types.Money `db:"amount" json:"amount"`
}

// ItemInput is a requested invoice line.
type ItemInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice types.Money
}

// NewInvoice creates an issued invoice without a number.
func NewInvoice(ownerID, customerName string, issueDate time.Time, dueDate *time.Time, notes string) *Invoice {
	return &Invoice{
		ID:           id.New(),
		OwnerID:      ownerID,
		CustomerName: strings.TrimSpace(customerName),
		IssueDate:    issueDate,
		DueDate:      dueDate,
		Notes:        strings.TrimSpace(notes),
		Status:       StatusIssued,
		CreatedAt:    time.Now().UTC(),
		Items:        make([]Item, 0),
	}
}

// AddItem appends a line and recalculates the total.
func (inv *Invoice) AddItem(in ItemInput) {
	inv.Items = append(inv.Items, Item{
		ID:        id.New(),
		InvoiceID: inv.ID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		Amount:    types.LineAmount(in.Quantity, in.UnitPrice),
	})
	inv.recalculateTotal()
}

func (inv *Invoice) recalculateTotal() {
	amounts := make([]types.Money, len(inv.Items))
	for i, it := range inv.Items {
		amounts[i] = it.Amount
	}
	inv.TotalAmount = types.Sum(amounts...)
}

// Validate checks the header and every line.
func (inv *Invoice) Validate() error {
	if inv.OwnerID == "" {
		return apperror.NewInvalidArgument("invoice owner is required")
	}
	if inv.CustomerName == "" {
		return apperror.NewInvalidArgument("customer_name is required").WithDetail("field", "customer_name")
	}
	if inv.IssueDate.IsZero() {
		return apperror.NewInvalidArgument("issue_date is required").WithDetail("field", "issue_date")
	}
	if inv.DueDate != nil && inv.DueDate.Before(inv.IssueDate) {
		return apperror.NewInvalidArgument("due_date must not be before issue_date").WithDetail("field", "due_date")
	}
	if len(inv.Items) == 0 {
		return apperror.NewInvalidArgument("invoice must have at least one item").WithDetail("field", "items")
	}
	for i, it := range inv.Items {
		field := fmt.Sprintf("items[%d]", i)
		if id.IsNil(it.ProductID) {
			return apperror.NewInvalidArgument(field+": product_id is required").WithDetail("field", field+".product_id")
		}
		if it.Quantity <= 0 {
			return apperror.NewInvalidArgument(field+": quantity must be positive").WithDetail("field", field+".quantity")
		}
		if it.UnitPrice.IsNegative() {
			return apperror.NewInvalidArgument(field+": unit_price must be non-negative").WithDetail("field", field+".unit_price")
		}
	}
	return nil
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	Status   Status
	DateFrom *time.Time
	DateTo   *time.Time
}

// Repository persists invoices.
type Repository interface {
	// Create stores the header. Duplicate numbers fail with DUPLICATE_ENTRY.
	Create(ctx context.Context, inv *Invoice) error
	SaveItems(ctx context.Context, invoiceID id.ID, items []Item) error

	GetByID(ctx context.Context, ownerID string, invoiceID id.ID) (*Invoice, error)
	GetItems(ctx context.Context, invoiceID id.ID) ([]Item, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]*Invoice, error)
}
