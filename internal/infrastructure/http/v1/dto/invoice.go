package dto

import (
	"stockledger/internal/core/types"
	"stockledger/internal/domain/documents/invoice"
)

// InvoiceItemRequest is one requested line.
type InvoiceItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	// UnitPrice accepts a JSON number or a decimal string.
	UnitPrice types.Money `json:"unit_price"`
}

// CreateInvoiceRequest issues a new invoice.
type CreateInvoiceRequest struct {
	CustomerName string               `json:"customer_name" binding:"required,max=200"`
	IssueDate    string               `json:"issue_date"`
	DueDate      string               `json:"due_date"`
	Notes        string               `json:"notes" binding:"max=1000"`
	Items        []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput converts to the service input.
func (r CreateInvoiceRequest) ToInput(ownerID string) (invoice.CreateInput, error) {
	in := invoice.CreateInput{
		OwnerID:      ownerID,
		CustomerName: r.CustomerName,
		Notes:        r.Notes,
		Items:        make([]invoice.ItemInput, 0, len(r.Items)),
	}

	issue, err := ParseOptionalDate("issue_date", r.IssueDate)
	if err != nil {
		return in, err
	}
	if issue != nil {
		in.IssueDate = *issue
	}
	if in.DueDate, err = ParseOptionalDate("due_date", r.DueDate); err != nil {
		return in, err
	}

	for _, item := range r.Items {
		productID, err := ParseID("product_id", item.ProductID)
		if err != nil {
			return in, err
		}
		in.Items = append(in.Items, invoice.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return in, nil
}

// InvoiceListQuery filters invoices.
type InvoiceListQuery struct {
	PageQuery

	Status string `form:"status" binding:"omitempty,oneof=issued paid"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// ToFilter converts to the domain filter.
func (q InvoiceListQuery) ToFilter() (invoice.ListFilter, error) {
	from, err := ParseOptionalDate("from", q.From)
	if err != nil {
		return invoice.ListFilter{}, err
	}
	to, err := ParseOptionalDate("to", q.To)
	if err != nil {
		return invoice.ListFilter{}, err
	}
	return invoice.ListFilter{ListFilter: q.ListFilter(), Status: invoice.Status(q.Status), DateFrom: from, DateTo: to}, nil
}
