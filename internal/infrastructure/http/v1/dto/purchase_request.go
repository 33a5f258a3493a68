package dto

import (
	pr "stockledger/internal/domain/documents/purchase_request"
)

// CreatePurchaseRequest opens a pending purchase request.
type CreatePurchaseRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	Notes     string `json:"notes" binding:"max=1000"`
}

// ToInput converts to the service input.
func (r CreatePurchaseRequest) ToInput(ownerID string) (pr.CreateInput, error) {
	productID, err := ParseID("product_id", r.ProductID)
	if err != nil {
		return pr.CreateInput{}, err
	}
	return pr.CreateInput{OwnerID: ownerID, ProductID: productID, Quantity: r.Quantity, Notes: r.Notes}, nil
}

// RejectRequest carries the rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// AttachDocumentRequest references the receipt document.
type AttachDocumentRequest struct {
	DocumentURL string `json:"document_url" binding:"required,url"`
}

// ClosePurchaseRequest records the counted receipt.
type ClosePurchaseRequest struct {
	RequestID        string `json:"request_id" binding:"required"`
	ReceivedQuantity int64  `json:"received_quantity" binding:"required,gt=0"`
	ReturnedQuantity int64  `json:"returned_quantity" binding:"gte=0"`
	DamagedQuantity  int64  `json:"damaged_quantity" binding:"gte=0"`
	TargetCategory   string `json:"target_warehouse_category" binding:"required,warehouse_category"`
	ReceivedNotes    string `json:"received_notes" binding:"max=1000"`
}

// ToInput converts to the service input.
func (r ClosePurchaseRequest) ToInput(ownerID string) (pr.CloseInput, error) {
	requestID, err := ParseID("request_id", r.RequestID)
	if err != nil {
		return pr.CloseInput{}, err
	}
	return pr.CloseInput{
		OwnerID:   ownerID,
		RequestID: requestID,
		Receipt: pr.Receipt{
			Received:       r.ReceivedQuantity,
			Returned:       r.ReturnedQuantity,
			Damaged:        r.DamagedQuantity,
			TargetCategory: r.TargetCategory,
			Notes:          r.ReceivedNotes,
		},
	}, nil
}

// PurchaseRequestListQuery filters purchase requests.
type PurchaseRequestListQuery struct {
	PageQuery

	Status    string `form:"status" binding:"omitempty,oneof=pending approved rejected waiting_for_receipt closed"`
	ProductID string `form:"product_id"`
}

// ToFilter converts to the domain filter.
func (q PurchaseRequestListQuery) ToFilter() (pr.ListFilter, error) {
	productID, err := ParseOptionalID("product_id", q.ProductID)
	if err != nil {
		return pr.ListFilter{}, err
	}
	return pr.ListFilter{ListFilter: q.ListFilter(), Status: pr.Status(q.Status), ProductID: productID}, nil
}
