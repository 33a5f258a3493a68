// Package purchase_request provides purchase requests and their receipt into stock.
package purchase_request

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

const entityName = "purchase_request"

// Status is the lifecycle state of a purchase request.
type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusWaitingForReceipt Status = "waiting_for_receipt"
	StatusClosed            Status = "closed"
)

// PurchaseRequest is an internal request to acquire stock from a supplier.
type PurchaseRequest struct {
	ID        id.ID  `db:"id" json:"id"`
	OwnerID   string `db:"user_id" json:"user_id"`
	Code      string `db:"code" json:"code"`
	ProductID id.ID  `db:"product_id" json:"product_id"`
	Quantity  int64  `db:"quantity" json:"quantity"`
	Status    Status `db:"status" json:"status"`
	Notes     string `db:"notes" json:"notes"`

	DocumentURL *string `db:"document_url" json:"document_url,omitempty"`

	// Receipt fields, immutable once closed.
	ReceivedQuantity *int64     `db:"received_quantity" json:"received_quantity,omitempty"`
	ReturnedQuantity *int64     `db:"returned_quantity" json:"returned_quantity,omitempty"`
	DamagedQuantity  *int64     `db:"damaged_quantity" json:"damaged_quantity,omitempty"`
	TargetCategory   *string    `db:"target_warehouse_category" json:"target_warehouse_category,omitempty"`
	ReceivedNotes    *string    `db:"received_notes" json:"received_notes,omitempty"`
	ReceivedAt       *time.Time `db:"received_at" json:"received_at,omitempty"`

	ApprovedAt     *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	RejectedReason *string    `db:"rejected_reason" json:"rejected_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewPurchaseRequest creates a pending request.
func NewPurchaseRequest(ownerID string, productID id.ID, quantity int64, notes string) *PurchaseRequest {
	now := time.Now().UTC()
	return &PurchaseRequest{
		ID:        id.New(),
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    StatusPending,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the fields required at creation.
func (r *PurchaseRequest) Validate() error {
	if r.OwnerID == "" {
		return apperror.NewInvalidArgument("purchase request owner is required")
	}
	if id.IsNil(r.ProductID) {
		return apperror.NewInvalidArgument("product_id is required").WithDetail("field", "product_id")
	}
	if r.Quantity <= 0 {
		return apperror.NewInvalidArgument("quantity must be positive").WithDetail("field", "quantity")
	}
	return nil
}

func (r *PurchaseRequest) invalidState(action string) error {
	return apperror.NewInvalidState(entityName, string(r.Status),
		"purchase request cannot be "+action+" from status "+string(r.Status))
}

// Approve moves a pending request to approved.
func (r *PurchaseRequest) Approve(now time.Time) error {
	if r.Status != StatusPending {
		return r.invalidState("approved")
	}
	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject moves a pending request to rejected.
func (r *PurchaseRequest) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return r.invalidState("rejected")
	}
	reason = strings.TrimSpace(reason)
	r.Status = StatusRejected
	r.RejectedReason = &reason
	r.UpdatedAt = now
	return nil
}

// AttachDocument records the receipt document and starts waiting for the goods.
func (r *PurchaseRequest) AttachDocument(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return apperror.NewInvalidArgument("document_url is required").WithDetail("field", "document_url")
	}
	if r.Status != StatusApproved && r.Status != StatusWaitingForReceipt {
		return r.invalidState("given a document")
	}
	r.DocumentURL = &url
	r.Status = StatusWaitingForReceipt
	r.UpdatedAt = now
	return nil
}

// Receipt describes the goods counted when a request is closed.
type Receipt struct {
	Received       int64
	Returned       int64
	Damaged        int64
	TargetCategory string
	Notes          string
}

// Validate checks receipt quantities.
func (rc Receipt) Validate() error {
	if rc.Received <= 0 {
		return apperror.NewInvalidArgument("received_quantity must be positive").WithDetail("field", "received_quantity")
	}
	if rc.Returned < 0 {
		return apperror.NewInvalidArgument("returned_quantity must be non-negative").WithDetail("field", "returned_quantity")
	}
	if rc.Damaged < 0 {
		return apperror.NewInvalidArgument("damaged_quantity must be non-negative").WithDetail("field", "damaged_quantity")
	}
	return nil
}

// Close marks the request closed with receipt metadata.
// A closed request fails with INVALID_STATE, one without a document with MISSING_DOCUMENT.
func (r *PurchaseRequest) Close(rc Receipt, now time.Time) error {
	if r.Status == StatusClosed {
		return apperror.NewInvalidState(entityName, string(r.Status), "purchase request is already closed")
	}
	if r.DocumentURL == nil || *r.DocumentURL == "" {
		return apperror.NewMissingDocument(entityName, r.ID)
	}
	if r.Status != StatusApproved && r.Status != StatusWaitingForReceipt {
		return r.invalidState("closed")
	}

	notes := strings.TrimSpace(rc.Notes)
	category := rc.TargetCategory
	r.Status = StatusClosed
	r.ReceivedQuantity = &rc.Received
	r.ReturnedQuantity = &rc.Returned
	r.DamagedQuantity = &rc.Damaged
	r.TargetCategory = &category
	r.ReceivedNotes = &notes
	r.ReceivedAt = &now
	r.UpdatedAt = now
	return nil
}

// ListFilter for filtering purchase requests.
type ListFilter struct {
	domain.ListFilter

	Status    Status
	ProductID *id.ID
}

// Repository persists purchase requests.
type Repository interface {
	Create(ctx context.Context, req *PurchaseRequest) error
	GetByID(ctx context.Context, ownerID string, reqID id.ID) (*PurchaseRequest, error)

	// GetForUpdate reads the request and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, ownerID string, reqID id.ID) (*PurchaseRequest, error)

	// Update writes mutable fields only while the stored status still equals from.
	// It fails with CONCURRENT_MODIFICATION otherwise.
	Update(ctx context.Context, req *PurchaseRequest, from Status) error

	List(ctx context.Context, ownerID string, filter ListFilter) ([]*PurchaseRequest, error)
}
