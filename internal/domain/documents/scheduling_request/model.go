// Package scheduling_request provides delivery scheduling requests.
// Approval assigns a DO-YYYYMMDD-NNNN delivery order number.
package scheduling_request

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

const entityName = "scheduling_request"

// Status of a scheduling request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// SchedulingRequest asks for a delivery on a date.
type SchedulingRequest struct {
	ID            id.ID     `db:"id" json:"id"`
	OwnerID       string    `db:"user_id" json:"user_id"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	Address       string    `db:"address" json:"address"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	Notes         string    `db:"notes" json:"notes"`
	Status        Status    `db:"status" json:"status"`

	DeliveryOrderNumber *string    `db:"delivery_order_number" json:"delivery_order_number,omitempty"`
	ApprovedAt          *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy          *string    `db:"approved_by" json:"approved_by,omitempty"`
	RejectedReason      *string    `db:"rejected_reason" json:"rejected_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewSchedulingRequest creates a pending request.
func NewSchedulingRequest(ownerID, customerName, address string, scheduledDate time.Time, notes string) *SchedulingRequest {
	now := time.Now().UTC()
	return &SchedulingRequest{
		ID:            id.New(),
		OwnerID:       ownerID,
		CustomerName:  strings.TrimSpace(customerName),
		Address:       strings.TrimSpace(address),
		ScheduledDate: scheduledDate,
		Notes:         strings.TrimSpace(notes),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks required fields.
func (r *SchedulingRequest) Validate() error {
	if r.OwnerID == "" {
		return apperror.NewInvalidArgument("scheduling request owner is required")
	}
	if r.CustomerName == "" {
		return apperror.NewInvalidArgument("customer_name is required").WithDetail("field", "customer_name")
	}
	if r.Address == "" {
		return apperror.NewInvalidArgument("address is required").WithDetail("field", "address")
	}
	if r.ScheduledDate.IsZero() {
		return apperror.NewInvalidArgument("scheduled_date is required").WithDetail("field", "scheduled_date")
	}
	return nil
}

func errNotPending(status Status, action string) error {
	return apperror.NewInvalidState(entityName, string(status), "only pending scheduling requests can be "+action)
}

// Approve assigns the delivery order number to a pending request.
func (r *SchedulingRequest) Approve(number, approvedBy string, now time.Time) error {
	if r.Status != StatusPending {
		return errNotPending(r.Status, "approved")
	}
	r.Status = StatusApproved
	r.DeliveryOrderNumber = &number
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject closes a pending request without a delivery.
func (r *SchedulingRequest) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return errNotPending(r.Status, "rejected")
	}
	reason = strings.TrimSpace(reason)
	r.Status = StatusRejected
	r.RejectedReason = &reason
	r.UpdatedAt = now
	return nil
}

// ListFilter for filtering scheduling requests.
type ListFilter struct {
	domain.ListFilter

	Status Status
}

// Repository persists scheduling requests.
type Repository interface {
	Create(ctx context.Context, req *SchedulingRequest) error
	GetByID(ctx context.Context, ownerID string, reqID id.ID) (*SchedulingRequest, error)
	GetForUpdate(ctx context.Context, ownerID string, reqID id.ID) (*SchedulingRequest, error)

	// Update writes mutable fields only while the stored status still equals from.
	// A duplicate delivery order number fails with DUPLICATE_ENTRY.
	Update(ctx context.Context, req *SchedulingRequest, from Status) error

	List(ctx context.Context, ownerID string, filter ListFilter) ([]*SchedulingRequest, error)
}
