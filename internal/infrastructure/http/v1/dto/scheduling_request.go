package dto

import (
	sr "stockledger/internal/domain/documents/scheduling_request"
)

// CreateSchedulingRequest asks for a delivery slot.
type CreateSchedulingRequest struct {
	CustomerName  string `json:"customer_name" binding:"required,max=200"`
	Address       string `json:"address" binding:"required,max=500"`
	ScheduledDate string `json:"scheduled_date" binding:"required"`
	Notes         string `json:"notes" binding:"max=1000"`
}

// ToInput converts to the service input.
func (r CreateSchedulingRequest) ToInput(ownerID string) (sr.CreateInput, error) {
	date, err := ParseDate("scheduled_date", r.ScheduledDate)
	if err != nil {
		return sr.CreateInput{}, err
	}
	return sr.CreateInput{
		OwnerID:       ownerID,
		CustomerName:  r.CustomerName,
		Address:       r.Address,
		ScheduledDate: date,
		Notes:         r.Notes,
	}, nil
}

// SchedulingRequestListQuery filters scheduling requests.
type SchedulingRequestListQuery struct {
	PageQuery

	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ToFilter converts to the domain filter.
func (q SchedulingRequestListQuery) ToFilter() sr.ListFilter {
	return sr.ListFilter{ListFilter: q.ListFilter(), Status: sr.Status(q.Status)}
}
