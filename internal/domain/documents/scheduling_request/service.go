package scheduling_request

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Service provides the scheduling request lifecycle.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	attempts  int
	now       func() time.Time
}

// NewService creates a new scheduling request service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager, attempts int) *Service {
	if attempts < 1 {
		attempts = numerator.DefaultAttempts
	}
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
		attempts:  attempts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a new scheduling request.
type CreateInput struct {
	OwnerID       string
	CustomerName  string
	Address       string
	ScheduledDate time.Time
	Notes         string
}

// Create stores a pending request.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SchedulingRequest, error) {
	req := NewSchedulingRequest(in.OwnerID, in.CustomerName, in.Address, in.ScheduledDate, in.Notes)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	logger.Info(ctx, "scheduling request created", "id", req.ID)
	return req, nil
}

// GetByID returns the owner's request or NOT_FOUND.
func (s *Service) GetByID(ctx context.Context, ownerID string, reqID id.ID) (*SchedulingRequest, error) {
	return s.repo.GetByID(ctx, ownerID, reqID)
}

// List returns the owner's requests.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]*SchedulingRequest, error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, ownerID, filter)
}

// Approve assigns a delivery order number to a pending request.
// A number collision is retried with a fresh number.
func (s *Service) Approve(ctx context.Context, ownerID string, reqID id.ID, approvedBy string) (*SchedulingRequest, error) {
	cfg := numerator.DefaultConfig(numerator.PrefixDeliveryOrder)

	var req *SchedulingRequest
	err := numerator.WithRetry(ctx, s.attempts, func(ctx context.Context, _ int) error {
		current, err := s.repo.GetByID(ctx, ownerID, reqID)
		if err != nil {
			return err
		}
		// Checked before drawing a number so a non-pending request burns none.
		if current.Status != StatusPending {
			return errNotPending(current.Status, "approved")
		}

		now := s.now()
		number, err := s.numerator.Next(ctx, ownerID, cfg, now)
		if err != nil {
			return fmt.Errorf("generate delivery order number: %w", err)
		}

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			req, err = s.repo.GetForUpdate(ctx, ownerID, reqID)
			if err != nil {
				return err
			}
			if err := req.Approve(number, approvedBy, now); err != nil {
				return err
			}
			return s.repo.Update(ctx, req, StatusPending)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "scheduling request approved", "id", req.ID, "delivery_order_number", *req.DeliveryOrderNumber)
	return req, nil
}

// Reject rejects a pending request.
func (s *Service) Reject(ctx context.Context, ownerID string, reqID id.ID, reason string) (*SchedulingRequest, error) {
	var req *SchedulingRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, ownerID, reqID)
		if err != nil {
			return err
		}
		if err := req.Reject(reason, s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, req, StatusPending)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "scheduling request rejected", "id", req.ID)
	return req, nil
}
