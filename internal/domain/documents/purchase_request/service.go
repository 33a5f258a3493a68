package purchase_request

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/stock"
	"stockledger/pkg/logger"
)

// ProductLookup resolves the owner's product, failing with NOT_FOUND.
type ProductLookup = stock.ProductLookup

// StockReceiver credits received goods into inventory and the ledger.
type StockReceiver interface {
	Receive(ctx context.Context, in stock.ReceiveInput) (int64, error)
}

// Service provides the purchase request lifecycle.
type Service struct {
	repo       Repository
	products   ProductLookup
	stock      StockReceiver
	numerator  numerator.Generator
	txManager  tx.Manager
	categories *inventory.Categories
	attempts   int
	now        func() time.Time
}

// NewService creates a new purchase request service.
// attempts bounds code generation retries; values below one use numerator.DefaultAttempts.
func NewService(
	repo Repository,
	products ProductLookup,
	stockReceiver StockReceiver,
	gen numerator.Generator,
	txManager tx.Manager,
	categories *inventory.Categories,
	attempts int,
) *Service {
	if attempts < 1 {
		attempts = numerator.DefaultAttempts
	}
	return &Service{
		repo:       repo,
		products:   products,
		stock:      stockReceiver,
		numerator:  gen,
		txManager:  txManager,
		categories: categories,
		attempts:   attempts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a new purchase request.
type CreateInput struct {
	OwnerID   string
	ProductID id.ID
	Quantity  int64
	Notes     string
}

// Create stores a pending request with a PR-YYYYMMDD-NNNN code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseRequest, error) {
	req := NewPurchaseRequest(in.OwnerID, in.ProductID, in.Quantity, in.Notes)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, in.OwnerID, in.ProductID); err != nil {
		return nil, err
	}

	cfg := numerator.DefaultConfig(numerator.PrefixPurchaseRequest)
	err := numerator.WithRetry(ctx, s.attempts, func(ctx context.Context, _ int) error {
		code, err := s.numerator.Next(ctx, in.OwnerID, cfg, s.now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		req.Code = code
		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.repo.Create(ctx, req)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase request created", "id", req.ID, "code", req.Code)
	return req, nil
}

// GetByID returns the owner's request or NOT_FOUND.
func (s *Service) GetByID(ctx context.Context, ownerID string, reqID id.ID) (*PurchaseRequest, error) {
	return s.repo.GetByID(ctx, ownerID, reqID)
}

// List returns the owner's requests.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]*PurchaseRequest, error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, ownerID, filter)
}

// transition loads the request under lock, applies change and saves it.
func (s *Service) transition(ctx context.Context, ownerID string, reqID id.ID, change func(*PurchaseRequest) error) (*PurchaseRequest, error) {
	var req *PurchaseRequest
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, ownerID, reqID)
		if err != nil {
			return err
		}
		from := req.Status
		if err := change(req); err != nil {
			return err
		}
		return s.repo.Update(ctx, req, from)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Approve moves a pending request to approved.
func (s *Service) Approve(ctx context.Context, ownerID string, reqID id.ID) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, ownerID, reqID, func(r *PurchaseRequest) error {
		return r.Approve(s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "purchase request approved", "id", req.ID, "code", req.Code)
	return req, nil
}

// Reject moves a pending request to rejected.
func (s *Service) Reject(ctx context.Context, ownerID string, reqID id.ID, reason string) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, ownerID, reqID, func(r *PurchaseRequest) error {
		return r.Reject(reason, s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "purchase request rejected", "id", req.ID, "code", req.Code)
	return req, nil
}

// AttachDocument records the receipt document reference.
func (s *Service) AttachDocument(ctx context.Context, ownerID string, reqID id.ID, url string) (*PurchaseRequest, error) {
	req, err := s.transition(ctx, ownerID, reqID, func(r *PurchaseRequest) error {
		return r.AttachDocument(url, s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "purchase request document attached", "id", req.ID, "code", req.Code)
	return req, nil
}

// CloseInput finalizes a request with the counted receipt.
type CloseInput struct {
	OwnerID   string
	RequestID id.ID
	Receipt   Receipt
}

// CloseResult reports the credited category after closing.
type CloseResult struct {
	Request  *PurchaseRequest
	NewStock int64
}

// Close marks the request closed, appends an in entry referencing its code and
// credits the received quantity to the target category.
// All three writes share one transaction; any failure leaves the request open.
func (s *Service) Close(ctx context.Context, in CloseInput) (CloseResult, error) {
	var res CloseResult

	if id.IsNil(in.RequestID) {
		return res, apperror.NewInvalidArgument("request_id is required").WithDetail("field", "request_id")
	}
	if err := in.Receipt.Validate(); err != nil {
		return res, err
	}
	if err := s.categories.Validate("target_warehouse_category", in.Receipt.TargetCategory); err != nil {
		return res, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, in.OwnerID, in.RequestID)
		if err != nil {
			return err
		}

		from := req.Status
		now := s.now()
		if err := req.Close(in.Receipt, now); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, req, from); err != nil {
			return err
		}

		newQty, err := s.stock.Receive(ctx, stock.ReceiveInput{
			OwnerID:       in.OwnerID,
			ProductID:     req.ProductID,
			Category:      in.Receipt.TargetCategory,
			Quantity:      in.Receipt.Received,
			Notes:         "Received from purchase request " + req.Code,
			ReferenceCode: req.Code,
			EventDate:     now,
		})
		if err != nil {
			return err
		}

		res.Request = req
		res.NewStock = newQty
		return nil
	})
	if err != nil {
		return CloseResult{}, err
	}

	logger.Info(ctx, "purchase request closed",
		"id", res.Request.ID,
		"code", res.Request.Code,
		"received", in.Receipt.Received,
		"returned", in.Receipt.Returned,
		"damaged", in.Receipt.Damaged,
		"warehouse_category", in.Receipt.TargetCategory,
	)
	return res, nil
}
