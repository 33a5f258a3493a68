package invoice

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/registers/stock"
	"stockledger/pkg/logger"
)

// Service provides invoice creation and lookups.
type Service struct {
	repo      Repository
	products  stock.ProductLookup
	numerator numerator.Generator
	txManager tx.Manager
	attempts  int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for the number day and the default issue date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new invoice service.
// attempts bounds number generation retries; values below one use numerator.DefaultAttempts.
func NewService(repo Repository, products stock.ProductLookup, gen numerator.Generator, txManager tx.Manager, attempts int, opts ...Option) *Service {
	if attempts < 1 {
		attempts = numerator.DefaultAttempts
	}
	s := &Service{
		repo:      repo,
		products:  products,
		numerator: gen,
		txManager: txManager,
		attempts:  attempts,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput describes a new invoice.
type CreateInput struct {
	OwnerID      string
	CustomerName string
	// IssueDate defaults to today (UTC) when zero.
	IssueDate time.Time
	DueDate   *time.Time
	Notes     string
	Items     []ItemInput
}

// Create validates the invoice, computes line amounts and the total, and stores
// header and lines in one transaction. The number carries the creation day,
// not the issue date. A number collision is retried with a fresh number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	today := s.now().UTC()
	issue := in.IssueDate
	if issue.IsZero() {
		issue = today
	}
	y, m, d := issue.Date()
	issue = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	inv := NewInvoice(in.OwnerID, in.CustomerName, issue, in.DueDate, in.Notes)
	for _, it := range in.Items {
		inv.AddItem(it)
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[id.ID]struct{}, len(inv.Items))
	for _, it := range inv.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		if _, err := s.products.GetByID(ctx, in.OwnerID, it.ProductID); err != nil {
			return nil, err
		}
	}

	cfg := numerator.DefaultConfig(numerator.PrefixInvoice)
	err := numerator.WithRetry(ctx, s.attempts, func(ctx context.Context, _ int) error {
		number, err := s.numerator.Next(ctx, in.OwnerID, cfg, today)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv.Number = number

		return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, inv); err != nil {
				return err
			}
			if err := s.repo.SaveItems(ctx, inv.ID, inv.Items); err != nil {
				return fmt.Errorf("save items: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created", "id", inv.ID, "number", inv.Number, "total_amount", inv.TotalAmount.StringFixed(2))
	return inv, nil
}

// GetByID returns the owner's invoice with its lines.
func (s *Service) GetByID(ctx context.Context, ownerID string, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	inv.Items = items
	return inv, nil
}

// List returns the owner's invoice headers.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]*Invoice, error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, ownerID, filter)
}
