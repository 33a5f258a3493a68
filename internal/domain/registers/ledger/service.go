package ledger

import (
	"context"
	"fmt"

	"stockledger/internal/core/id"
)

// Service provides read access to the ledger and a validated append.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates entry and writes it.
// Callers run it in the same transaction as the inventory write it records.
func (s *Service) Append(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// List returns the owner's entries matching filter.
func (s *Service) List(ctx context.Context, ownerID string, filter Filter) ([]Entry, error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, ownerID, filter)
}

// Replay derives the quantity of productID in category from the ledger alone.
func (s *Service) Replay(ctx context.Context, ownerID string, productID id.ID, category string) (int64, error) {
	balances, err := s.repo.Balances(ctx, ownerID, &productID)
	if err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	for _, b := range balances {
		if b.Category == category {
			return b.Quantity, nil
		}
	}
	return 0, nil
}

// Balances sums the ledger per (product, category).
func (s *Service) Balances(ctx context.Context, ownerID string, productID *id.ID) ([]Balance, error) {
	return s.repo.Balances(ctx, ownerID, productID)
}
