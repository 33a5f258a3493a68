package product

import (
	"context"
	"fmt"
	"sort"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/pkg/logger"
)

// StockReader is the slice of the Inventory Store the catalog needs.
type StockReader interface {
	List(ctx context.Context, ownerID string, filter inventory.Filter) ([]inventory.Inventory, error)
}

// Service provides product lookups and stock reports.
type Service struct {
	repo  Repository
	stock StockReader
}

// NewService creates a new product service.
func NewService(repo Repository, stock StockReader) *Service {
	return &Service{repo: repo, stock: stock}
}

// Create validates and stores p.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	logger.Info(ctx, "product created", "product_id", p.ID, "code", p.Code)
	return nil
}

// GetByID returns the owner's product or NOT_FOUND.
func (s *Service) GetByID(ctx context.Context, ownerID string, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, ownerID, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, err
	}
	return p, nil
}

// List returns the owner's products.
func (s *Service) List(ctx context.Context, ownerID string, filter domain.ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, ownerID, filter.Normalize())
}

// LowStockItem is a product whose on-hand total is below its safe-stock level.
type LowStockItem struct {
	ProductID   id.ID       `json:"product_id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	SafeStock   int64       `json:"safe_stock"`
	OnHand      int64       `json:"on_hand"`
	Shortfall   int64       `json:"shortfall"`
	ReorderCost types.Money `json:"reorder_cost"`
}

// LowStock lists products whose quantity summed over all categories is below safe_stock.
// ReorderCost prices the shortfall at the buy price. Results are ordered by largest shortfall.
func (s *Service) LowStock(ctx context.Context, ownerID string) ([]LowStockItem, error) {
	products, err := s.repo.List(ctx, ownerID, domain.ListFilter{Limit: domain.MaxLimit})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	rows, err := s.stock.List(ctx, ownerID, inventory.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	onHand := make(map[id.ID]int64, len(rows))
	for _, r := range rows {
		onHand[r.ProductID] += r.Quantity
	}

	items := make([]LowStockItem, 0)
	for _, p := range products {
		qty := onHand[p.ID]
		if qty >= p.SafeStock {
			continue
		}
		shortfall := p.SafeStock - qty
		items = append(items, LowStockItem{
			ProductID:   p.ID,
			Code:        p.Code,
			Name:        p.Name,
			SafeStock:   p.SafeStock,
			OnHand:      qty,
			Shortfall:   shortfall,
			ReorderCost: types.LineAmount(shortfall, p.BuyPrice),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Shortfall > items[j].Shortfall
	})
	return items, nil
}
