// Package product provides the Product catalog referenced by inventory and ledger rows.
package product

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
)

// Product is a stocked item.
type Product struct {
	ID        id.ID       `db:"id" json:"id"`
	OwnerID   string      `db:"user_id" json:"user_id"`
	Code      string      `db:"code" json:"code"`
	Name      string      `db:"name" json:"name"`
	Unit      string      `db:"unit" json:"unit"`
	BuyPrice  types.Money `db:"buy_price" json:"buy_price"`
	SellPrice types.Money `db:"sell_price" json:"sell_price"`
	SafeStock int64       `db:"safe_stock" json:"safe_stock"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// NewProduct creates a product owned by ownerID.
func NewProduct(ownerID, code, name, unit string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		OwnerID:   ownerID,
		Code:      strings.TrimSpace(code),
		Name:      strings.TrimSpace(name),
		Unit:      strings.TrimSpace(unit),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks required fields and price signs.
func (p *Product) Validate() error {
	if p.OwnerID == "" {
		return apperror.NewInvalidArgument("product owner is required")
	}
	if p.Code == "" {
		return apperror.NewInvalidArgument("code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewInvalidArgument("name is required").WithDetail("field", "name")
	}
	if p.BuyPrice.IsNegative() || p.SellPrice.IsNegative() {
		return apperror.NewInvalidArgument("prices must be non-negative")
	}
	if p.SafeStock < 0 {
		return apperror.NewInvalidArgument("safe_stock must be non-negative").WithDetail("field", "safe_stock")
	}
	return nil
}

// Repository persists products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, ownerID string, productID id.ID) (*Product, error)
	List(ctx context.Context, ownerID string, filter domain.ListFilter) ([]*Product, error)
}
