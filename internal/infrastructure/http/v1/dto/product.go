package dto

import (
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/product"
)

// CreateProductRequest adds a product to the caller's catalog.
type CreateProductRequest struct {
	Code      string      `json:"code" binding:"required,max=64"`
	Name      string      `json:"name" binding:"required,max=200"`
	Unit      string      `json:"unit" binding:"max=32"`
	BuyPrice  types.Money `json:"buy_price"`
	SellPrice types.Money `json:"sell_price"`
	SafeStock int64       `json:"safe_stock" binding:"gte=0"`
}

// ToProduct builds the domain entity.
func (r CreateProductRequest) ToProduct(ownerID string) *product.Product {
	p := product.NewProduct(ownerID, r.Code, r.Name, r.Unit)
	p.BuyPrice = r.BuyPrice
	p.SellPrice = r.SellPrice
	p.SafeStock = r.SafeStock
	return p
}
