package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/testutil/memstore"
)

const owner = "user-1"

func TestCreate(t *testing.T) {
	store := memstore.New()
	svc := product.NewService(store.Products(), store.Inventory())
	ctx := context.Background()

	p := product.NewProduct(owner, " SKU-9 ", "Kopi Bubuk", "pack")
	p.BuyPrice = types.MustMoney("8000")
	require.NoError(t, svc.Create(ctx, p))
	assert.Equal(t, "SKU-9", p.Code)

	dup := product.NewProduct(owner, "SKU-9", "Other", "pack")
	assert.True(t, apperror.IsDuplicate(svc.Create(ctx, dup)))

	bad := product.NewProduct(owner, "SKU-10", "Bad", "pack")
	bad.SellPrice = types.MustMoney("-1")
	assert.True(t, apperror.HasCode(svc.Create(ctx, bad), apperror.CodeInvalidArgument))

	got, err := svc.GetByID(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kopi Bubuk", got.Name)

	_, err = svc.GetByID(ctx, owner, id.New())
	assert.True(t, apperror.IsNotFound(err))

	list, err := svc.List(ctx, owner, domain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLowStock(t *testing.T) {
	store := memstore.New()
	svc := product.NewService(store.Products(), store.Inventory())
	ctx := context.Background()

	short := product.NewProduct(owner, "A", "Gula", "kg")
	short.SafeStock = 20
	short.BuyPrice = types.MustMoney("1500.50")
	require.NoError(t, svc.Create(ctx, short))

	shorter := product.NewProduct(owner, "B", "Teh", "box")
	shorter.SafeStock = 50
	require.NoError(t, svc.Create(ctx, shorter))

	fine := product.NewProduct(owner, "C", "Garam", "kg")
	fine.SafeStock = 5
	require.NoError(t, svc.Create(ctx, fine))

	// On-hand sums every category.
	store.SetQuantity(inventory.Key{OwnerID: owner, ProductID: short.ID, Category: inventory.CategoryReadyToSell}, 8)
	store.SetQuantity(inventory.Key{OwnerID: owner, ProductID: short.ID, Category: inventory.CategoryReturned}, 2)
	store.SetQuantity(inventory.Key{OwnerID: owner, ProductID: fine.ID, Category: inventory.CategoryReadyToSell}, 5)

	items, err := svc.LowStock(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "B", items[0].Code)
	assert.Equal(t, int64(50), items[0].Shortfall)
	assert.Equal(t, int64(0), items[0].OnHand)

	assert.Equal(t, "A", items[1].Code)
	assert.Equal(t, int64(10), items[1].OnHand)
	assert.Equal(t, int64(10), items[1].Shortfall)
	assert.True(t, types.MustMoney("15005").Equal(items[1].ReorderCost))

	none, err := svc.LowStock(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
