package purchase_request_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/domain/catalogs/product"
	pr "stockledger/internal/domain/documents/purchase_request"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/testutil/memstore"
)

const owner = "user-1"

var codePattern = regexp.MustCompile(`^PR-\d{8}-\d{4}$`)

type fixture struct {
	store   *memstore.Store
	svc     *pr.Service
	product *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	p := store.AddProduct(owner, "SKU-1", 0)
	categories := inventory.DefaultCategories()
	stockSvc := stock.NewService(store.Inventory(), ledger.NewService(store.Ledger()), store.Products(), store, categories)
	svc := pr.NewService(store.Purchases(), store.Products(), stockSvc, store.Numerator(), store, categories, numerator.DefaultAttempts)
	return &fixture{store: store, svc: svc, product: p}
}

func (f *fixture) key(category string) inventory.Key {
	return inventory.Key{OwnerID: owner, ProductID: f.product.ID, Category: category}
}

// waiting creates a request and walks it to waiting_for_receipt.
func (f *fixture) waiting(t *testing.T) *pr.PurchaseRequest {
	t.Helper()
	ctx := context.Background()
	req, err := f.svc.Create(ctx, pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 30})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, owner, req.ID)
	require.NoError(t, err)
	req, err = f.svc.AttachDocument(ctx, owner, req.ID, "https://files/receipt.pdf")
	require.NoError(t, err)
	return req
}

func TestCreate_AssignsSequentialCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 5, Notes: "urgent"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 6})
	require.NoError(t, err)

	assert.Regexp(t, codePattern, first.Code)
	assert.Equal(t, int64(1), numerator.ParseSequence(first.Code))
	assert.Equal(t, int64(2), numerator.ParseSequence(second.Code))
	assert.Equal(t, pr.StatusPending, first.Status)
	assert.Equal(t, "urgent", first.Notes)
}

func TestCreate_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), pr.CreateInput{OwnerID: owner, ProductID: id.New(), Quantity: 5})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_NumeratorFailure(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("counter table locked")
	f.store.FailOn(memstore.OpNumeratorNext, cause, 1)

	_, err := f.svc.Create(context.Background(), pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 5})
	assert.ErrorIs(t, err, cause)
}

func TestClose_CreditsStockWithReference(t *testing.T) {
	f := newFixture(t)
	req := f.waiting(t)

	res, err := f.svc.Close(context.Background(), pr.CloseInput{
		OwnerID:   owner,
		RequestID: req.ID,
		Receipt: pr.Receipt{
			Received:       28,
			Returned:       1,
			Damaged:        1,
			TargetCategory: inventory.CategoryReadyToSell,
			Notes:          "two units bad",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, pr.StatusClosed, res.Request.Status)
	assert.Equal(t, int64(28), res.NewStock)
	assert.Equal(t, int64(28), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EventIn, entries[0].EventType)
	assert.Equal(t, int64(28), entries[0].Quantity)
	require.NotNil(t, entries[0].ReferenceCode)
	assert.Equal(t, req.Code, *entries[0].ReferenceCode)
	assert.Equal(t, "Received from purchase request "+req.Code, entries[0].Notes)

	stored, err := f.svc.GetByID(context.Background(), owner, req.ID)
	require.NoError(t, err)
	assert.Equal(t, pr.StatusClosed, stored.Status)
	assert.Equal(t, int64(1), *stored.DamagedQuantity)
}

func TestClose_Twice(t *testing.T) {
	f := newFixture(t)
	req := f.waiting(t)
	in := pr.CloseInput{
		OwnerID:   owner,
		RequestID: req.ID,
		Receipt:   pr.Receipt{Received: 30, TargetCategory: inventory.CategoryReadyToSell},
	}

	_, err := f.svc.Close(context.Background(), in)
	require.NoError(t, err)

	_, err = f.svc.Close(context.Background(), in)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
	assert.Equal(t, int64(30), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Len(t, f.store.Entries(), 1)
}

func TestClose_MissingDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req, err := f.svc.Create(ctx, pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, owner, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, pr.CloseInput{
		OwnerID:   owner,
		RequestID: req.ID,
		Receipt:   pr.Receipt{Received: 3, TargetCategory: inventory.CategoryReadyToSell},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeMissingDocument))
	assert.Empty(t, f.store.Entries())
	assert.False(t, f.store.HasInventoryRow(f.key(inventory.CategoryReadyToSell)))
}

func TestClose_StockFailureLeavesRequestOpen(t *testing.T) {
	f := newFixture(t)
	req := f.waiting(t)
	f.store.FailOn(memstore.OpInventoryIncrement, errors.New("write failed"), 1)

	_, err := f.svc.Close(context.Background(), pr.CloseInput{
		OwnerID:   owner,
		RequestID: req.ID,
		Receipt:   pr.Receipt{Received: 30, TargetCategory: inventory.CategoryReturned},
	})
	require.Error(t, err)

	stored, err := f.svc.GetByID(context.Background(), owner, req.ID)
	require.NoError(t, err)
	assert.Equal(t, pr.StatusWaitingForReceipt, stored.Status)
	assert.Nil(t, stored.ReceivedQuantity)
	assert.Empty(t, f.store.Entries())
}

func TestClose_Validation(t *testing.T) {
	f := newFixture(t)
	req := f.waiting(t)

	tests := []struct {
		name string
		in   pr.CloseInput
	}{
		{"no request id", pr.CloseInput{OwnerID: owner, Receipt: pr.Receipt{Received: 1, TargetCategory: inventory.CategoryReadyToSell}}},
		{"zero received", pr.CloseInput{OwnerID: owner, RequestID: req.ID, Receipt: pr.Receipt{TargetCategory: inventory.CategoryReadyToSell}}},
		{"unknown category", pr.CloseInput{OwnerID: owner, RequestID: req.ID, Receipt: pr.Receipt{Received: 1, TargetCategory: "lost"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Close(context.Background(), tt.in)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument), "got %v", err)
		})
	}
}

func TestClose_OtherOwner(t *testing.T) {
	f := newFixture(t)
	req := f.waiting(t)

	_, err := f.svc.Close(context.Background(), pr.CloseInput{
		OwnerID:   "user-2",
		RequestID: req.ID,
		Receipt:   pr.Receipt{Received: 1, TargetCategory: inventory.CategoryReadyToSell},
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestRejectAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, pr.CreateInput{OwnerID: owner, ProductID: f.product.ID, Quantity: 2})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, owner, a.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, pr.StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate", *rejected.RejectedReason)

	_, err = f.svc.Approve(ctx, owner, a.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	pending, err := f.svc.List(ctx, owner, pr.ListFilter{Status: pr.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].Quantity)

	all, err := f.svc.List(ctx, owner, pr.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
