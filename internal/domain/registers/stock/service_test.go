package stock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/testutil/memstore"
)

const owner = "user-1"

type fixture struct {
	store   *memstore.Store
	svc     *stock.Service
	product *product.Product
}

func newFixture(t *testing.T, opts ...stock.Option) *fixture {
	t.Helper()
	store := memstore.New()
	p := store.AddProduct(owner, "SKU-1", 10)
	svc := stock.NewService(
		store.Inventory(),
		ledger.NewService(store.Ledger()),
		store.Products(),
		store,
		inventory.DefaultCategories(),
		opts...,
	)
	return &fixture{store: store, svc: svc, product: p}
}

func (f *fixture) key(category string) inventory.Key {
	return inventory.Key{OwnerID: owner, ProductID: f.product.ID, Category: category}
}

func TestApplyTransaction_InCreditsInventoryAndLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ApplyTransaction(ctx, stock.TransactionInput{
		OwnerID:   owner,
		ProductID: f.product.ID,
		EventType: ledger.EventIn,
		Quantity:  50,
		Category:  inventory.CategoryReadyToSell,
		Notes:     "first delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50), res.NewStock)
	assert.Equal(t, int64(50), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EventIn, entries[0].EventType)
	assert.Equal(t, int64(50), entries[0].Quantity)
	require.NotNil(t, entries[0].ToCategory)
	assert.Equal(t, inventory.CategoryReadyToSell, *entries[0].ToCategory)
	assert.Nil(t, entries[0].FromCategory)
	assert.Equal(t, "first delivery", entries[0].Notes)
}

func TestApplyTransaction_InAddsToExisting(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryResearch), 7)

	for _, et := range []ledger.EventType{ledger.EventIn, ledger.EventInitial} {
		_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
			OwnerID: owner, ProductID: f.product.ID, EventType: et, Quantity: 3, Category: inventory.CategoryResearch,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(13), f.store.Quantity(f.key(inventory.CategoryResearch)))
	assert.Len(t, f.store.Entries(), 2)
}

func TestApplyTransaction_OutDebitsSource(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 50)

	res, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventOut, Quantity: 20, Category: inventory.CategoryReadyToSell,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), res.NewStock)

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].FromCategory)
	assert.Equal(t, inventory.CategoryReadyToSell, *entries[0].FromCategory)
	assert.Nil(t, entries[0].ToCategory)
}

func TestApplyTransaction_OutBeyondStockFails(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 50)

	_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventOut, Quantity: 60, Category: inventory.CategoryReadyToSell,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(60), appErr.Details["requested"])
	assert.Equal(t, int64(50), appErr.Details["available"])

	assert.Equal(t, int64(50), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Empty(t, f.store.Entries())
}

func TestApplyTransaction_OutWithoutRowFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventOut, Quantity: 1, Category: inventory.CategoryReturned,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.False(t, f.store.HasInventoryRow(f.key(inventory.CategoryReturned)))
}

func TestApplyTransaction_Validation(t *testing.T) {
	f := newFixture(t)
	base := stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventIn, Quantity: 1, Category: inventory.CategoryReadyToSell,
	}

	tests := []struct {
		name   string
		mutate func(*stock.TransactionInput)
		code   string
	}{
		{"zero quantity", func(in *stock.TransactionInput) { in.Quantity = 0 }, apperror.CodeInvalidArgument},
		{"negative quantity", func(in *stock.TransactionInput) { in.Quantity = -4 }, apperror.CodeInvalidArgument},
		{"adjustment is not a transaction", func(in *stock.TransactionInput) { in.EventType = ledger.EventAdjustment }, apperror.CodeInvalidArgument},
		{"unknown category", func(in *stock.TransactionInput) { in.Category = "gudang" }, apperror.CodeInvalidArgument},
		{"missing product id", func(in *stock.TransactionInput) { in.ProductID = id.ID{} }, apperror.CodeInvalidArgument},
		{"unknown product", func(in *stock.TransactionInput) { in.ProductID = id.New() }, apperror.CodeNotFound},
		{"other owner's product", func(in *stock.TransactionInput) { in.OwnerID = "user-2" }, apperror.CodeNotFound},
		{"anonymous", func(in *stock.TransactionInput) { in.OwnerID = "" }, apperror.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := f.svc.ApplyTransaction(context.Background(), in)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
	assert.Empty(t, f.store.Entries())
}

func TestApplyTransaction_DefaultsEventDateToToday(t *testing.T) {
	fixed := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)
	f := newFixture(t, stock.WithClock(func() time.Time { return fixed }))

	_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventIn, Quantity: 1, Category: inventory.CategoryReadyToSell,
	})
	require.NoError(t, err)

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), entries[0].EventDate)
}

func TestApplyTransaction_LedgerFailureRollsBackInventory(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 5)
	cause := errors.New("ledger unavailable")
	f.store.FailOn(memstore.OpLedgerAppend, cause, 1)

	_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventIn, Quantity: 10, Category: inventory.CategoryReadyToSell,
	})
	require.ErrorIs(t, err, cause)

	assert.Equal(t, int64(5), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Empty(t, f.store.Entries())
	assert.Equal(t, 1, f.store.Rollbacks())
}

func TestApplyTransaction_ConcurrentOutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
				OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventOut, Quantity: 1, Category: inventory.CategoryReadyToSell,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, int64(0), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Len(t, f.store.Entries(), 10)
}

func TestTransfer_ConservesTotal(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 40)
	f.store.SetQuantity(f.key(inventory.CategoryReturned), 2)

	res, err := f.svc.Transfer(context.Background(), stock.TransferInput{
		OwnerID:      owner,
		ProductID:    f.product.ID,
		FromCategory: inventory.CategoryReadyToSell,
		ToCategory:   inventory.CategoryReturned,
		Quantity:     15,
		Notes:        "customer return",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), res.FromStock)
	assert.Equal(t, int64(17), res.ToStock)
	assert.Equal(t, int64(42),
		f.store.Quantity(f.key(inventory.CategoryReadyToSell))+f.store.Quantity(f.key(inventory.CategoryReturned)))

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EventTransfer, entries[0].EventType)
	assert.Equal(t, int64(15), entries[0].Quantity)
	assert.Equal(t, inventory.CategoryReadyToSell, *entries[0].FromCategory)
	assert.Equal(t, inventory.CategoryReturned, *entries[0].ToCategory)
}

func TestTransfer_CreatesDestinationRow(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 5)

	res, err := f.svc.Transfer(context.Background(), stock.TransferInput{
		OwnerID: owner, ProductID: f.product.ID, FromCategory: inventory.CategoryReadyToSell, ToCategory: inventory.CategoryDamaged, Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.FromStock)
	assert.Equal(t, int64(5), res.ToStock)
	assert.True(t, f.store.HasInventoryRow(f.key(inventory.CategoryDamaged)))
}

func TestTransfer_SameCategoryFailsWithoutWrites(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 5)

	_, err := f.svc.Transfer(context.Background(), stock.TransferInput{
		OwnerID: owner, ProductID: f.product.ID, FromCategory: inventory.CategoryReadyToSell, ToCategory: inventory.CategoryReadyToSell, Quantity: 1,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument))
	assert.Equal(t, int64(5), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Empty(t, f.store.Entries())
	assert.Zero(t, f.store.Commits()+f.store.Rollbacks())
}

func TestTransfer_InsufficientSource(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 3)

	_, err := f.svc.Transfer(context.Background(), stock.TransferInput{
		OwnerID: owner, ProductID: f.product.ID, FromCategory: inventory.CategoryReadyToSell, ToCategory: inventory.CategoryResearch, Quantity: 4,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(3), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.False(t, f.store.HasInventoryRow(f.key(inventory.CategoryResearch)))
	assert.Empty(t, f.store.Entries())
}

func TestTransfer_CreditFailureRestoresSource(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 9)
	f.store.FailOn(memstore.OpInventoryIncrement, errors.New("disk full"), 1)

	_, err := f.svc.Transfer(context.Background(), stock.TransferInput{
		OwnerID: owner, ProductID: f.product.ID, FromCategory: inventory.CategoryReadyToSell, ToCategory: inventory.CategoryResearch, Quantity: 4,
	})
	require.Error(t, err)
	assert.Equal(t, int64(9), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Empty(t, f.store.Entries())
}

type recordingLocker struct {
	mu       sync.Mutex
	acquired [][]string
	released int
}

func (l *recordingLocker) Acquire(_ context.Context, keys ...string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired = append(l.acquired, append([]string(nil), keys...))
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

func TestTransfer_LocksBothKeysInSortedOrder(t *testing.T) {
	locker := &recordingLocker{}
	f := newFixture(t, stock.WithLocker(locker))
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 9)

	_, err := f.svc.Transfer(context.Background(), stock.TransferInput{
		OwnerID: owner, ProductID: f.product.ID, FromCategory: inventory.CategoryReadyToSell, ToCategory: inventory.CategoryDamaged, Quantity: 1,
	})
	require.NoError(t, err)

	require.Len(t, locker.acquired, 1)
	assert.Equal(t, []string{
		stock.LockKey(f.key(inventory.CategoryDamaged)),
		stock.LockKey(f.key(inventory.CategoryReadyToSell)),
	}, locker.acquired[0])
	assert.Equal(t, 1, locker.released)
}

type failingLocker struct{ err error }

func (l failingLocker) Acquire(context.Context, ...string) (func(), error) { return nil, l.err }

func TestLockFailureAbortsBeforeWriting(t *testing.T) {
	busy := apperror.NewConcurrentModification("inventory", "busy")
	f := newFixture(t, stock.WithLocker(failingLocker{err: busy}))

	_, err := f.svc.ApplyTransaction(context.Background(), stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventIn, Quantity: 1, Category: inventory.CategoryReadyToSell,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
	assert.Empty(t, f.store.Entries())
}

func TestAdjust_DownRecordsDebit(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 20)

	res, err := f.svc.Adjust(context.Background(), stock.AdjustmentInput{
		OwnerID: owner, ProductID: f.product.ID, Category: inventory.CategoryReadyToSell, NewQuantity: 15, Notes: "stock count",
	})
	require.NoError(t, err)

	assert.Equal(t, stock.AdjustmentResult{OldStock: 20, NewStock: 15, Changed: true}, res)
	assert.Equal(t, int64(15), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EventAdjustment, entries[0].EventType)
	assert.Equal(t, int64(5), entries[0].Quantity)
	require.NotNil(t, entries[0].FromCategory)
	assert.Equal(t, inventory.CategoryReadyToSell, *entries[0].FromCategory)
	assert.Nil(t, entries[0].ToCategory)
}

func TestAdjust_UpFromMissingRowRecordsCredit(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Adjust(context.Background(), stock.AdjustmentInput{
		OwnerID: owner, ProductID: f.product.ID, Category: inventory.CategoryResearch, NewQuantity: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.OldStock)
	assert.Equal(t, int64(8), res.NewStock)

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(8), entries[0].Quantity)
	require.NotNil(t, entries[0].ToCategory)
	assert.Nil(t, entries[0].FromCategory)
}

func TestAdjust_SameQuantityIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 12)

	res, err := f.svc.Adjust(context.Background(), stock.AdjustmentInput{
		OwnerID: owner, ProductID: f.product.ID, Category: inventory.CategoryReadyToSell, NewQuantity: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, stock.AdjustmentResult{OldStock: 12, NewStock: 12, Changed: false}, res)
	assert.Empty(t, f.store.Entries())
}

func TestAdjust_NegativeQuantityRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Adjust(context.Background(), stock.AdjustmentInput{
		OwnerID: owner, ProductID: f.product.ID, Category: inventory.CategoryReadyToSell, NewQuantity: -1,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument))
}

func TestAdjust_ConcurrentModificationSurfaces(t *testing.T) {
	f := newFixture(t)
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 20)
	f.store.FailOn(memstore.OpInventoryCAS, apperror.NewConcurrentModification("inventory", "k"), 1)

	_, err := f.svc.Adjust(context.Background(), stock.AdjustmentInput{
		OwnerID: owner, ProductID: f.product.ID, Category: inventory.CategoryReadyToSell, NewQuantity: 15,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
	assert.Equal(t, int64(20), f.store.Quantity(f.key(inventory.CategoryReadyToSell)))
	assert.Empty(t, f.store.Entries())
}

func TestReceive_RecordsReference(t *testing.T) {
	f := newFixture(t)

	qty, err := f.svc.Receive(context.Background(), stock.ReceiveInput{
		OwnerID:       owner,
		ProductID:     f.product.ID,
		Category:      inventory.CategoryReadyToSell,
		Quantity:      30,
		Notes:         "Received from purchase request PR-20261014-0001",
		ReferenceCode: "PR-20261014-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), qty)

	entries := f.store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EventIn, entries[0].EventType)
	require.NotNil(t, entries[0].ReferenceCode)
	assert.Equal(t, "PR-20261014-0001", *entries[0].ReferenceCode)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplyTransaction(ctx, stock.TransactionInput{
		OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventIn, Quantity: 10, Category: inventory.CategoryReadyToSell,
	})
	require.NoError(t, err)

	drift, err := f.svc.Reconcile(ctx, owner, nil)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// A row written around the ledger shows up as drift.
	f.store.SetQuantity(f.key(inventory.CategoryReadyToSell), 12)
	f.store.SetQuantity(f.key(inventory.CategoryDamaged), 1)

	drift, err = f.svc.Reconcile(ctx, owner, &f.product.ID)
	require.NoError(t, err)
	require.Len(t, drift, 2)

	byCategory := map[string]stock.Discrepancy{}
	for _, d := range drift {
		byCategory[d.Category] = d
	}
	assert.Equal(t, int64(2), byCategory[inventory.CategoryReadyToSell].Diff)
	assert.Equal(t, int64(10), byCategory[inventory.CategoryReadyToSell].Ledger)
	assert.Equal(t, int64(1), byCategory[inventory.CategoryDamaged].Inventory)
}

func TestLedger_FiltersAndOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, q := range []int64{1, 2, 3} {
		_, err := f.svc.ApplyTransaction(ctx, stock.TransactionInput{
			OwnerID: owner, ProductID: f.product.ID, EventType: ledger.EventIn, Quantity: q, Category: inventory.CategoryReadyToSell,
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Transfer(ctx, stock.TransferInput{
		OwnerID: owner, ProductID: f.product.ID, FromCategory: inventory.CategoryReadyToSell, ToCategory: inventory.CategoryResearch, Quantity: 2,
	})
	require.NoError(t, err)

	all, err := f.svc.Ledger(ctx, owner, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ledger.EventTransfer, all[0].EventType)

	ins, err := f.svc.Ledger(ctx, owner, ledger.Filter{EventType: ledger.EventIn})
	require.NoError(t, err)
	require.Len(t, ins, 3)
	assert.Equal(t, int64(3), ins[0].Quantity)

	research, err := f.svc.Ledger(ctx, owner, ledger.Filter{Category: inventory.CategoryResearch})
	require.NoError(t, err)
	assert.Len(t, research, 1)

	_, err = f.svc.Ledger(ctx, owner, ledger.Filter{EventType: "gift"})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument))

	replayed, err := ledger.NewService(f.store.Ledger()).Replay(ctx, owner, f.product.ID, inventory.CategoryReadyToSell)
	require.NoError(t, err)
	assert.Equal(t, f.store.Quantity(f.key(inventory.CategoryReadyToSell)), replayed)
}
