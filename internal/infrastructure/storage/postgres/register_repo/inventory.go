// Package register_repo provides PostgreSQL implementations of the inventory
// and ledger registers.
package register_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/infrastructure/storage/postgres"
)

const inventoryTable = "warehouse_inventories"

var inventoryColumns = postgres.ExtractDBColumns[inventory.Inventory]()

// InventoryRepo implements inventory.Repository.
// Each write is one statement whose WHERE clause carries the precondition,
// so concurrent writers on a key serialize on the row lock.
type InventoryRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory repository.
func NewInventoryRepo(txm *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func keyEq(key inventory.Key) squirrel.Eq {
	return squirrel.Eq{
		"user_id":            key.OwnerID,
		"product_id":         key.ProductID,
		"warehouse_category": key.Category,
	}
}

// Get returns the row for key, or a zero-quantity row.
func (r *InventoryRepo) Get(ctx context.Context, key inventory.Key) (inventory.Inventory, error) {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(keyEq(key)).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return inventory.Inventory{}, fmt.Errorf("build query: %w", err)
	}

	var row inventory.Inventory
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return inventory.Inventory{OwnerID: key.OwnerID, ProductID: key.ProductID, Category: key.Category}, nil
		}
		return inventory.Inventory{}, fmt.Errorf("get inventory: %w", err)
	}
	return row, nil
}

func (r *InventoryRepo) listQuery(ownerID string, f inventory.Filter) squirrel.SelectBuilder {
	q := r.builder.Select(inventoryColumns...).
		From(inventoryTable).
		Where(squirrel.Eq{"user_id": ownerID})
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Eq{"warehouse_category": f.Category})
	}
	return q.OrderBy("product_id", "warehouse_category")
}

// List returns the owner's rows matching f.
func (r *InventoryRepo) List(ctx context.Context, ownerID string, f inventory.Filter) ([]inventory.Inventory, error) {
	sql, args, err := r.listQuery(ownerID, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := make([]inventory.Inventory, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return rows, nil
}

// Increment adds qty to key, creating the row when absent.
func (r *InventoryRepo) Increment(ctx context.Context, key inventory.Key, qty int64) (int64, error) {
	now := r.now()
	q := r.builder.Insert(inventoryTable).
		Columns("id", "user_id", "product_id", "warehouse_category", "quantity", "last_updated", "created_at").
		Values(id.New(), key.OwnerID, key.ProductID, key.Category, qty, now, now).
		Suffix(`ON CONFLICT (user_id, product_id, warehouse_category) DO UPDATE
			SET quantity = ` + inventoryTable + `.quantity + EXCLUDED.quantity,
			    last_updated = EXCLUDED.last_updated
			RETURNING quantity`)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert: %w", err)
	}

	var newQty int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&newQty); err != nil {
		return 0, postgres.MapWriteError(err, "inventory", "increment inventory")
	}
	return newQty, nil
}

// Decrement subtracts qty only while quantity >= qty.
func (r *InventoryRepo) Decrement(ctx context.Context, key inventory.Key, qty int64) (int64, error) {
	q := r.builder.Update(inventoryTable).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Set("last_updated", r.now()).
		Where(keyEq(key)).
		Where(squirrel.GtOrEq{"quantity": qty}).
		Suffix("RETURNING quantity")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var newQty int64
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&newQty)
	if errors.Is(err, pgx.ErrNoRows) {
		current, getErr := r.Get(ctx, key)
		if getErr != nil {
			return 0, getErr
		}
		return 0, apperror.NewInsufficientStock(key.ProductID.String(), key.Category, qty, current.Quantity)
	}
	if err != nil {
		return 0, postgres.MapWriteError(err, "inventory", "decrement inventory")
	}
	return newQty, nil
}

// CompareAndSet writes newQty only while the stored quantity equals expected.
func (r *InventoryRepo) CompareAndSet(ctx context.Context, key inventory.Key, expected, newQty int64) error {
	now := r.now()

	var sql string
	var args []any
	var err error
	if expected == 0 {
		// A missing row counts as zero, so insert and guard the conflict branch.
		sql, args, err = r.builder.Insert(inventoryTable).
			Columns("id", "user_id", "product_id", "warehouse_category", "quantity", "last_updated", "created_at").
			Values(id.New(), key.OwnerID, key.ProductID, key.Category, newQty, now, now).
			Suffix(`ON CONFLICT (user_id, product_id, warehouse_category) DO UPDATE
				SET quantity = EXCLUDED.quantity, last_updated = EXCLUDED.last_updated
				WHERE ` + inventoryTable + `.quantity = 0`).
			ToSql()
	} else {
		sql, args, err = r.builder.Update(inventoryTable).
			Set("quantity", newQty).
			Set("last_updated", now).
			Where(keyEq(key)).
			Where(squirrel.Eq{"quantity": expected}).
			ToSql()
	}
	if err != nil {
		return fmt.Errorf("build compare-and-set: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapWriteError(err, "inventory", "set inventory")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("inventory", fmt.Sprintf("%s/%s", key.ProductID, key.Category)).
			WithDetail("expected", expected)
	}
	return nil
}
