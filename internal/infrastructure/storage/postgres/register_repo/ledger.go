package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const ledgerTable = "stock_ledger"

var ledgerColumns = postgres.ExtractDBColumns[ledger.Entry]()

// LedgerRepo implements ledger.Repository. It only inserts and reads.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one entry.
func (r *LedgerRepo) Append(ctx context.Context, e *ledger.Entry) error {
	sql, args, err := r.builder.Insert(ledgerTable).
		SetMap(postgres.StructToMap(e)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapWriteError(err, "stock_ledger", "append ledger entry")
	}
	return nil
}

func (r *LedgerRepo) listQuery(ownerID string, f ledger.Filter) squirrel.SelectBuilder {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"user_id": ownerID})

	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.EventType != "" {
		q = q.Where(squirrel.Eq{"event_type": f.EventType})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"from_warehouse_category": f.Category},
			squirrel.Eq{"to_warehouse_category": f.Category},
		})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"event_date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"event_date": *f.ToDate})
	}

	q = q.OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// List returns entries newest first.
func (r *LedgerRepo) List(ctx context.Context, ownerID string, f ledger.Filter) ([]ledger.Entry, error) {
	sql, args, err := r.listQuery(ownerID, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entries := make([]ledger.Entry, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

// balancesSQL folds credits and debits into one signed sum per (product, category).
const balancesSQL = `
	SELECT product_id, warehouse_category, SUM(delta)::bigint AS quantity
	FROM (
		SELECT product_id, to_warehouse_category AS warehouse_category, quantity AS delta
		FROM stock_ledger
		WHERE user_id = $1 AND to_warehouse_category IS NOT NULL AND ($2::uuid IS NULL OR product_id = $2)
		UNION ALL
		SELECT product_id, from_warehouse_category, -quantity
		FROM stock_ledger
		WHERE user_id = $1 AND from_warehouse_category IS NOT NULL AND ($2::uuid IS NULL OR product_id = $2)
	) moves
	GROUP BY product_id, warehouse_category
	ORDER BY product_id, warehouse_category
`

// Balances sums the ledger per (product, category).
func (r *LedgerRepo) Balances(ctx context.Context, ownerID string, productID *id.ID) ([]ledger.Balance, error) {
	balances := make([]ledger.Balance, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, balancesSQL, ownerID, productID); err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	return balances, nil
}
