// Package document_repo provides PostgreSQL implementations for document repositories.
// Every query is scoped to the owning user.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/infrastructure/storage/postgres"
)

// immutableColumns are never written by UpdateFromStatus.
var immutableColumns = map[string]struct{}{
	"id":         {},
	"user_id":    {},
	"created_at": {},
}

// BaseDocumentRepo provides common operations for status-driven documents.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](txm *postgres.TxManager, tableName, entityName string) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new document. Unique violations surface as DUPLICATE_ENTRY.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity *T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapWriteError(err, r.entityName, "insert "+r.tableName)
	}
	return nil
}

// baseSelect creates a SELECT builder scoped to ownerID.
func (r *BaseDocumentRepo[T]) baseSelect(ownerID string) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"user_id": ownerID})
}

func (r *BaseDocumentRepo[T]) getOne(ctx context.Context, q squirrel.SelectBuilder, entityID id.ID) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entity := new(T)
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// GetByID retrieves the owner's document.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, ownerID string, entityID id.ID) (*T, error) {
	return r.getOne(ctx, r.baseSelect(ownerID).Where(squirrel.Eq{"id": entityID}), entityID)
}

// GetForUpdate retrieves the owner's document with a row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, ownerID string, entityID id.ID) (*T, error) {
	q := r.baseSelect(ownerID).
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, entityID)
}

// updateQuery writes every mutable column while the stored status equals from.
func (r *BaseDocumentRepo[T]) updateQuery(entity *T, ownerID string, entityID id.ID, from string) squirrel.UpdateBuilder {
	data := postgres.StructToMap(entity)
	set := make(map[string]any, len(data))
	for col, val := range data {
		if _, skip := immutableColumns[col]; skip {
			continue
		}
		set[col] = val
	}

	return r.Builder().
		Update(r.tableName).
		SetMap(set).
		Where(squirrel.Eq{"id": entityID, "user_id": ownerID, "status": from})
}

// UpdateFromStatus saves entity only while its stored status equals from.
// It fails with CONCURRENT_MODIFICATION when another writer moved it first.
func (r *BaseDocumentRepo[T]) UpdateFromStatus(ctx context.Context, entity *T, ownerID string, entityID id.ID, from string) error {
	sql, args, err := r.updateQuery(entity, ownerID, entityID, from).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapWriteError(err, r.entityName, "update "+r.tableName)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, entityID.String()).WithDetail("expected_status", from)
	}
	return nil
}

// page applies ordering and the pagination window.
func page(q squirrel.SelectBuilder, f domain.ListFilter, orderBy ...string) squirrel.SelectBuilder {
	q = q.OrderBy(orderBy...)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// selectAll runs q and scans every row.
func (r *BaseDocumentRepo[T]) selectAll(ctx context.Context, q squirrel.SelectBuilder) ([]*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]*T, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entityName, err)
	}
	return items, nil
}
