package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents/invoice"
	"stockledger/internal/infrastructure/storage/postgres"
)

const invoiceItemsTable = "invoice_items"

var invoiceItemColumns = postgres.ExtractDBColumns[invoice.Item]()

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[invoice.Invoice]
	batch *postgres.BatchInserter
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[invoice.Invoice](txm, "invoices", "invoice"),
		batch:            postgres.NewBatchInserter(txm),
	}
}

// SaveItems writes invoice lines with COPY. It must run inside a transaction.
func (r *InvoiceRepo) SaveItems(ctx context.Context, invoiceID id.ID, items []invoice.Item) error {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, []any{it.ID, invoiceID, it.ProductID, it.Quantity, it.UnitPrice, it.Amount})
	}

	if _, err := r.batch.CopyFromSlice(ctx, invoiceItemsTable, invoiceItemColumns, rows); err != nil {
		return postgres.MapWriteError(err, "invoice_item", "copy invoice items")
	}
	return nil
}

// GetItems returns the lines of an invoice in insertion order.
func (r *InvoiceRepo) GetItems(ctx context.Context, invoiceID id.ID) ([]invoice.Item, error) {
	sql, args, err := r.Builder().
		Select(invoiceItemColumns...).
		From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]invoice.Item, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select invoice items: %w", err)
	}
	return items, nil
}

func (r *InvoiceRepo) listQuery(ownerID string, f invoice.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect(ownerID)
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": *f.DateTo})
	}
	return page(q, f.ListFilter, "issue_date DESC", "number DESC")
}

// List returns the owner's invoice headers, newest first.
func (r *InvoiceRepo) List(ctx context.Context, ownerID string, f invoice.ListFilter) ([]*invoice.Invoice, error) {
	return r.selectAll(ctx, r.listQuery(ownerID, f))
}
