package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	pr "stockledger/internal/domain/documents/purchase_request"
	"stockledger/internal/infrastructure/storage/postgres"
)

// PurchaseRequestRepo implements purchase_request.Repository.
type PurchaseRequestRepo struct {
	*BaseDocumentRepo[pr.PurchaseRequest]
}

var _ pr.Repository = (*PurchaseRequestRepo)(nil)

// NewPurchaseRequestRepo creates a new purchase request repository.
func NewPurchaseRequestRepo(txm *postgres.TxManager) *PurchaseRequestRepo {
	return &PurchaseRequestRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[pr.PurchaseRequest](txm, "purchase_requests", "purchase_request"),
	}
}

// Update saves req while its stored status equals from.
func (r *PurchaseRequestRepo) Update(ctx context.Context, req *pr.PurchaseRequest, from pr.Status) error {
	return r.UpdateFromStatus(ctx, req, req.OwnerID, req.ID, string(from))
}

func (r *PurchaseRequestRepo) listQuery(ownerID string, f pr.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect(ownerID)
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	return page(q, f.ListFilter, "created_at DESC", "id DESC")
}

// List returns the owner's requests, newest first.
func (r *PurchaseRequestRepo) List(ctx context.Context, ownerID string, f pr.ListFilter) ([]*pr.PurchaseRequest, error) {
	return r.selectAll(ctx, r.listQuery(ownerID, f))
}
