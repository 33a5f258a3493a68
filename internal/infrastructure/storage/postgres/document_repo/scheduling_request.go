package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	sr "stockledger/internal/domain/documents/scheduling_request"
	"stockledger/internal/infrastructure/storage/postgres"
)

// SchedulingRequestRepo implements scheduling_request.Repository.
type SchedulingRequestRepo struct {
	*BaseDocumentRepo[sr.SchedulingRequest]
}

var _ sr.Repository = (*SchedulingRequestRepo)(nil)

// NewSchedulingRequestRepo creates a new scheduling request repository.
func NewSchedulingRequestRepo(txm *postgres.TxManager) *SchedulingRequestRepo {
	return &SchedulingRequestRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[sr.SchedulingRequest](txm, "scheduling_requests", "scheduling_request"),
	}
}

// Update saves req while its stored status equals from.
// A duplicate delivery order number fails with DUPLICATE_ENTRY.
func (r *SchedulingRequestRepo) Update(ctx context.Context, req *sr.SchedulingRequest, from sr.Status) error {
	return r.UpdateFromStatus(ctx, req, req.OwnerID, req.ID, string(from))
}

func (r *SchedulingRequestRepo) listQuery(ownerID string, f sr.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect(ownerID)
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	return page(q, f.ListFilter, "scheduled_date", "created_at")
}

// List returns the owner's requests by scheduled date.
func (r *SchedulingRequestRepo) List(ctx context.Context, ownerID string, f sr.ListFilter) ([]*sr.SchedulingRequest, error) {
	return r.selectAll(ctx, r.listQuery(ownerID, f))
}
