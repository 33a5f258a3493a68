package document_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	pr "stockledger/internal/domain/documents/purchase_request"
	sr "stockledger/internal/domain/documents/scheduling_request"
)

func TestUpdateQuery_GuardsStatusAndSkipsImmutable(t *testing.T) {
	repo := NewPurchaseRequestRepo(nil)
	req := pr.NewPurchaseRequest("u1", id.New(), 4, "")

	sql, args, err := repo.updateQuery(req, "u1", req.ID, string(pr.StatusApproved)).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "UPDATE purchase_requests SET "), sql)
	assert.True(t, strings.HasSuffix(sql, " WHERE id = $16 AND status = $17 AND user_id = $18"), sql)

	set := sql[:strings.Index(sql, " WHERE ")]
	assert.NotContains(t, set, "created_at")
	assert.NotContains(t, set, "user_id")
	assert.NotContains(t, set, " id = ")
	assert.Contains(t, set, "document_url = ")
	assert.Equal(t, []any{req.ID.String(), "approved", "u1"}, args[len(args)-3:])
}

func TestPurchaseRequestListQuery(t *testing.T) {
	repo := NewPurchaseRequestRepo(nil)
	productID := id.New()
	cols := strings.Join(repo.selectCols, ", ")

	sql, args, err := repo.listQuery("u1", pr.ListFilter{
		ListFilter: domain.ListFilter{Limit: 10},
		Status:     pr.StatusPending,
		ProductID:  &productID,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+cols+" FROM purchase_requests WHERE user_id = $1 AND status = $2 AND product_id = $3"+
		" ORDER BY created_at DESC, id DESC LIMIT 10", sql)
	assert.Equal(t, []any{"u1", pr.StatusPending, productID.String()}, args)
}

func TestSchedulingRequestListQuery(t *testing.T) {
	repo := NewSchedulingRequestRepo(nil)
	cols := strings.Join(repo.selectCols, ", ")

	sql, args, err := repo.listQuery("u1", sr.ListFilter{Status: sr.StatusApproved}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+cols+" FROM scheduling_requests WHERE user_id = $1 AND status = $2"+
		" ORDER BY scheduled_date, created_at", sql)
	assert.Equal(t, []any{"u1", sr.StatusApproved}, args)
}

func TestInvoiceItemColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "invoice_id", "product_id", "quantity", "unit_price", "amount"}, invoiceItemColumns)

	repo := NewInvoiceRepo(nil)
	assert.NotContains(t, repo.selectCols, "items")
}
