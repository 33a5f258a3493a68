package register_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/registers/inventory"
	"stockledger/internal/domain/registers/ledger"
)

func TestLedgerListQuery(t *testing.T) {
	repo := NewLedgerRepo(nil)
	productID := id.New()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	cols := strings.Join(ledgerColumns, ", ")

	tests := []struct {
		name     string
		filter   ledger.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "owner only",
			filter:   ledger.Filter{},
			wantSQL:  "SELECT " + cols + " FROM stock_ledger WHERE user_id = $1 ORDER BY created_at DESC, id DESC",
			wantArgs: []any{"u1"},
		},
		{
			name:   "category matches either side",
			filter: ledger.Filter{Category: "retur"},
			wantSQL: "SELECT " + cols + " FROM stock_ledger WHERE user_id = $1" +
				" AND (from_warehouse_category = $2 OR to_warehouse_category = $3)" +
				" ORDER BY created_at DESC, id DESC",
			wantArgs: []any{"u1", "retur", "retur"},
		},
		{
			name: "all filters with paging",
			filter: ledger.Filter{
				ListFilter: domain.ListFilter{Limit: 20, Offset: 40},
				ProductID:  &productID,
				EventType:  ledger.EventOut,
				FromDate:   &from,
				ToDate:     &to,
			},
			wantSQL: "SELECT " + cols + " FROM stock_ledger WHERE user_id = $1" +
				" AND product_id = $2 AND event_type = $3 AND event_date >= $4 AND event_date <= $5" +
				" ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 40",
			wantArgs: []any{"u1", productID.String(), ledger.EventOut, from, to},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery("u1", tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestInventoryListQuery(t *testing.T) {
	repo := NewInventoryRepo(nil)
	productID := id.New()
	cols := strings.Join(inventoryColumns, ", ")

	sql, args, err := repo.listQuery("u1", inventory.Filter{ProductID: &productID, Category: "siap_jual"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+cols+" FROM warehouse_inventories WHERE user_id = $1 AND product_id = $2 AND warehouse_category = $3"+
			" ORDER BY product_id, warehouse_category",
		sql)
	assert.Equal(t, []any{"u1", productID.String(), "siap_jual"}, args)
}

func TestColumnsMatchSchema(t *testing.T) {
	assert.Equal(t, []string{
		"id", "user_id", "product_id", "warehouse_category", "quantity", "last_updated", "created_at",
	}, inventoryColumns)
	assert.Contains(t, ledgerColumns, "reference_code")
	assert.Len(t, ledgerColumns, 11)
}
