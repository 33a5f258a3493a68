package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitSchemaGuardsQuantities(t *testing.T) {
	body, err := fs.ReadFile(files, "sql/000001_init.up.sql")
	require.NoError(t, err)
	schema := string(body)

	for _, want := range []string{
		"CONSTRAINT warehouse_inventories_key UNIQUE (user_id, product_id, warehouse_category)",
		"quantity           BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0)",
		"stock_ledger_direction_check",
		"invoices_user_id_number_key",
		"scheduling_requests_user_id_delivery_order_number_key",
		"PRIMARY KEY (user_id, key)",
	} {
		assert.Contains(t, schema, want)
	}
}
