package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type sampleRow struct {
	ID       string `db:"id"`
	OwnerID  string `db:"user_id"`
	Quantity int64  `db:"quantity"`
	Lines    []int  `db:"-"`
	scratch  string
	stamps
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRow]()
	assert.Equal(t, []string{"id", "user_id", "quantity", "created_at", "updated_at"}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	row := sampleRow{ID: "a", OwnerID: "u1", Quantity: 7, Lines: []int{1}, scratch: "x", stamps: stamps{CreatedAt: now}}

	m := StructToMap(&row)

	assert.Len(t, m, 5)
	assert.Equal(t, "a", m["id"])
	assert.Equal(t, "u1", m["user_id"])
	assert.Equal(t, int64(7), m["quantity"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "lines")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
