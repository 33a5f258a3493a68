package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
)

func TestDefaultCategories(t *testing.T) {
	c := DefaultCategories()

	assert.Equal(t, []string{"retur", "riset", "rusak", "siap_jual"}, c.List())
	assert.True(t, c.IsValid(CategoryReadyToSell))
	assert.False(t, c.IsValid("gudang"))
}

func TestNewCategories_Extra(t *testing.T) {
	c, err := NewCategories("gudang_b")
	require.NoError(t, err)
	assert.True(t, c.IsValid("gudang_b"))

	_, err = NewCategories("Bad Code")
	assert.Error(t, err)
}

func TestCategories_Validate(t *testing.T) {
	c := DefaultCategories()

	assert.NoError(t, c.Validate("warehouse_category", "retur"))

	err := c.Validate("warehouse_category", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidArgument))

	err = c.Validate("to_warehouse_category", "nowhere")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "to_warehouse_category", appErr.Details["field"])
}
