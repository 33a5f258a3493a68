package inventory

import (
	"fmt"
	"regexp"
	"sort"

	"stockledger/internal/core/apperror"
)

// Built-in warehouse categories.
const (
	CategoryReadyToSell = "siap_jual"
	CategoryResearch    = "riset"
	CategoryReturned    = "retur"
	CategoryDamaged     = "rusak"
)

var categoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

// Categories is the allow-list of warehouse category codes.
type Categories struct {
	known map[string]struct{}
}

// NewCategories returns the built-in categories plus extra.
// Extra codes that do not match the code pattern are rejected.
func NewCategories(extra ...string) (*Categories, error) {
	c := &Categories{known: map[string]struct{}{
		CategoryReadyToSell: {},
		CategoryResearch:    {},
		CategoryReturned:    {},
		CategoryDamaged:     {},
	}}
	for _, code := range extra {
		if !categoryPattern.MatchString(code) {
			return nil, fmt.Errorf("invalid warehouse category %q", code)
		}
		c.known[code] = struct{}{}
	}
	return c, nil
}

// DefaultCategories returns the built-in allow-list.
func DefaultCategories() *Categories {
	c, _ := NewCategories()
	return c
}

// IsValid reports whether code is an allowed category.
func (c *Categories) IsValid(code string) bool {
	_, ok := c.known[code]
	return ok
}

// Validate returns INVALID_ARGUMENT naming field when code is not allowed.
func (c *Categories) Validate(field, code string) error {
	if code == "" {
		return apperror.NewInvalidArgument(field+" is required").WithDetail("field", field)
	}
	if !c.IsValid(code) {
		return apperror.NewInvalidArgument("unknown warehouse category").
			WithDetail("field", field).
			WithDetail("value", code)
	}
	return nil
}

// List returns the allowed codes in sorted order.
func (c *Categories) List() []string {
	out := make([]string, 0, len(c.known))
	for code := range c.known {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
