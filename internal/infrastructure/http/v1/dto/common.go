// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// PageQuery contains pagination parameters.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=0,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ListFilter converts to the domain pagination window.
func (p PageQuery) ListFilter() domain.ListFilter {
	return domain.ListFilter{Limit: p.Limit, Offset: p.Offset}.Normalize()
}

// ParseID parses a UUID field, failing with INVALID_ARGUMENT.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(strings.TrimSpace(value))
	if err != nil || id.IsNil(parsed) {
		return id.ID{}, apperror.NewInvalidArgument("invalid "+field).WithDetail("field", field)
	}
	return parsed, nil
}

// ParseOptionalID returns nil for an empty value.
func ParseOptionalID(field, value string) (*id.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ParseDate parses a YYYY-MM-DD field, failing with INVALID_ARGUMENT.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperror.NewInvalidArgument("invalid "+field+", expected YYYY-MM-DD").WithDetail("field", field)
	}
	return t, nil
}

// ParseOptionalDate returns nil for an empty value.
func ParseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LenientDate returns the zero time when value is missing or malformed,
// letting the domain fall back to today.
func LenientDate(value string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}
