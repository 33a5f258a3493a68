// Package domain provides types shared by the business packages.
package domain

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListFilter contains common pagination options for list operations.
type ListFilter struct {
	Limit  int
	Offset int
}

// Normalize clamps the pagination window into the allowed range.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
