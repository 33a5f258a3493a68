// Package numerator provides the PostgreSQL implementation of sequential numbering.
// It implements core/numerator.Generator on top of the sequence_counters table.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockledger/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service allocates numbers with a single UPSERT ... RETURNING per call.
// The row lock taken by the upsert serializes concurrent callers, so no two
// of them can observe the same value.
type Service struct {
	querier Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator bound to a fixed querier, normally the pool, so each
// allocation commits independently.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// Next generates the next number for owner, prefix and day.
func (s *Service) Next(ctx context.Context, ownerID string, cfg corenumerator.Config, day time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if cfg.Prefix == "" {
		return "", fmt.Errorf("numerator prefix is required")
	}

	key := corenumerator.Key(cfg, day)

	var num int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sequence_counters (user_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, key) DO UPDATE SET current_val = sequence_counters.current_val + 1
		RETURNING current_val
	`, ownerID, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return corenumerator.Format(cfg, day, num), nil
}

// Seed moves the counter forward to value. It never moves it backwards.
func (s *Service) Seed(ctx context.Context, ownerID string, cfg corenumerator.Config, day time.Time, value int64) error {
	key := corenumerator.Key(cfg, day)

	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sequence_counters (user_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE SET current_val = GREATEST(sequence_counters.current_val, EXCLUDED.current_val)
		RETURNING current_val
	`, ownerID, key, value).Scan(&result)
	if err != nil {
		return fmt.Errorf("seed counter %s: %w", key, err)
	}
	return nil
}
