package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending   IdempotencyStatus = "pending"
	IdempotencyStatusCompleted IdempotencyStatus = "completed"
)

// stalePendingAfter is how long a pending key may stay unfinished before
// another request may reclaim it.
const stalePendingAfter = time.Minute

// IdempotencyRecord stores the result of an idempotent operation.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"` // SHA256 of request body
	StatusCode  *int              `db:"response_status"`
	Response    []byte            `db:"response_body"`
	CreatedAt   time.Time         `db:"created_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode int
	Body       []byte
}

// IdempotencyStore manages idempotency keys scoped per user.
type IdempotencyStore struct {
	txm *TxManager
	ttl time.Duration
	now func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txm *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txm: txm, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// IdempotencyClaim identifies one ownership of a key. A stale claim that was
// reclaimed by another request no longer matches the stored row.
type IdempotencyClaim struct {
	CreatedAt time.Time
}

// Acquire claims key for one request. It returns:
//   - (claim, nil, nil) when the caller now owns the key and must Complete or Release it
//   - (_, replay, nil) when the same request already completed
//   - (_, nil, err) when the key is in flight or was used for a different request
func (s *IdempotencyStore) Acquire(ctx context.Context, userID, key, operation, requestHash string) (IdempotencyClaim, *IdempotencyReplay, error) {
	q := s.txm.GetQuerier(ctx)
	// timestamptz keeps microseconds; the claim must compare equal after a round trip.
	now := s.now().Truncate(time.Microsecond)
	claim := IdempotencyClaim{CreatedAt: now}

	var inserted string
	err := q.QueryRow(ctx, `
		INSERT INTO idempotency_keys (user_id, idempotency_key, operation, request_hash, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
		RETURNING idempotency_key
	`, userID, key, operation, requestHash, IdempotencyStatusPending, now, now.Add(s.ttl)).Scan(&inserted)
	if err == nil {
		return claim, nil, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyClaim{}, nil, fmt.Errorf("acquire idempotency key: %w", err)
	}

	var record IdempotencyRecord
	err = q.QueryRow(ctx, `
		SELECT idempotency_key, user_id, operation, status, request_hash, response_status, response_body, created_at, expires_at
		FROM idempotency_keys
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key).Scan(
		&record.Key, &record.UserID, &record.Operation, &record.Status, &record.RequestHash,
		&record.StatusCode, &record.Response, &record.CreatedAt, &record.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Released between our insert and read; the client may retry.
			return IdempotencyClaim{}, nil, apperror.NewConcurrentModification("idempotency_key", key)
		}
		return IdempotencyClaim{}, nil, fmt.Errorf("read idempotency key: %w", err)
	}

	if record.Operation != operation || record.RequestHash != requestHash {
		return IdempotencyClaim{}, nil, apperror.NewInvalidArgument("idempotency key was used for a different request").
			WithDetail("idempotency_key", key).
			WithDetail("stored_operation", record.Operation)
	}

	if record.Status == IdempotencyStatusCompleted && now.Before(record.ExpiresAt) {
		status := 200
		if record.StatusCode != nil {
			status = *record.StatusCode
		}
		return IdempotencyClaim{}, &IdempotencyReplay{StatusCode: status, Body: record.Response}, nil
	}

	if record.Status == IdempotencyStatusPending && now.Sub(record.CreatedAt) < stalePendingAfter {
		return IdempotencyClaim{}, nil, apperror.NewConcurrentModification("idempotency_key", key)
	}

	// Expired or stale: take it over only if nobody else did first.
	tag, err := q.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $1, response_status = NULL, response_body = NULL, created_at = $2, expires_at = $3
		WHERE user_id = $4 AND idempotency_key = $5 AND created_at = $6
	`, IdempotencyStatusPending, now, now.Add(s.ttl), userID, key, record.CreatedAt)
	if err != nil {
		return IdempotencyClaim{}, nil, fmt.Errorf("reclaim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return IdempotencyClaim{}, nil, apperror.NewConcurrentModification("idempotency_key", key)
	}
	return claim, nil, nil
}

const completeIdempotencySQL = `
	UPDATE idempotency_keys
	SET status = $1, response_status = $2, response_body = $3
	WHERE user_id = $4 AND idempotency_key = $5 AND status = $6 AND created_at = $7
`

const releaseIdempotencySQL = `
	DELETE FROM idempotency_keys
	WHERE user_id = $1 AND idempotency_key = $2 AND status = $3 AND created_at = $4
`

// Complete stores the response for replay. It is a no-op when claim was
// reclaimed by another request.
func (s *IdempotencyStore) Complete(ctx context.Context, userID, key string, claim IdempotencyClaim, statusCode int, body []byte) error {
	_, err := s.txm.GetQuerier(ctx).Exec(ctx, completeIdempotencySQL,
		IdempotencyStatusCompleted, statusCode, body, userID, key, IdempotencyStatusPending, claim.CreatedAt)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release forgets a pending key so the request can be retried. Only the
// request holding claim can release it.
func (s *IdempotencyStore) Release(ctx context.Context, userID, key string, claim IdempotencyClaim) error {
	_, err := s.txm.GetQuerier(ctx).Exec(ctx, releaseIdempotencySQL,
		userID, key, IdempotencyStatusPending, claim.CreatedAt)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txm.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM idempotency_keys WHERE expires_at < $1
	`, s.now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
