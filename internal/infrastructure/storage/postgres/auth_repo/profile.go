// Package auth_repo provides the PostgreSQL profile lookup used for role checks.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/auth"
	"stockledger/internal/infrastructure/storage/postgres"
)

// ProfileRepo implements auth.ProfileRepository.
type ProfileRepo struct {
	txm *postgres.TxManager
}

var _ auth.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo creates a new profile repository.
func NewProfileRepo(txm *postgres.TxManager) *ProfileRepo {
	return &ProfileRepo{txm: txm}
}

// GetByID retrieves the profile of userID.
func (r *ProfileRepo) GetByID(ctx context.Context, userID string) (*auth.Profile, error) {
	q := r.txm.GetQuerier(ctx)

	var p auth.Profile
	err := q.QueryRow(ctx, `SELECT id, role FROM profiles WHERE id = $1`, userID).Scan(&p.ID, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("profile", userID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Upsert creates the profile or overwrites its role.
func (r *ProfileRepo) Upsert(ctx context.Context, p *auth.Profile) error {
	q := r.txm.GetQuerier(ctx)

	_, err := q.Exec(ctx, `
		INSERT INTO profiles (id, role) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
	`, p.ID, p.Role)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
