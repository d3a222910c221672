// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/go-auth-service/internal/models"
)

// UpsertChallenge stores a one-time code for (account, purpose),
// replacing any prior challenge of the same purpose in a single
// statement. The unique index on (account_id, purpose) guarantees at
// most one active challenge per pair.
func (r *Repository) UpsertChallenge(ctx context.Context, accountID string, purpose models.OTPPurpose, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (account_id, purpose, code, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (account_id, purpose)
		 DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at, created_at = excluded.created_at`,
		accountID, purpose, code, expiresAt, time.Now().UTC())
	return err
}

// GetChallenge retrieves the challenge for (account, purpose).
func (r *Repository) GetChallenge(ctx context.Context, accountID string, purpose models.OTPPurpose) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := r.db.GetContext(ctx, &challenge,
		`SELECT * FROM otp_challenges WHERE account_id = ? AND purpose = ?`, accountID, purpose)
	if err != nil {
		return nil, wrapError(err)
	}
	return &challenge, nil
}

// ConsumeChallenge deletes a challenge, keyed by id and code so that
// only one of two concurrent validations can win. Returns true if the
// row was deleted by this call.
func (r *Repository) ConsumeChallenge(ctx context.Context, id int64, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE id = ? AND code = ?`, id, code)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
