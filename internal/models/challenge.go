// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// OTPPurpose scopes a challenge to the single flow it authorizes.
type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "email_verification"
	PurposePasswordReset     OTPPurpose = "password_reset"
)

// OTPChallenge is a short-lived numeric code bound to an account and a
// purpose. At most one row exists per (account, purpose); issuing a new
// code replaces the old row, and successful validation deletes it.
type OTPChallenge struct { //nolint:govet // fieldalignment: readability over optimization
	ID        int64      `db:"id" json:"id"`
	AccountID string     `db:"account_id" json:"account_id"`
	Purpose   OTPPurpose `db:"purpose" json:"purpose"`
	Code      string     `db:"code" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the challenge is no longer valid at the given
// time. A challenge is valid only strictly before ExpiresAt.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
