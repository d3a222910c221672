// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp issues and validates purpose-scoped one-time codes.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/go-auth-service/internal/models"
	"codeberg.org/oliverandrich/go-auth-service/internal/repository"
)

// DefaultDigits is the code length used when none is configured.
const DefaultDigits = 6

// Service generates, stores, and validates time-boxed one-time codes.
type Service struct {
	repo   *repository.Repository
	digits int
}

// NewService creates a new OTP service.
func NewService(repo *repository.Repository, digits int) *Service {
	if digits <= 0 {
		digits = DefaultDigits
	}
	return &Service{repo: repo, digits: digits}
}

// Issue generates a fresh code for (account, purpose) and stores it
// with the given lifetime, replacing any prior challenge of the same
// purpose. The code is returned to the caller and never logged in full.
func (s *Service) Issue(ctx context.Context, accountID string, purpose models.OTPPurpose, ttl time.Duration) (string, error) {
	code, err := generateCode(s.digits)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(ttl)
	if err := s.repo.UpsertChallenge(ctx, accountID, purpose, code, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}

	return code, nil
}

// Validate checks a supplied code against the stored challenge and
// consumes it on success. It fails closed: a missing challenge, a
// purpose mismatch, an expired code, a wrong code, and a store error
// all yield false. Consumption is a conditional delete keyed by the
// challenge row, so a replay or a concurrent second validation loses.
func (s *Service) Validate(ctx context.Context, accountID string, purpose models.OTPPurpose, supplied string) bool {
	challenge, err := s.repo.GetChallenge(ctx, accountID, purpose)
	if err != nil {
		return false
	}

	if challenge.Expired(time.Now().UTC()) {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(supplied)) != 1 {
		return false
	}

	consumed, err := s.repo.ConsumeChallenge(ctx, challenge.ID, supplied)
	if err != nil {
		slog.Error("failed to consume challenge", "account_id", accountID, "purpose", purpose, "error", err)
		return false
	}

	return consumed
}

// generateCode draws each digit uniformly from crypto/rand.
func generateCode(length int) (string, error) {
	ten := big.NewInt(10)
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}
