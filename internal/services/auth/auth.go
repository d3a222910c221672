// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth orchestrates the account lifecycle: registration,
// email verification, login, and password recovery.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-auth-service/internal/config"
	"codeberg.org/oliverandrich/go-auth-service/internal/models"
	"codeberg.org/oliverandrich/go-auth-service/internal/repository"
	"codeberg.org/oliverandrich/go-auth-service/internal/services/otp"
	"codeberg.org/oliverandrich/go-auth-service/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrAccountExists        = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotVerified          = errors.New("email not verified")
	ErrAlreadyVerified      = errors.New("email already verified")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Notifier delivers one-time codes to account holders. Dispatch is
// best effort: a failure never rolls back committed state.
type Notifier interface {
	SendVerification(ctx context.Context, email, code, displayName string) error
	SendPasswordReset(ctx context.Context, email, code, displayName string) error
}

// Service is the account lifecycle orchestrator.
type Service struct {
	repo              *repository.Repository
	otp               *otp.Service
	tokens            *token.Issuer
	notifier          Notifier
	otpTTL            time.Duration
	passwordValidator *PasswordValidator
}

// NewService creates a new auth service.
func NewService(repo *repository.Repository, otpSvc *otp.Service, issuer *token.Issuer, notifier Notifier, cfg *config.AuthConfig) *Service {
	ttl := time.Duration(cfg.OTPTTL) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:              repo,
		otp:               otpSvc,
		tokens:            issuer,
		notifier:          notifier,
		otpTTL:            ttl,
		passwordValidator: NewPasswordValidator(cfg.MinPasswordLength),
	}
}

// RegisterResult is the outcome of a successful registration.
// Dispatched reports whether the verification mail went out; the
// account and its code are committed either way.
type RegisterResult struct {
	Account    *models.Account
	Dispatched bool
}

// Register creates an unverified account, issues an email verification
// code, and dispatches it. Uniqueness of email and username is enforced
// by the store, not by a check-then-create in application code.
func (s *Service) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if err := s.passwordValidator.Validate(password); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.repo.CreateAccount(ctx, username, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	code, err := s.otp.Issue(ctx, account.ID, models.PurposeEmailVerification, s.otpTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification code: %w", err)
	}

	dispatched := true
	if err := s.notifier.SendVerification(ctx, account.Email, code, account.Username); err != nil {
		// Account and code are committed, the caller can resend
		slog.Error("verification dispatch failed", "account_id", account.ID, "error", err)
		dispatched = false
	}

	slog.Info("register_success", "account_id", account.ID, "username", account.Username)

	return &RegisterResult{Account: account, Dispatched: dispatched}, nil
}

// VerifyEmail validates the supplied code and marks the account as
// verified. The transition is terminal; there is no path back to
// unverified. An unknown email reports the same error as a bad code.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and code are required", ErrInvalidInput)
	}

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !s.otp.Validate(ctx, account.ID, models.PurposeEmailVerification, code) {
		slog.Warn("verify_email_failed", "account_id", account.ID)
		return ErrInvalidOrExpiredCode
	}

	if err := s.repo.SetAccountVerified(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	slog.Info("verify_email_success", "account_id", account.ID)
	return nil
}

// ResendVerification issues a fresh verification code, superseding any
// prior one, and dispatches it.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if account.Verified {
		return ErrAlreadyVerified
	}

	code, err := s.otp.Issue(ctx, account.ID, models.PurposeEmailVerification, s.otpTTL)
	if err != nil {
		return fmt.Errorf("failed to issue verification code: %w", err)
	}

	if err := s.notifier.SendVerification(ctx, account.Email, code, account.Username); err != nil {
		return fmt.Errorf("failed to dispatch verification mail: %w", err)
	}

	return nil
}

// Login authenticates by email and password and mints a session token.
// Unknown accounts and wrong passwords yield the same error so callers
// cannot enumerate accounts; a dummy hash comparison keeps the timing
// of both paths alike. Login never mutates account state.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "reason", "account_not_found")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login_failed", "account_id", account.ID, "reason", "invalid_password")
		return nil, "", ErrInvalidCredentials
	}

	if !account.Verified {
		slog.Warn("login_failed", "account_id", account.ID, "reason", "not_verified")
		return nil, "", ErrNotVerified
	}

	signed, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("login_success", "account_id", account.ID)
	return account, signed, nil
}

// ForgotPassword issues a password reset code and dispatches it. Unlike
// Login, an unknown email is reported as such.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	code, err := s.otp.Issue(ctx, account.ID, models.PurposePasswordReset, s.otpTTL)
	if err != nil {
		return fmt.Errorf("failed to issue reset code: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, account.Email, code, account.Username); err != nil {
		return fmt.Errorf("failed to dispatch reset mail: %w", err)
	}

	return nil
}

// ResetPassword validates the reset code and replaces the stored
// credential. Knowledge of the old password is not required.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return fmt.Errorf("%w: email, code and new password are required", ErrInvalidInput)
	}
	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return err
	}

	account, err := s.repo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !s.otp.Validate(ctx, account.ID, models.PurposePasswordReset, code) {
		slog.Warn("reset_password_failed", "account_id", account.ID)
		return ErrInvalidOrExpiredCode
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateAccountPassword(ctx, account.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("reset_password_success", "account_id", account.ID)
	return nil
}

// GetAccount returns the account for an authenticated caller.
func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// VerifyToken resolves a session token to its account.
func (s *Service) VerifyToken(ctx context.Context, signed string) (*models.Account, error) {
	accountID, err := s.tokens.Verify(signed)
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, accountID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
