// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-service/internal/models"
	"codeberg.org/oliverandrich/go-auth-service/internal/repository"
	"codeberg.org/oliverandrich/go-auth-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertChallenge(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")
	expiresAt := time.Now().Add(10 * time.Minute)

	err := repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "123456", expiresAt)

	require.NoError(t, err)

	challenge, err := repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "123456", challenge.Code)
	assert.Equal(t, models.PurposeEmailVerification, challenge.Purpose)
	assert.WithinDuration(t, expiresAt, challenge.ExpiresAt, time.Second)
}

func TestUpsertChallenge_ReplacesPrior(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")
	expiresAt := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "111111", expiresAt))
	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "222222", expiresAt))

	challenge, err := repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "222222", challenge.Code)

	// Only one row may exist per (account, purpose)
	var count int64
	err = repo.DB().Get(&count, "SELECT count(*) FROM otp_challenges WHERE account_id = ?", account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertChallenge_PurposesIndependent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")
	expiresAt := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "111111", expiresAt))
	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposePasswordReset, "222222", expiresAt))

	verification, err := repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "111111", verification.Code)

	reset, err := repo.GetChallenge(ctx, account.ID, models.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "222222", reset.Code)
}

func TestGetChallenge_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")

	_, err := repo.GetChallenge(context.Background(), account.ID, models.PurposePasswordReset)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeChallenge(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")
	expiresAt := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "123456", expiresAt))
	challenge, err := repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	require.NoError(t, err)

	consumed, err := repo.ConsumeChallenge(ctx, challenge.ID, "123456")

	require.NoError(t, err)
	assert.True(t, consumed)

	_, err = repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConsumeChallenge_SecondCallLoses(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")
	expiresAt := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "123456", expiresAt))
	challenge, err := repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	require.NoError(t, err)

	first, err := repo.ConsumeChallenge(ctx, challenge.ID, "123456")
	require.NoError(t, err)
	second, err := repo.ConsumeChallenge(ctx, challenge.ID, "123456")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestConsumeChallenge_WrongCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice", "alice@example.com", "Passw0rd!")
	expiresAt := time.Now().Add(10 * time.Minute)

	require.NoError(t, repo.UpsertChallenge(ctx, account.ID, models.PurposeEmailVerification, "123456", expiresAt))
	challenge, err := repo.GetChallenge(ctx, account.ID, models.PurposeEmailVerification)
	require.NoError(t, err)

	consumed, err := repo.ConsumeChallenge(ctx, challenge.ID, "654321")

	require.NoError(t, err)
	assert.False(t, consumed)
}
