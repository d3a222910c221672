// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package models contains the persistent entities of the service.
package models

import "time"

// Account is the durable identity record. Email and username are
// globally unique, enforced by unique indexes in the store.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Verified     bool      `db:"verified" json:"verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
