// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the JSON HTTP handlers.
package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/go-auth-service/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AccountContextKey is the echo context key under which the
// authentication middleware stores the resolved account.
const AccountContextKey = "account"

// Handlers contains all HTTP handlers.
type Handlers struct {
	auth *auth.Service
}

// New creates a new Handlers instance.
func New(authSvc *auth.Service) *Handlers {
	return &Handlers{auth: authSvc}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Root returns a service banner listing the operation surface.
func (h *Handlers) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Authentication API is running",
		"endpoints": map[string]string{
			"register":        "POST /api/auth/register",
			"verify_email":    "POST /api/auth/verify-email",
			"resend_otp":      "POST /api/auth/resend-otp",
			"login":           "POST /api/auth/login",
			"forgot_password": "POST /api/auth/forgot-password",
			"reset_password":  "POST /api/auth/reset-password",
			"me":              "GET /api/auth/me (protected)",
		},
	})
}
