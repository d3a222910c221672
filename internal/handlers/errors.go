// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/go-auth-service/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-service/internal/services/token"
	"github.com/labstack/echo/v4"
)

// errorResponse maps a service error to an HTTP status code and a
// client-facing message. Unmapped errors become an opaque 500.
func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, auth.ErrAccountExists):
		status = http.StatusConflict
		message = "User already exists with this email or username"
	case errors.Is(err, auth.ErrAccountNotFound):
		status = http.StatusNotFound
		message = "User not found"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "Invalid credentials"
	case errors.Is(err, auth.ErrNotVerified):
		status = http.StatusUnauthorized
		message = "Please verify your email first"
	case errors.Is(err, auth.ErrAlreadyVerified):
		status = http.StatusBadRequest
		message = "Email already verified"
	case errors.Is(err, auth.ErrInvalidOrExpiredCode):
		status = http.StatusBadRequest
		message = "Invalid or expired OTP"
	case errors.Is(err, token.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "Not authorized, token failed"
	default:
		slog.Error("request failed", "error", err, "path", c.Path())
	}

	return c.JSON(status, map[string]any{
		"success": false,
		"message": message,
	})
}
