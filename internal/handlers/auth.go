// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/go-auth-service/internal/models"
	"github.com/labstack/echo/v4"
)

// accountData is the account summary returned to clients.
type accountData struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"is_verified"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountData(account *models.Account) accountData {
	return accountData{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Verified:  account.Verified,
		CreatedAt: account.CreatedAt,
	}
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new unverified account and dispatches a
// verification code.
func (h *Handlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
	}

	res, err := h.auth.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success":        true,
		"message":        "Registration successful! Please check your email for OTP verification",
		"otp_dispatched": res.Dispatched,
		"data":           newAccountData(res.Account),
	})
}

// VerifyEmailRequest is the request body for email verification.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyEmail marks an account as verified when the code matches.
func (h *Handlers) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
	}

	if err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.OTP); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully! You can now login",
	})
}

// ResendOTPRequest is the request body for requesting a fresh
// verification code.
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// ResendOTP issues a fresh verification code for an unverified account.
func (h *Handlers) ResendOTP(c echo.Context) error {
	var req ResendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
	}

	if err := h.auth.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP sent successfully to your email",
	})
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account and returns a session token.
func (h *Handlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
	}

	account, signed, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   signed,
		"data":    newAccountData(account),
	})
}

// ForgotPasswordRequest is the request body for starting a password
// reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a password reset code.
func (h *Handlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset OTP sent to your email",
	})
}

// ResetPasswordRequest is the request body for completing a password
// reset.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// ResetPassword replaces the password when the reset code matches.
func (h *Handlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successful! You can now login with new password",
	})
}

// Me returns the account loaded by the authentication middleware.
func (h *Handlers) Me(c echo.Context) error {
	account, ok := c.Get(AccountContextKey).(*models.Account)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Not authorized",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    newAccountData(account),
	})
}
