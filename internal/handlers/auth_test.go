// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/go-auth-service/internal/config"
	"codeberg.org/oliverandrich/go-auth-service/internal/handlers"
	"codeberg.org/oliverandrich/go-auth-service/internal/models"
	"codeberg.org/oliverandrich/go-auth-service/internal/services/auth"
	"codeberg.org/oliverandrich/go-auth-service/internal/services/otp"
	"codeberg.org/oliverandrich/go-auth-service/internal/services/token"
	"codeberg.org/oliverandrich/go-auth-service/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures dispatched codes instead of sending mail.
type recordingNotifier struct {
	codes map[string]string // email -> last code, any purpose
}

func (r *recordingNotifier) SendVerification(ctx context.Context, email, code, displayName string) error {
	r.codes[email] = code
	return nil
}

func (r *recordingNotifier) SendPasswordReset(ctx context.Context, email, code, displayName string) error {
	r.codes[email] = code
	return nil
}

func newTestHandlers(t *testing.T) (*handlers.Handlers, *recordingNotifier) {
	t.Helper()

	_, repo := testutil.NewTestDB(t)
	issuer, err := token.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	notifier := &recordingNotifier{codes: make(map[string]string)}
	cfg := &config.AuthConfig{OTPTTL: 10, OTPDigits: 6, MinPasswordLength: 8}
	svc := auth.NewService(repo, otp.NewService(repo, cfg.OTPDigits), issuer, notifier, cfg)
	return handlers.New(svc), notifier
}

func postJSON(t *testing.T, handler echo.HandlerFunc, path, body string) (int, map[string]any) {
	t.Helper()

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, path, strings.NewReader(body))
	require.NoError(t, handler(c))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec.Code, payload
}

func registerAndVerify(t *testing.T, h *handlers.Handlers, notifier *recordingNotifier, username, email, password string) {
	t.Helper()

	code, _ := postJSON(t, h.Register, "/api/auth/register",
		fmt.Sprintf(`{"username":%q,"email":%q,"password":%q}`, username, email, password))
	require.Equal(t, http.StatusCreated, code)

	code, _ = postJSON(t, h.VerifyEmail, "/api/auth/verify-email",
		fmt.Sprintf(`{"email":%q,"otp":%q}`, email, notifier.codes[email]))
	require.Equal(t, http.StatusOK, code)
}

func TestRegister(t *testing.T) {
	h, notifier := newTestHandlers(t)

	status, payload := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Passw0rd!"}`)

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, true, payload["otp_dispatched"])
	data := payload["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "alice@example.com", data["email"])
	assert.Equal(t, false, data["is_verified"])
	assert.Len(t, notifier.codes["alice@example.com"], 6)
}

func TestRegister_MalformedBody(t *testing.T) {
	h, _ := newTestHandlers(t)

	status, payload := postJSON(t, h.Register, "/api/auth/register", `{"username":`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, payload["success"])
}

func TestRegister_MissingFields(t *testing.T) {
	h, _ := newTestHandlers(t)

	status, payload := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, payload["success"])
}

func TestRegister_Duplicate(t *testing.T) {
	h, _ := newTestHandlers(t)

	status, _ := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusCreated, status)

	status, payload := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice","email":"other@example.com","password":"Passw0rd!"}`)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User already exists with this email or username", payload["message"])
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	h, notifier := newTestHandlers(t)

	status, _ := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusCreated, status)

	wrong := "000000"
	if notifier.codes["alice@example.com"] == wrong {
		wrong = "000001"
	}

	status, payload := postJSON(t, h.VerifyEmail, "/api/auth/verify-email",
		fmt.Sprintf(`{"email":"alice@example.com","otp":%q}`, wrong))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired OTP", payload["message"])
}

func TestVerifyEmail(t *testing.T) {
	h, notifier := newTestHandlers(t)

	status, _ := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusCreated, status)

	status, payload := postJSON(t, h.VerifyEmail, "/api/auth/verify-email",
		fmt.Sprintf(`{"email":"alice@example.com","otp":%q}`, notifier.codes["alice@example.com"]))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["success"])
}

func TestResendOTP_UnknownEmail(t *testing.T) {
	h, _ := newTestHandlers(t)

	status, payload := postJSON(t, h.ResendOTP, "/api/auth/resend-otp",
		`{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", payload["message"])
}

func TestResendOTP_AlreadyVerified(t *testing.T) {
	h, notifier := newTestHandlers(t)
	registerAndVerify(t, h, notifier, "alice", "alice@example.com", "Passw0rd!")

	status, payload := postJSON(t, h.ResendOTP, "/api/auth/resend-otp",
		`{"email":"alice@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already verified", payload["message"])
}

func TestLogin_Unverified(t *testing.T) {
	h, _ := newTestHandlers(t)

	status, _ := postJSON(t, h.Register, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusCreated, status)

	status, payload := postJSON(t, h.Login, "/api/auth/login",
		`{"email":"alice@example.com","password":"Passw0rd!"}`)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Please verify your email first", payload["message"])
}

func TestLogin(t *testing.T) {
	h, notifier := newTestHandlers(t)
	registerAndVerify(t, h, notifier, "alice", "alice@example.com", "Passw0rd!")

	status, payload := postJSON(t, h.Login, "/api/auth/login",
		`{"email":"alice@example.com","password":"Passw0rd!"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["success"])
	assert.NotEmpty(t, payload["token"])
	data := payload["data"].(map[string]any)
	assert.Equal(t, true, data["is_verified"])
}

func TestLogin_WrongPassword(t *testing.T) {
	h, notifier := newTestHandlers(t)
	registerAndVerify(t, h, notifier, "alice", "alice@example.com", "Passw0rd!")

	status, payload := postJSON(t, h.Login, "/api/auth/login",
		`{"email":"alice@example.com","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", payload["message"])
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	h, _ := newTestHandlers(t)

	status, payload := postJSON(t, h.ForgotPassword, "/api/auth/forgot-password",
		`{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", payload["message"])
}

func TestResetPassword(t *testing.T) {
	h, notifier := newTestHandlers(t)
	registerAndVerify(t, h, notifier, "alice", "alice@example.com", "Passw0rd!")

	status, _ := postJSON(t, h.ForgotPassword, "/api/auth/forgot-password",
		`{"email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, status)

	status, payload := postJSON(t, h.ResetPassword, "/api/auth/reset-password",
		fmt.Sprintf(`{"email":"alice@example.com","otp":%q,"new_password":"NewPass1!"}`, notifier.codes["alice@example.com"]))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, payload["success"])

	// Old password rejected, new one accepted
	status, _ = postJSON(t, h.Login, "/api/auth/login",
		`{"email":"alice@example.com","password":"Passw0rd!"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = postJSON(t, h.Login, "/api/auth/login",
		`{"email":"alice@example.com","password":"NewPass1!"}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestMe(t *testing.T) {
	h, _ := newTestHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/auth/me", nil)
	c.Set(handlers.AccountContextKey, &models.Account{
		ID:       "some-id",
		Username: "alice",
		Email:    "alice@example.com",
		Verified: true,
	})

	require.NoError(t, h.Me(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestMe_NoAccount(t *testing.T) {
	h, _ := newTestHandlers(t)

	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/auth/me", nil)

	require.NoError(t, h.Me(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
