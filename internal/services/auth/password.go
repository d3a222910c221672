// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"unicode"
)

// PasswordValidator validates passwords against the configured policy.
type PasswordValidator struct {
	MinLength int
}

// NewPasswordValidator returns a validator with the given minimum
// length, falling back to 8 when unset.
func NewPasswordValidator(minLength int) *PasswordValidator {
	if minLength <= 0 {
		minLength = 8
	}
	return &PasswordValidator{MinLength: minLength}
}

// Validate checks a password against the policy. Failures are reported
// as ErrInvalidInput so callers treat them as malformed input.
func (v *PasswordValidator) Validate(password string) error {
	if len(password) < v.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, v.MinLength)
	}
	if isEntirelyNumeric(password) {
		return fmt.Errorf("%w: password cannot be entirely numeric", ErrInvalidInput)
	}
	return nil
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}
