package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PasswordMinLength matches the minimum enforced at registration and password change.
const PasswordMinLength = 8

// ValidatePassword checks the raw password against account policy.
// Hashing is an adapter concern; only shape rules live here.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, PasswordMinLength)
	}
	return nil
}
