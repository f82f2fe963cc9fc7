package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidAccountID  = errors.New("invalid account number")
	ErrInvalidHolderName = errors.New("invalid account holder name")
	ErrInvalidCredential = errors.New("invalid password")
)

// Validation constants
const (
	MaxAccountIDLength  = 64
	MaxHolderNameLength = 255
	MinHolderNameLength = 1
	MaxCredentialLength = 72 // bcrypt ignores anything past 72 bytes
)

// ValidateAccountID validates an account number.
func ValidateAccountID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: account number cannot be empty", ErrInvalidAccountID)
	}

	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidAccountID)
	}

	if len(id) > MaxAccountIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidAccountID, MaxAccountIDLength)
	}

	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidAccountID)
		}
	}

	return nil
}

// ValidateHolderName validates the display name of an account holder.
func ValidateHolderName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidHolderName)
	}

	name = strings.TrimSpace(name)

	if len(name) < MinHolderNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidHolderName)
	}

	if len(name) > MaxHolderNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidHolderName, MaxHolderNameLength)
	}

	return nil
}

// ValidateCredential validates a plain-text password before it is hashed.
func ValidateCredential(credential string) error {
	if credential == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidCredential)
	}

	if !utf8.ValidString(credential) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidCredential)
	}

	if len(credential) > MaxCredentialLength {
		return fmt.Errorf("%w: must not exceed %d bytes", ErrInvalidCredential, MaxCredentialLength)
	}

	return nil
}
