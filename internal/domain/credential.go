package domain

import (
	"golang.org/x/crypto/bcrypt"
)

// Credential is the salted one-way hash of an account password.
type Credential string

// HashCredential validates and hashes a plain-text password with bcrypt.
func HashCredential(plain string, cost int) (Credential, error) {
	if err := ValidateCredential(plain); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}

	return Credential(hash), nil
}

// Matches reports whether candidate is the password this credential was built from.
func (c Credential) Matches(candidate string) bool {
	if c == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c), []byte(candidate)) == nil
}
