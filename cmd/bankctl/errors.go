package main

import (
	"errors"

	"github.com/iho/bankledger/internal/domain"
)

// Exit codes.
const (
	exitOK             = 0
	exitRejected       = 1
	exitUsage          = 2
	exitPersistence    = 3
	exitStartupFailure = 4
)

var (
	errNotLoggedIn      = errors.New("no credentials or session token given")
	errSessionsDisabled = errors.New("session tokens are disabled, set SESSION_SECRET")
)

// startupError marks failures to configure or open the ledger.
type startupError struct {
	err error
}

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

// describe maps an error from command to the message shown to the user and
// the process exit code.
func describe(command string, err error) (string, int) {
	var startup *startupError

	switch {
	case err == nil:
		return "", exitOK
	case errors.Is(err, domain.ErrPersistenceFailure):
		return "Error saving accounts!", exitPersistence
	case errors.Is(err, domain.ErrCorruptSnapshot):
		return "Stored accounts are unreadable: " + err.Error() + " (set RESET_ON_CORRUPT=true to start empty)", exitStartupFailure
	case errors.As(err, &startup):
		return "Startup failed: " + err.Error(), exitStartupFailure
	case errors.Is(err, domain.ErrDuplicateID):
		return "Account already exists!", exitRejected
	case errors.Is(err, domain.ErrInvalidBalance):
		return "Invalid balance!", exitRejected
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Invalid amount!", exitRejected
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient balance!", exitRejected
	case errors.Is(err, domain.ErrSameAccount):
		return "Cannot transfer to the same account!", exitRejected
	case errors.Is(err, domain.ErrAccountNotFound):
		if command == "transfer" {
			return "Invalid account(s)!", exitRejected
		}
		return "Account not found!", exitRejected
	case errors.Is(err, domain.ErrAuthenticationFailed):
		if command == "transfer" || command == "delete" {
			return "Wrong password!", exitRejected
		}
		return "Invalid credentials!", exitRejected
	case errors.Is(err, errNotLoggedIn):
		return "Login first!", exitRejected
	case errors.Is(err, domain.ErrExpiredToken):
		return "Session expired, login again!", exitRejected
	case errors.Is(err, domain.ErrInvalidToken):
		return "Invalid session token!", exitRejected
	case errors.Is(err, errSessionsDisabled):
		return "Session tokens are disabled!", exitRejected
	case errors.Is(err, domain.ErrInvalidAccountID):
		return "Invalid account number!", exitRejected
	case errors.Is(err, domain.ErrInvalidHolderName):
		return "Invalid holder name!", exitRejected
	case errors.Is(err, domain.ErrInvalidCredential):
		return "Invalid password!", exitRejected
	}

	return err.Error(), exitUsage
}
