package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrDuplicateID          = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrInsufficientFunds    = errors.New("insufficient balance")

	// Amount errors
	ErrInvalidAmount  = errors.New("amount must be a positive number")
	ErrInvalidBalance = fmt.Errorf("%w: initial balance must be a non-negative number", ErrInvalidAmount)

	// Transfer errors
	ErrSameAccount = errors.New("cannot transfer to same account")

	// Persistence errors
	ErrPersistenceFailure = errors.New("failed to persist ledger")
	ErrSnapshotNotFound   = errors.New("no persisted ledger")
	ErrCorruptSnapshot    = errors.New("persisted ledger is unreadable")

	// Session errors
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token has expired")
)
