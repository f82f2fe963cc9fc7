package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is one holder's identity, credential, balance and transaction log.
// Balance and history only change through the mutation methods, which either
// apply fully or leave the account untouched.
type Account struct {
	ID         string
	HolderName string
	Credential Credential
	CreatedAt  time.Time
	UpdatedAt  time.Time

	balance decimal.Decimal
	history []string
}

// AccountRecord is the persisted form of an Account.
type AccountRecord struct {
	ID         string
	HolderName string
	Credential Credential
	Balance    decimal.Decimal
	History    []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewAccount creates an account holding initialBalance. Timestamps are kept
// to microseconds, the finest precision every store preserves.
func NewAccount(id, holderName string, credential Credential, initialBalance decimal.Decimal, now time.Time) (*Account, error) {
	if initialBalance.IsNegative() {
		return nil, ErrInvalidBalance
	}

	now = now.Truncate(time.Microsecond)

	return &Account{
		ID:         id,
		HolderName: holderName,
		Credential: credential,
		CreatedAt:  now,
		UpdatedAt:  now,
		balance:    initialBalance,
		history:    []string{"Account created with balance: " + FormatAmount(initialBalance)},
	}, nil
}

// AccountFromRecord rebuilds an account from persisted state.
func AccountFromRecord(rec AccountRecord) (*Account, error) {
	if err := ValidateAccountID(rec.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	if rec.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: account %s has negative balance %s", ErrCorruptSnapshot, rec.ID, rec.Balance)
	}

	if rec.Credential == "" {
		return nil, fmt.Errorf("%w: account %s has no credential", ErrCorruptSnapshot, rec.ID)
	}

	history := make([]string, len(rec.History))
	copy(history, rec.History)

	return &Account{
		ID:         rec.ID,
		HolderName: rec.HolderName,
		Credential: rec.Credential,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		balance:    rec.Balance,
		history:    history,
	}, nil
}

// Record returns a detached copy of the account suitable for persistence.
func (a *Account) Record() AccountRecord {
	return AccountRecord{
		ID:         a.ID,
		HolderName: a.HolderName,
		Credential: a.Credential,
		Balance:    a.balance,
		History:    a.History(),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// History returns the transaction log in insertion order.
func (a *Account) History() []string {
	out := make([]string, len(a.history))
	copy(out, a.history)
	return out
}

// Authenticate checks candidate against the stored credential.
func (a *Account) Authenticate(candidate string) bool {
	return a.Credential.Matches(candidate)
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal, now time.Time) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	a.credit(amount, now)
	a.record(now, "Deposited: %s | New Balance: %s", FormatAmount(amount), FormatAmount(a.balance))

	return nil
}

// Withdraw removes amount from the balance if it is covered.
func (a *Account) Withdraw(amount decimal.Decimal, now time.Time) error {
	if err := a.validateDebit(amount); err != nil {
		return err
	}

	a.debit(amount, now)
	a.record(now, "Withdrawn: %s | New Balance: %s", FormatAmount(amount), FormatAmount(a.balance))

	return nil
}

// TransferTo moves amount from a to the receiving account. Only a's balance
// gates the transfer; both accounts log a linked entry.
func (a *Account) TransferTo(to *Account, amount decimal.Decimal, now time.Time) error {
	if to == nil {
		return ErrAccountNotFound
	}

	if a == to || a.ID == to.ID {
		return ErrSameAccount
	}

	if err := a.validateDebit(amount); err != nil {
		return err
	}

	a.debit(amount, now)
	to.credit(amount, now)

	a.record(now, "Transferred: %s to %s | New Balance: %s", FormatAmount(amount), to.ID, FormatAmount(a.balance))
	to.record(now, "Received: %s from %s | New Balance: %s", FormatAmount(amount), a.ID, FormatAmount(to.balance))

	return nil
}

func (a *Account) validateDebit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if amount.GreaterThan(a.balance) {
		return ErrInsufficientFunds
	}

	return nil
}

func (a *Account) credit(amount decimal.Decimal, now time.Time) {
	a.balance = a.balance.Add(amount)
	a.UpdatedAt = now
}

func (a *Account) debit(amount decimal.Decimal, now time.Time) {
	a.balance = a.balance.Sub(amount)
	a.UpdatedAt = now
}

func (a *Account) record(now time.Time, format string, args ...any) {
	a.history = append(a.history, fmt.Sprintf(format, args...))
	a.UpdatedAt = now
}
