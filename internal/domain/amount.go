package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount or initial balance accepted (1 trillion).
const MaxAmount = "1000000000000"

// MaxAmountScale is the number of decimal places an amount or balance may
// carry. It matches the scale of the Postgres balance column.
const MaxAmountScale = 8

var maxAmount = decimal.RequireFromString(MaxAmount)

// ParseAmount parses a deposit, withdrawal or transfer amount entered as text.
func ParseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// ParseInitialBalance parses the opening balance of a new account.
func ParseInitialBalance(text string) (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, ErrInvalidBalance
	}

	if balance.IsNegative() || balance.GreaterThan(maxAmount) || !withinScale(balance) {
		return decimal.Zero, ErrInvalidBalance
	}

	return balance, nil
}

// ValidateAmount checks that amount is strictly positive and within bounds.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(maxAmount) || !withinScale(amount) {
		return ErrInvalidAmount
	}

	return nil
}

// withinScale reports whether d has at most MaxAmountScale significant
// decimal places. Trailing zeros do not count.
func withinScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MaxAmountScale))
}

// FormatAmount renders an amount the way history entries show it:
// whole numbers keep one decimal place ("100.0"), others use their shortest form.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}
