package usecase

import "golang.org/x/crypto/bcrypt"

const (
	// DefaultCredentialCost is the bcrypt cost used when none is configured.
	DefaultCredentialCost = bcrypt.DefaultCost
)

// Operation names used for metrics and logs.
const (
	OpOpen          = "open"
	OpCreateAccount = "create_account"
	OpLogin         = "login"
	OpDeposit       = "deposit"
	OpWithdraw      = "withdraw"
	OpCheckBalance  = "check_balance"
	OpHistory       = "history"
	OpTransfer      = "transfer"
	OpDeleteAccount = "delete_account"
	OpFlush         = "flush"
)

// Operation outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeRejected      = "rejected"
	OutcomePersistFailed = "persist_failed"
)
