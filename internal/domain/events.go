package domain

import "time"

// Event types
const (
	EventTypeAccountCreated    = "account.created"
	EventTypeAccountDeposited  = "account.deposited"
	EventTypeAccountWithdrawn  = "account.withdrawn"
	EventTypeAccountDeleted    = "account.deleted"
	EventTypeTransferCompleted = "transfer.completed"
)

// Event records a ledger mutation that has been applied in memory.
type Event struct {
	ID         string
	Type       string
	AccountID  string
	Payload    map[string]any
	OccurredAt time.Time
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID      string `json:"account_id"`
	HolderName     string `json:"holder_name"`
	InitialBalance string `json:"initial_balance"`
}

// BalanceChangedEvent payload, used for deposits and withdrawals.
type BalanceChangedEvent struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"`
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
}

// AccountDeletedEvent payload
type AccountDeletedEvent struct {
	AccountID string `json:"account_id"`
}

// Payload returns the event payload as a generic map.
func (e AccountCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"account_id":      e.AccountID,
		"holder_name":     e.HolderName,
		"initial_balance": e.InitialBalance,
	}
}

// Payload returns the event payload as a generic map.
func (e BalanceChangedEvent) Payload() map[string]any {
	return map[string]any{
		"account_id": e.AccountID,
		"amount":     e.Amount,
		"balance":    e.Balance,
	}
}

// Payload returns the event payload as a generic map.
func (e TransferCompletedEvent) Payload() map[string]any {
	return map[string]any{
		"from_account_id": e.FromAccountID,
		"to_account_id":   e.ToAccountID,
		"amount":          e.Amount,
	}
}

// Payload returns the event payload as a generic map.
func (e AccountDeletedEvent) Payload() map[string]any {
	return map[string]any{"account_id": e.AccountID}
}
