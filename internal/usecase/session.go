package usecase

import "time"

// Session is the handle an authenticated caller uses for account operations.
// The ledger does not expire sessions; the calling layer decides how long to
// keep one. A session is bound to the account instance it was issued for, so
// it stops working if that account is deleted, even if the id is reused.
type Session struct {
	accountID        string
	accountCreatedAt time.Time
	issuedAt         time.Time
}

// AccountID returns the id of the authenticated account.
func (s *Session) AccountID() string {
	return s.accountID
}

// AccountCreatedAt returns the creation time of the account the session is
// bound to. Pass it back to RestoreSession to resume the session.
func (s *Session) AccountCreatedAt() time.Time {
	return s.accountCreatedAt
}

// IssuedAt returns when the session was established.
func (s *Session) IssuedAt() time.Time {
	return s.issuedAt
}
