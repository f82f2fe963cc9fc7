package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

var (
	// ErrAlreadyOpen is returned when Open is called more than once.
	ErrAlreadyOpen = errors.New("ledger already opened")
	// ErrNotOpen is returned by mutations on a ledger that was never opened.
	ErrNotOpen = errors.New("ledger not opened")
)

// LedgerConfig holds the collaborators of a LedgerUseCase.
// Only Store is required.
type LedgerConfig struct {
	Store          Store
	Publisher      Publisher
	Retrier        Retrier
	IDGen          IDGenerator
	Metrics        MetricsRecorder
	Logger         zerolog.Logger
	CredentialCost int
	Clock          func() time.Time
}

// LedgerUseCase owns every account and serializes all operations on them
// behind a single lock. Each successful mutation is followed by a full
// snapshot save.
type LedgerUseCase struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	opened   bool
	dirty    bool

	store     Store
	publisher Publisher
	retrier   Retrier
	idGen     IDGenerator
	metrics   MetricsRecorder
	logger    zerolog.Logger
	cost      int
	clock     func() time.Time

	dummyOnce sync.Once
	dummy     domain.Credential
}

// NewLedgerUseCase creates an empty ledger. Call Open to hydrate it from the store.
func NewLedgerUseCase(cfg LedgerConfig) *LedgerUseCase {
	if cfg.CredentialCost == 0 {
		cfg.CredentialCost = DefaultCredentialCost
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &LedgerUseCase{
		accounts:  make(map[string]*domain.Account),
		store:     cfg.Store,
		publisher: cfg.Publisher,
		retrier:   cfg.Retrier,
		idGen:     cfg.IDGen,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		cost:      cfg.CredentialCost,
		clock:     cfg.Clock,
	}
}

// OpenOptions controls how Open treats unreadable persisted data.
type OpenOptions struct {
	// ResetOnCorrupt starts with an empty ledger instead of failing when the
	// stored snapshot is corrupt. The corrupt data is overwritten by the next save.
	ResetOnCorrupt bool
}

// LoadStatus describes what Open found in the store.
type LoadStatus string

const (
	LoadEmpty        LoadStatus = "empty"
	LoadRestored     LoadStatus = "restored"
	LoadCorruptReset LoadStatus = "corrupt_reset"
)

// LoadResult is returned by Open.
type LoadResult struct {
	Status   LoadStatus
	Accounts int
	// Cause holds the decoding error when Status is LoadCorruptReset.
	Cause error
}

// Open hydrates the ledger from the store. A missing snapshot yields an empty
// ledger; a corrupt one is an error unless opts.ResetOnCorrupt is set.
func (uc *LedgerUseCase) Open(ctx context.Context, opts OpenOptions) (result LoadResult, err error) {
	start := time.Now()
	defer func() { uc.finish(OpOpen, "", start, err) }()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.opened {
		return LoadResult{}, ErrAlreadyOpen
	}

	accounts, err := uc.load(ctx)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		uc.accounts = make(map[string]*domain.Account)
		result = LoadResult{Status: LoadEmpty}
	case errors.Is(err, domain.ErrCorruptSnapshot) && opts.ResetOnCorrupt:
		uc.logger.Warn().Err(err).Msg("persisted ledger is corrupt, starting empty")
		uc.accounts = make(map[string]*domain.Account)
		result = LoadResult{Status: LoadCorruptReset, Cause: err}
	case err != nil:
		return LoadResult{}, err
	default:
		uc.accounts = accounts
		result = LoadResult{Status: LoadRestored, Accounts: len(accounts)}
	}

	uc.opened = true
	uc.setAccountsGauge()

	return result, nil
}

func (uc *LedgerUseCase) load(ctx context.Context) (map[string]*domain.Account, error) {
	records, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make(map[string]*domain.Account, len(records))
	for _, rec := range records {
		if _, exists := accounts[rec.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate account %s", domain.ErrCorruptSnapshot, rec.ID)
		}

		acc, err := domain.AccountFromRecord(rec)
		if err != nil {
			return nil, err
		}
		accounts[acc.ID] = acc
	}

	return accounts, nil
}

// AccountView is a read-only summary of an account.
type AccountView struct {
	ID         string
	HolderName string
	Balance    decimal.Decimal
	CreatedAt  time.Time
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	ID             string
	HolderName     string
	Credential     string
	InitialBalance string
}

// CreateAccount opens a new account and persists the ledger.
func (uc *LedgerUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (view *AccountView, err error) {
	start := time.Now()
	defer func() { uc.finish(OpCreateAccount, input.ID, start, err) }()

	if err := domain.ValidateAccountID(input.ID); err != nil {
		return nil, err
	}
	if err := domain.ValidateHolderName(input.HolderName); err != nil {
		return nil, err
	}

	balance, err := domain.ParseInitialBalance(input.InitialBalance)
	if err != nil {
		return nil, err
	}

	credential, err := domain.HashCredential(input.Credential, uc.cost)
	if err != nil {
		return nil, err
	}

	err = uc.apply(ctx, func(now time.Time) (*domain.Event, error) {
		if _, exists := uc.accounts[input.ID]; exists {
			return nil, domain.ErrDuplicateID
		}

		acc, err := domain.NewAccount(input.ID, input.HolderName, credential, balance, now)
		if err != nil {
			return nil, err
		}
		uc.accounts[acc.ID] = acc
		uc.setAccountsGauge()

		view = viewOf(acc)

		return uc.newEvent(domain.EventTypeAccountCreated, acc.ID, now, domain.AccountCreatedEvent{
			AccountID:      acc.ID,
			HolderName:     acc.HolderName,
			InitialBalance: balance.String(),
		}.Payload()), nil
	})

	return view, err
}

// Login authenticates an account holder. An unknown id and a wrong
// credential fail identically.
func (uc *LedgerUseCase) Login(ctx context.Context, id, credential string) (session *Session, err error) {
	start := time.Now()
	defer func() { uc.finish(OpLogin, id, start, err) }()

	createdAt, err := uc.authenticate(id, credential)
	if err != nil {
		return nil, domain.ErrAuthenticationFailed
	}

	return &Session{
		accountID:        id,
		accountCreatedAt: createdAt,
		issuedAt:         uc.now(),
	}, nil
}

// RestoreSession rebuilds a session for a caller whose identity was already
// verified by the presentation layer (for example through a signed token).
// accountCreatedAt must be the Session.AccountCreatedAt of the original
// login; it fails if the account no longer exists or was recreated since.
func (uc *LedgerUseCase) RestoreSession(ctx context.Context, accountID string, accountCreatedAt, issuedAt time.Time) (*Session, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	acc, ok := uc.accounts[accountID]
	if !ok || !acc.CreatedAt.Equal(accountCreatedAt) {
		return nil, domain.ErrAuthenticationFailed
	}

	return &Session{
		accountID:        accountID,
		accountCreatedAt: acc.CreatedAt,
		issuedAt:         issuedAt,
	}, nil
}

// Deposit credits the session's account and returns the new balance.
// If the mutation succeeds but saving fails, the new balance is returned
// together with an error wrapping domain.ErrPersistenceFailure.
func (uc *LedgerUseCase) Deposit(ctx context.Context, session *Session, amountText string) (balance decimal.Decimal, err error) {
	start := time.Now()
	defer func() { uc.finish(OpDeposit, sessionAccountID(session), start, err) }()

	amount, err := domain.ParseAmount(amountText)
	if err != nil {
		return decimal.Zero, err
	}

	err = uc.apply(ctx, func(now time.Time) (*domain.Event, error) {
		acc, err := uc.sessionAccountLocked(session)
		if err != nil {
			return nil, err
		}

		if err := acc.Deposit(amount, now); err != nil {
			return nil, err
		}
		balance = acc.Balance()

		return uc.newEvent(domain.EventTypeAccountDeposited, acc.ID, now, domain.BalanceChangedEvent{
			AccountID: acc.ID,
			Amount:    amount.String(),
			Balance:   balance.String(),
		}.Payload()), nil
	})

	return balance, err
}

// Withdraw debits the session's account and returns the new balance.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, session *Session, amountText string) (balance decimal.Decimal, err error) {
	start := time.Now()
	defer func() { uc.finish(OpWithdraw, sessionAccountID(session), start, err) }()

	amount, err := domain.ParseAmount(amountText)
	if err != nil {
		return decimal.Zero, err
	}

	err = uc.apply(ctx, func(now time.Time) (*domain.Event, error) {
		acc, err := uc.sessionAccountLocked(session)
		if err != nil {
			return nil, err
		}

		if err := acc.Withdraw(amount, now); err != nil {
			return nil, err
		}
		balance = acc.Balance()

		return uc.newEvent(domain.EventTypeAccountWithdrawn, acc.ID, now, domain.BalanceChangedEvent{
			AccountID: acc.ID,
			Amount:    amount.String(),
			Balance:   balance.String(),
		}.Payload()), nil
	})

	return balance, err
}

// CheckBalance returns the current balance of the session's account.
func (uc *LedgerUseCase) CheckBalance(ctx context.Context, session *Session) (balance decimal.Decimal, err error) {
	start := time.Now()
	defer func() { uc.finish(OpCheckBalance, sessionAccountID(session), start, err) }()

	uc.mu.RLock()
	defer uc.mu.RUnlock()

	acc, err := uc.sessionAccountLocked(session)
	if err != nil {
		return decimal.Zero, err
	}

	return acc.Balance(), nil
}

// TransactionHistory returns the session account's log in insertion order.
func (uc *LedgerUseCase) TransactionHistory(ctx context.Context, session *Session) (history []string, err error) {
	start := time.Now()
	defer func() { uc.finish(OpHistory, sessionAccountID(session), start, err) }()

	uc.mu.RLock()
	defer uc.mu.RUnlock()

	acc, err := uc.sessionAccountLocked(session)
	if err != nil {
		return nil, err
	}

	return acc.History(), nil
}

// TransferInput represents input for a transfer between two accounts.
type TransferInput struct {
	SenderID   string
	Credential string
	ReceiverID string
	Amount     string
}

// Transfer moves funds from the sender to the receiver after checking the
// sender's credential. Checks run in order: both accounts exist, credential,
// amount, distinct accounts, sufficient funds.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (err error) {
	start := time.Now()
	defer func() { uc.finish(OpTransfer, input.SenderID, start, err) }()

	uc.mu.RLock()
	_, senderOK := uc.accounts[input.SenderID]
	_, receiverOK := uc.accounts[input.ReceiverID]
	uc.mu.RUnlock()

	if !senderOK || !receiverOK {
		return domain.ErrAccountNotFound
	}

	senderCreatedAt, err := uc.authenticate(input.SenderID, input.Credential)
	if err != nil {
		return err
	}

	amount, err := domain.ParseAmount(input.Amount)
	if err != nil {
		return err
	}

	return uc.apply(ctx, func(now time.Time) (*domain.Event, error) {
		sender, ok := uc.accounts[input.SenderID]
		if !ok || !sender.CreatedAt.Equal(senderCreatedAt) {
			return nil, domain.ErrAccountNotFound
		}

		receiver, ok := uc.accounts[input.ReceiverID]
		if !ok {
			return nil, domain.ErrAccountNotFound
		}

		if err := sender.TransferTo(receiver, amount, now); err != nil {
			return nil, err
		}

		return uc.newEvent(domain.EventTypeTransferCompleted, sender.ID, now, domain.TransferCompletedEvent{
			FromAccountID: sender.ID,
			ToAccountID:   receiver.ID,
			Amount:        amount.String(),
		}.Payload()), nil
	})
}

// DeleteAccount removes an account after checking its credential.
func (uc *LedgerUseCase) DeleteAccount(ctx context.Context, id, credential string) (err error) {
	start := time.Now()
	defer func() { uc.finish(OpDeleteAccount, id, start, err) }()

	uc.mu.RLock()
	_, ok := uc.accounts[id]
	uc.mu.RUnlock()

	if !ok {
		return domain.ErrAccountNotFound
	}

	createdAt, err := uc.authenticate(id, credential)
	if err != nil {
		return err
	}

	return uc.apply(ctx, func(now time.Time) (*domain.Event, error) {
		acc, ok := uc.accounts[id]
		if !ok || !acc.CreatedAt.Equal(createdAt) {
			return nil, domain.ErrAccountNotFound
		}

		delete(uc.accounts, id)
		uc.setAccountsGauge()

		return uc.newEvent(domain.EventTypeAccountDeleted, id, now, domain.AccountDeletedEvent{
			AccountID: id,
		}.Payload()), nil
	})
}

// Flush saves the ledger if an earlier save failed. It is a no-op otherwise.
func (uc *LedgerUseCase) Flush(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { uc.finish(OpFlush, "", start, err) }()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if !uc.opened {
		return ErrNotOpen
	}

	if !uc.dirty {
		return nil
	}

	return uc.persistLocked(ctx)
}

// Dirty reports whether in-memory state has changes that failed to persist.
func (uc *LedgerUseCase) Dirty() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.dirty
}

// apply runs fn under the write lock and persists the ledger if fn succeeds.
// The returned event is published after the lock is released.
func (uc *LedgerUseCase) apply(ctx context.Context, fn func(now time.Time) (*domain.Event, error)) error {
	event, err := uc.applyLocked(ctx, fn)
	if event != nil {
		uc.publish(ctx, event)
	}
	return err
}

func (uc *LedgerUseCase) applyLocked(ctx context.Context, fn func(now time.Time) (*domain.Event, error)) (*domain.Event, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if !uc.opened {
		return nil, ErrNotOpen
	}

	event, err := fn(uc.now())
	if err != nil {
		return nil, err
	}

	return event, uc.persistLocked(ctx)
}

func (uc *LedgerUseCase) persistLocked(ctx context.Context) error {
	records := uc.recordsLocked()

	save := func() error {
		return uc.store.Save(ctx, records)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, save)
	} else {
		err = save()
	}

	if err != nil {
		uc.dirty = true
		if uc.metrics != nil {
			uc.metrics.PersistenceFailed()
		}
		uc.logger.Error().Err(err).Int("accounts", len(records)).Msg("failed to persist ledger")

		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	uc.dirty = false
	return nil
}

func (uc *LedgerUseCase) recordsLocked() []domain.AccountRecord {
	ids := make([]string, 0, len(uc.accounts))
	for id := range uc.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]domain.AccountRecord, len(ids))
	for i, id := range ids {
		records[i] = uc.accounts[id].Record()
	}
	return records
}

// authenticate verifies a credential without holding the lock during the
// hash comparison. Unknown ids are compared against a dummy hash so both
// failure paths take similar time.
func (uc *LedgerUseCase) authenticate(id, candidate string) (time.Time, error) {
	uc.mu.RLock()
	acc, ok := uc.accounts[id]
	var (
		credential domain.Credential
		createdAt  time.Time
	)
	if ok {
		credential = acc.Credential
		createdAt = acc.CreatedAt
	}
	uc.mu.RUnlock()

	if !ok {
		uc.dummyCredential().Matches(candidate)
		return time.Time{}, domain.ErrAuthenticationFailed
	}

	if !credential.Matches(candidate) {
		return time.Time{}, domain.ErrAuthenticationFailed
	}

	return createdAt, nil
}

func (uc *LedgerUseCase) dummyCredential() domain.Credential {
	uc.dummyOnce.Do(func() {
		uc.dummy, _ = domain.HashCredential("bankledger-dummy", uc.cost)
	})
	return uc.dummy
}

func (uc *LedgerUseCase) sessionAccountLocked(session *Session) (*domain.Account, error) {
	if session == nil {
		return nil, domain.ErrAuthenticationFailed
	}

	acc, ok := uc.accounts[session.accountID]
	if !ok || !acc.CreatedAt.Equal(session.accountCreatedAt) {
		return nil, domain.ErrAccountNotFound
	}

	return acc, nil
}

func (uc *LedgerUseCase) newEvent(eventType, accountID string, now time.Time, payload map[string]any) *domain.Event {
	if uc.publisher == nil {
		return nil
	}

	event := &domain.Event{
		Type:       eventType,
		AccountID:  accountID,
		Payload:    payload,
		OccurredAt: now,
	}
	if uc.idGen != nil {
		event.ID = uc.idGen.Generate()
	}

	return event
}

func (uc *LedgerUseCase) publish(ctx context.Context, event *domain.Event) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("failed to publish ledger event")
	}
}

func (uc *LedgerUseCase) finish(op, accountID string, start time.Time, err error) {
	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, domain.ErrPersistenceFailure):
		outcome = OutcomePersistFailed
	case err != nil:
		outcome = OutcomeRejected
	}

	if uc.metrics != nil {
		uc.metrics.ObserveOperation(op, outcome, time.Since(start))
	}

	var event *zerolog.Event
	switch outcome {
	case OutcomeSuccess:
		event = uc.logger.Info()
	case OutcomePersistFailed:
		event = uc.logger.Error().Err(err)
	default:
		event = uc.logger.Debug().Err(err)
	}

	event.
		Str("operation", op).
		Str("account_id", accountID).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("ledger operation")
}

func (uc *LedgerUseCase) setAccountsGauge() {
	if uc.metrics != nil {
		uc.metrics.SetAccounts(len(uc.accounts))
	}
}

func (uc *LedgerUseCase) now() time.Time {
	return uc.clock().UTC()
}

func viewOf(acc *domain.Account) *AccountView {
	return &AccountView{
		ID:         acc.ID,
		HolderName: acc.HolderName,
		Balance:    acc.Balance(),
		CreatedAt:  acc.CreatedAt,
	}
}

func sessionAccountID(s *Session) string {
	if s == nil {
		return ""
	}
	return s.accountID
}
