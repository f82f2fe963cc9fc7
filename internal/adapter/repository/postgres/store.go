package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	selectAccountsSQL = `SELECT id, holder_name, credential, balance::text, created_at, updated_at
FROM accounts ORDER BY id`
	selectHistorySQL = `SELECT account_id, entry FROM account_history ORDER BY account_id, seq`

	deleteHistorySQL  = `DELETE FROM account_history`
	deleteAccountsSQL = `DELETE FROM accounts`
	insertAccountSQL  = `INSERT INTO accounts (id, holder_name, credential, balance, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6)`
)

var historyColumns = []string{"account_id", "seq", "entry"}

// Store implements usecase.Store on two tables: accounts and
// account_history. Every Save rewrites both inside one transaction.
type Store struct {
	pool pgxPool
}

// NewStore creates a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return newStoreWithPool(pool)
}

func newStoreWithPool(pool pgxPool) *Store {
	return &Store{pool: pool}
}

// Load reads every account with its history. An empty accounts table is
// reported as domain.ErrSnapshotNotFound.
func (s *Store) Load(ctx context.Context) ([]domain.AccountRecord, error) {
	rows, err := s.pool.Query(ctx, selectAccountsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	var (
		records []domain.AccountRecord
		index   = make(map[string]int)
	)

	for rows.Next() {
		var (
			rec     domain.AccountRecord
			cred    string
			balance string
		)
		if err := rows.Scan(&rec.ID, &rec.HolderName, &cred, &balance, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}

		rec.Credential = domain.Credential(cred)
		rec.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: account %s has unparsable balance %q", domain.ErrCorruptSnapshot, rec.ID, balance)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.UpdatedAt = rec.UpdatedAt.UTC()
		rec.History = []string{}

		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	if len(records) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}

	if err := s.loadHistory(ctx, records, index); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Store) loadHistory(ctx context.Context, records []domain.AccountRecord, index map[string]int) error {
	rows, err := s.pool.Query(ctx, selectHistorySQL)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var accountID, entry string
		if err := rows.Scan(&accountID, &entry); err != nil {
			return fmt.Errorf("failed to scan history: %w", err)
		}

		i, ok := index[accountID]
		if !ok {
			return fmt.Errorf("%w: history entry for unknown account %s", domain.ErrCorruptSnapshot, accountID)
		}
		records[i].History = append(records[i].History, entry)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	return nil
}

// Save replaces both tables with records.
func (s *Store) Save(ctx context.Context, records []domain.AccountRecord) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, deleteHistorySQL); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	if _, err = tx.Exec(ctx, deleteAccountsSQL); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}

	var history [][]any
	for _, rec := range records {
		if _, err = tx.Exec(ctx, insertAccountSQL,
			rec.ID,
			rec.HolderName,
			string(rec.Credential),
			rec.Balance.String(),
			rec.CreatedAt.UTC(),
			rec.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert account %s: %w", rec.ID, err)
		}

		for seq, entry := range rec.History {
			history = append(history, []any{rec.ID, int32(seq), entry})
		}
	}

	if len(history) > 0 {
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{"account_history"}, historyColumns, pgx.CopyFromRows(history)); err != nil {
			return fmt.Errorf("failed to copy history: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

