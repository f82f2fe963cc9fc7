// Package snapshot encodes the full account set as a versioned JSON document.
// It is shared by the stores that persist the ledger as one blob.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

const (
	// Format identifies bankledger snapshots.
	Format = "bankledger.accounts"
	// Version is the current snapshot schema version.
	Version = 1
)

type document struct {
	Meta     meta      `json:"_meta"`
	Accounts []account `json:"accounts"`
}

type meta struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

type account struct {
	ID         string          `json:"id"`
	HolderName string          `json:"holder_name"`
	Credential string          `json:"credential"`
	Balance    decimal.Decimal `json:"balance"`
	History    []string        `json:"history"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Encode renders records as an indented snapshot document.
func Encode(records []domain.AccountRecord, savedAt time.Time) ([]byte, error) {
	doc := document{
		Meta: meta{
			Format:  Format,
			Version: Version,
			SavedAt: savedAt.UTC(),
		},
		Accounts: make([]account, len(records)),
	}

	for i, rec := range records {
		history := rec.History
		if history == nil {
			history = []string{}
		}

		doc.Accounts[i] = account{
			ID:         rec.ID,
			HolderName: rec.HolderName,
			Credential: string(rec.Credential),
			Balance:    rec.Balance,
			History:    history,
			CreatedAt:  rec.CreatedAt,
			UpdatedAt:  rec.UpdatedAt,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return data, nil
}

// Decode parses a snapshot document. Any structural problem is reported as
// domain.ErrCorruptSnapshot.
func Decode(data []byte) ([]domain.AccountRecord, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}

	if doc.Meta.Format != Format {
		return nil, fmt.Errorf("%w: unexpected format %q", domain.ErrCorruptSnapshot, doc.Meta.Format)
	}

	if doc.Meta.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrCorruptSnapshot, doc.Meta.Version)
	}

	seen := make(map[string]struct{}, len(doc.Accounts))
	records := make([]domain.AccountRecord, 0, len(doc.Accounts))

	for _, acc := range doc.Accounts {
		if _, dup := seen[acc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate account %s", domain.ErrCorruptSnapshot, acc.ID)
		}
		seen[acc.ID] = struct{}{}

		records = append(records, domain.AccountRecord{
			ID:         acc.ID,
			HolderName: acc.HolderName,
			Credential: domain.Credential(acc.Credential),
			Balance:    acc.Balance,
			History:    acc.History,
			CreatedAt:  acc.CreatedAt,
			UpdatedAt:  acc.UpdatedAt,
		})
	}

	return records, nil
}
