package usecase

import (
	"context"
	"time"

	"github.com/iho/bankledger/internal/domain"
)

// Store persists the full account set as one snapshot.
type Store interface {
	// Load returns every persisted account. It returns domain.ErrSnapshotNotFound
	// when nothing has been saved yet and an error wrapping
	// domain.ErrCorruptSnapshot when stored data cannot be decoded.
	Load(ctx context.Context) ([]domain.AccountRecord, error)
	// Save atomically replaces the persisted snapshot.
	Save(ctx context.Context, records []domain.AccountRecord) error
}

// Publisher delivers ledger events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// Retrier re-runs an operation on transient failure.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder receives operation outcomes.
type MetricsRecorder interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
	SetAccounts(count int)
	PersistenceFailed()
}
