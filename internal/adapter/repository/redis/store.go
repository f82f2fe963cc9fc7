package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/bankledger/internal/adapter/repository/snapshot"
	"github.com/iho/bankledger/internal/domain"
)

// DefaultKey is the key holding the snapshot when none is configured.
const DefaultKey = "bankledger:accounts"

// Store implements usecase.Store by keeping the snapshot under one Redis key.
type Store struct {
	client *redis.Client
	key    string
	clock  func() time.Time
}

// NewStore creates a new Store.
func NewStore(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}

	return &Store{
		client: client,
		key:    key,
		clock:  time.Now,
	}
}

// Load fetches and decodes the snapshot.
func (s *Store) Load(ctx context.Context) ([]domain.AccountRecord, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return snapshot.Decode(data)
}

// Save replaces the snapshot. SET swaps the whole value atomically.
func (s *Store) Save(ctx context.Context, records []domain.AccountRecord) error {
	data, err := snapshot.Encode(records, s.clock())
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}
