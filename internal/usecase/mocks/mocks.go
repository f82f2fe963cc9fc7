package mocks

import (
	"context"
	"strconv"
	"sync"

	"github.com/iho/bankledger/internal/domain"
)

// MemoryStore is an in-memory Store. Tests override behaviour through the
// func fields.
type MemoryStore struct {
	mu      sync.Mutex
	records []domain.AccountRecord
	saved   bool
	saves   int

	LoadFunc func(ctx context.Context) ([]domain.AccountRecord, error)
	SaveFunc func(ctx context.Context, records []domain.AccountRecord) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed makes Load return the given records as if they had been saved before.
func (m *MemoryStore) Seed(records ...domain.AccountRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = cloneRecords(records)
	m.saved = true
}

func (m *MemoryStore) Load(ctx context.Context) ([]domain.AccountRecord, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, domain.ErrSnapshotNotFound
	}
	return cloneRecords(m.records), nil
}

func (m *MemoryStore) Save(ctx context.Context, records []domain.AccountRecord) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, records); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = cloneRecords(records)
	m.saved = true
	m.saves++
	return nil
}

// Records returns the last saved snapshot.
func (m *MemoryStore) Records() []domain.AccountRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRecords(m.records)
}

// Saves returns how many saves succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneRecords(records []domain.AccountRecord) []domain.AccountRecord {
	out := make([]domain.AccountRecord, len(records))
	for i, rec := range records {
		rec.History = append([]string(nil), rec.History...)
		out[i] = rec
	}
	return out
}

// RecordingPublisher collects published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*domain.Event

	PublishFunc func(ctx context.Context, event *domain.Event) error
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, event *domain.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	if p.PublishFunc != nil {
		return p.PublishFunc(ctx, event)
	}
	return nil
}

func (p *RecordingPublisher) Events() []*domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.Event(nil), p.events...)
}

// SequenceIDGenerator returns ids from GenerateFunc or a fixed sequence.
type SequenceIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

func (m *SequenceIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "evt-" + strconv.Itoa(m.next)
}
