package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

func TestStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t, "")

	_, err := store.Load(context.Background())
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store, mr := newTestStore(t, "test:accounts")
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []domain.AccountRecord{{
		ID:         "A1",
		HolderName: "Alice",
		Credential: "$2a$04$hash",
		Balance:    decimal.RequireFromString("12.5"),
		History:    []string{"Account created with balance: 12.5"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}}

	if err := store.Save(ctx, records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !mr.Exists("test:accounts") {
		t.Fatal("expected snapshot key to exist")
	}

	if ttl := mr.TTL("test:accounts"); ttl != 0 {
		t.Errorf("expected no expiry, got %v", ttl)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(got) != 1 || got[0].ID != "A1" || !got[0].Balance.Equal(records[0].Balance) {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	store, mr := newTestStore(t, "")

	if err := mr.Set(DefaultKey, "garbage"); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background())
	if !errors.Is(err, domain.ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestStoreServerDown(t *testing.T) {
	store, mr := newTestStore(t, "")
	mr.Close()

	ctx := context.Background()
	if _, err := store.Load(ctx); err == nil || errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected connection error, got %v", err)
	}

	if err := store.Save(ctx, nil); err == nil {
		t.Fatal("expected save to fail when server is down")
	}
}
