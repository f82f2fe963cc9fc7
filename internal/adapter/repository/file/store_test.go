package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

func testRecords() []domain.AccountRecord {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.AccountRecord{
		{
			ID:         "A1",
			HolderName: "Alice",
			Credential: "$2a$04$hash",
			Balance:    decimal.RequireFromString("150"),
			History:    []string{"Account created with balance: 100.0", "Deposited: 50.0 | New Balance: 150.0"},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "accounts.json"))

	_, err := store.Load(context.Background())
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := NewStore(path)

	if err := store.Save(ctx, testRecords()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(got) != 1 || got[0].ID != "A1" || got[0].Balance.String() != "150" {
		t.Fatalf("unexpected records: %+v", got)
	}

	if len(got[0].History) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(got[0].History))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}
}

func TestStore_SaveReplacesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "accounts.json"))

	if err := store.Save(ctx, testRecords()); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := store.Save(ctx, nil); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty snapshot after overwrite, got %d records", len(got))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir failed: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the snapshot file, got %v", names)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewStore(path).Load(context.Background())
	if !errors.Is(err, domain.ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestStore_SaveMissingDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing", "accounts.json"))

	err := store.Save(context.Background(), testRecords())
	if err == nil {
		t.Fatal("expected error when directory does not exist")
	}
}

func TestStore_CanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := NewStore(path)
	if err := store.Save(context.Background(), testRecords()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("save: expected context.Canceled, got %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("load: expected context.Canceled, got %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("canceled save must leave the snapshot intact, got %d records, err=%v", len(got), err)
	}
}
