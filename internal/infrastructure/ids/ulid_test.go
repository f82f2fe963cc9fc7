package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGenerator_Generate(t *testing.T) {
	gen := NewULIDGenerator()

	id := gen.Generate()
	if _, err := ulid.ParseStrict(id); err != nil {
		t.Fatalf("expected valid ULID, got %q: %v", id, err)
	}
}

func TestULIDGenerator_MonotonicWithinMillisecond(t *testing.T) {
	gen := NewULIDGenerator()
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	gen.clock = func() time.Time { return fixed }

	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("expected %s > %s", next, prev)
		}
		prev = next
	}
}
