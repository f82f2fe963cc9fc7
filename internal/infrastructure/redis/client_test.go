package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr(), 250*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	opts := client.Options()
	if opts.DialTimeout != 250*time.Millisecond || opts.ReadTimeout != 250*time.Millisecond || opts.WriteTimeout != 250*time.Millisecond {
		t.Errorf("timeouts not applied: dial=%v read=%v write=%v", opts.DialTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestNewClientZeroTimeoutKeepsDefaults(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if client.Options().DialTimeout != 5*time.Second {
		t.Errorf("expected go-redis default dial timeout, got %v", client.Options().DialTimeout)
	}
}

func TestNewClientErrors(t *testing.T) {
	down := miniredis.RunT(t)
	downURL := "redis://" + down.Addr()
	down.Close()

	tests := []struct {
		name string
		url  string
	}{
		{name: "unparsable url", url: "://bad-url"},
		{name: "wrong scheme", url: "http://localhost:6379"},
		{name: "server down", url: downURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(context.Background(), tt.url, 200*time.Millisecond); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
