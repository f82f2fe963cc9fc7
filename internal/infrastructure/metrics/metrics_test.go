package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	m := New()

	m.ObserveOperation("deposit", "success", 0)

	metricFamilies, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	a := New()
	b := New()

	a.SetAccounts(3)

	if got := testutil.ToFloat64(b.Accounts); got != 0 {
		t.Fatalf("expected independent registries, got %v", got)
	}
}

func TestRecorder(t *testing.T) {
	m := New()

	m.ObserveOperation("deposit", "success", 5*time.Millisecond)
	m.ObserveOperation("deposit", "success", 5*time.Millisecond)
	m.ObserveOperation("withdraw", "rejected", time.Millisecond)
	m.SetAccounts(2)
	m.PersistenceFailed()

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("deposit", "success")); got != 2 {
		t.Errorf("expected 2 deposits, got %v", got)
	}

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "rejected")); got != 1 {
		t.Errorf("expected 1 rejected withdraw, got %v", got)
	}

	if got := testutil.ToFloat64(m.Accounts); got != 2 {
		t.Errorf("expected 2 accounts, got %v", got)
	}

	if got := testutil.ToFloat64(m.PersistenceFailures); got != 1 {
		t.Errorf("expected 1 persistence failure, got %v", got)
	}

	if got := testutil.CollectAndCount(m.OperationDuration); got != 2 {
		t.Errorf("expected 2 duration series, got %d", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.SetAccounts(4)

	path := filepath.Join(t.TempDir(), "bankledger.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if !strings.Contains(string(data), "bankledger_accounts 4") {
		t.Fatalf("expected gauge in textfile, got:\n%s", data)
	}
}
