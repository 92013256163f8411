package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.TransfersCreated == nil || m.HTTPRequests == nil || m.LedgerChecks == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestCountersIncrement(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.AccountsOpened.Inc()
	m.TransactionsRecorded.WithLabelValues("Deposit").Inc()
	m.TransactionsRecorded.WithLabelValues("Deposit").Inc()

	if got := testutil.ToFloat64(m.AccountsOpened); got != 1 {
		t.Fatalf("expected 1 account opened, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransactionsRecorded.WithLabelValues("Deposit")); got != 2 {
		t.Fatalf("expected 2 deposits, got %v", got)
	}
}

func TestNewWithRegistryTwicePanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewWithRegistry(registry)

	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	NewWithRegistry(registry)
}
