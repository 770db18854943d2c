package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewManagerRegistersOnCustomRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	manager := NewManager(WithPrometheusRegistry(registry), WithNamespace("test"))

	manager.cacheLookups.WithLabelValues("search", "hit").Inc()
	manager.cacheLookups.WithLabelValues("search", "hit").Inc()

	if got := testutil.ToFloat64(manager.cacheLookups.WithLabelValues("search", "hit")); got != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, family := range families {
		if family.GetName() == "test_cache_lookups_total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected test_cache_lookups_total to be registered")
	}
}

func TestRecordersUseGlobalRegistry(t *testing.T) {
	before := testutil.ToFloat64(globalManager.fulfillments.WithLabelValues("unknown", "FINAL"))
	RecordFulfillment("unknown", "FINAL")
	after := testutil.ToFloat64(globalManager.fulfillments.WithLabelValues("unknown", "FINAL"))

	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}

	if GetRegistry() == nil {
		t.Fatalf("expected registry")
	}
}
