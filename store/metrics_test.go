package store

import (
	"sync"
	"testing"

	"github.com/facebookgo/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := NewPrometheusProvider(registry)
	s := NewMetrics(NewMemory(), provider, "mem")

	s.Put("a", []byte("hello"))
	s.Get("a")
	s.Get("missing")
	s.Contains("a")
	s.Delete("a")
	s.ListPrefix("")

	calls := provider.counters["store_calls"]
	var table = []struct {
		op    string
		count float64
	}{
		{"put", 1},
		{"get", 2},
		{"contains", 1},
		{"delete", 1},
		{"list_prefix", 1},
	}
	for _, tab := range table {
		n := testutil.ToFloat64(calls.WithLabelValues("mem", tab.op))
		if n != tab.count {
			t.Errorf("store_calls{op=%s} = %v, expected %v", tab.op, n, tab.count)
		}
	}
	// a missing key is not an error
	errs := provider.counters["store_errors"]
	if n := testutil.CollectAndCount(errs); n != 0 {
		t.Errorf("store_errors has %d series, expected 0", n)
	}

	// a second store shares the registered metrics
	s2 := NewMetrics(NewMemory(), provider, "other")
	s2.Put("b", nil)
	if n := testutil.ToFloat64(calls.WithLabelValues("other", "put")); n != 1 {
		t.Errorf("store_calls{label=other,op=put} = %v, expected 1", n)
	}
}

func TestStatsMetrics(t *testing.T) {
	var m sync.Mutex
	sums := make(map[string]float64)
	var histograms []string
	client := &stats.HookClient{
		BumpSumHook: func(key string, val float64) {
			m.Lock()
			sums[key] += val
			m.Unlock()
		},
		BumpHistogramHook: func(key string, val float64) {
			m.Lock()
			histograms = append(histograms, key)
			m.Unlock()
		},
	}
	s := NewMetrics(NewMemory(), StatsProvider{Client: client}, "mem")
	s.Put("a", []byte("x"))
	s.Put("a", []byte("y"))
	s.Get("a")

	if sums["store_calls.mem.put"] != 2 {
		t.Errorf("sums = %v", sums)
	}
	if sums["store_calls.mem.get"] != 1 {
		t.Errorf("sums = %v", sums)
	}
	if len(histograms) != 3 || histograms[0] != "store_value_bytes.mem.put" {
		t.Errorf("histograms = %v", histograms)
	}
}

func TestNoopMetricsChecksLabels(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a label count mismatch")
		}
	}()
	c := NoopMetrics{}.NewCounter("x", "help", "a", "b")
	c.Inc("only-one")
}
