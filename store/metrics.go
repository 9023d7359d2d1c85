package store

import "fmt"

// Counter is a single float metric that can be incremented by one.
type Counter interface {
	Inc(labelValues ...string)
}

// Summary is a float value metric that provides a history of observations.
type Summary interface {
	Observe(value float64, labelValues ...string)
}

// MetricsProvider is a facility to create metrics instances.
type MetricsProvider interface {
	NewCounter(name string, help string, labelNames ...string) Counter
	NewSummary(name string, help string, labelNames ...string) Summary
}

// NoopMetrics uses dummy metrics that are not stored anywhere. They still
// check the number of label values so misuse shows up in tests.
type NoopMetrics struct{}

type noopMetric struct {
	labelCount int
}

func (m *noopMetric) checkLabelValues(labelValues ...string) {
	if len(labelValues) != m.labelCount {
		panic(fmt.Sprintf("Expected %d labels but got %d", m.labelCount, len(labelValues)))
	}
}

func (m *noopMetric) Inc(labelValues ...string) {
	m.checkLabelValues(labelValues...)
}

func (m *noopMetric) Observe(value float64, labelValues ...string) {
	m.checkLabelValues(labelValues...)
}

// NewCounter creates a counter that does nothing.
func (NoopMetrics) NewCounter(name string, help string, labelNames ...string) Counter {
	return &noopMetric{len(labelNames)}
}

// NewSummary creates a summary that does nothing.
func (NoopMetrics) NewSummary(name string, help string, labelNames ...string) Summary {
	return &noopMetric{len(labelNames)}
}

// metricsStore is a Store decorator that collects metrics.
type metricsStore struct {
	store       Store
	label       string
	calls       Counter // labels: label, op
	errors      Counter // labels: label, op
	valueSize   Summary // labels: label, op
	listSummary Summary // labels: label
}

// NewMetrics wraps s so every call is counted through provider. The label is
// attached to every metric, so several stores can share a provider.
func NewMetrics(s Store, provider MetricsProvider, label string) Store {
	return &metricsStore{
		store:       s,
		label:       label,
		calls:       provider.NewCounter("store_calls", "Number of store calls", "label", "op"),
		errors:      provider.NewCounter("store_errors", "Number of failed store calls", "label", "op"),
		valueSize:   provider.NewSummary("store_value_bytes", "Size of values read and written", "label", "op"),
		listSummary: provider.NewSummary("store_list_keys", "Number of keys returned by ListPrefix", "label"),
	}
}

func (s *metricsStore) track(op string, err error) {
	s.calls.Inc(s.label, op)
	if err != nil && err != ErrNotExist {
		s.errors.Inc(s.label, op)
	}
}

func (s *metricsStore) List() <-chan string {
	s.calls.Inc(s.label, "list")
	return s.store.List()
}

func (s *metricsStore) ListPrefix(prefix string) ([]string, error) {
	keys, err := s.store.ListPrefix(prefix)
	s.track("list_prefix", err)
	s.listSummary.Observe(float64(len(keys)), s.label)
	return keys, err
}

func (s *metricsStore) Contains(key string) (bool, error) {
	ok, err := s.store.Contains(key)
	s.track("contains", err)
	return ok, err
}

func (s *metricsStore) Get(key string) ([]byte, error) {
	value, err := s.store.Get(key)
	s.track("get", err)
	if err == nil {
		s.valueSize.Observe(float64(len(value)), s.label, "get")
	}
	return value, err
}

func (s *metricsStore) Put(key string, value []byte) error {
	err := s.store.Put(key, value)
	s.track("put", err)
	s.valueSize.Observe(float64(len(value)), s.label, "put")
	return err
}

func (s *metricsStore) Delete(key string) (bool, error) {
	ok, err := s.store.Delete(key)
	s.track("delete", err)
	return ok, err
}

func (s *metricsStore) Close() error {
	return Close(s.store)
}
