package store

import (
	"strings"

	"github.com/facebookgo/stats"
)

// StatsProvider adapts a facebookgo stats.Client to the MetricsProvider
// interface. Label values are joined onto the metric name with dots, e.g.
// "store_calls.files.get".
type StatsProvider struct {
	Client stats.Client
}

type statsMetric struct {
	client stats.Client
	name   string
}

func (m *statsMetric) key(labelValues []string) string {
	if len(labelValues) == 0 {
		return m.name
	}
	return m.name + "." + strings.Join(labelValues, ".")
}

func (m *statsMetric) Inc(labelValues ...string) {
	m.client.BumpSum(m.key(labelValues), 1)
}

func (m *statsMetric) Observe(value float64, labelValues ...string) {
	m.client.BumpHistogram(m.key(labelValues), value)
}

// NewCounter returns a counter which bumps a sum by one for every Inc.
func (p StatsProvider) NewCounter(name string, help string, labelNames ...string) Counter {
	return &statsMetric{client: p.Client, name: name}
}

// NewSummary returns a summary which records every observation in a
// histogram.
func (p StatsProvider) NewSummary(name string, help string, labelNames ...string) Summary {
	return &statsMetric{client: p.Client, name: name}
}
