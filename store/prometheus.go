package store

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type prometheusCounter struct {
	vec *prometheus.CounterVec
}

// Inc increments Prometheus CounterVec value
func (c *prometheusCounter) Inc(labelValues ...string) {
	c.vec.WithLabelValues(labelValues...).Inc()
}

type prometheusSummary struct {
	vec *prometheus.SummaryVec
}

// Observe adds an observation to the Prometheus SummaryVec
func (s *prometheusSummary) Observe(value float64, labelValues ...string) {
	s.vec.WithLabelValues(labelValues...).Observe(value)
}

// PrometheusProvider creates metrics registered with a Prometheus registerer.
// Metrics with the same name are created once and shared.
// See: https://prometheus.io/
type PrometheusProvider struct {
	Registerer prometheus.Registerer
	Namespace  string

	m         sync.Mutex
	counters  map[string]*prometheus.CounterVec
	summaries map[string]*prometheus.SummaryVec
}

// NewPrometheusProvider creates a provider registering into r. If r is nil
// the default Prometheus registerer is used.
func NewPrometheusProvider(r prometheus.Registerer) *PrometheusProvider {
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	return &PrometheusProvider{
		Registerer: r,
		Namespace:  "objectstore",
		counters:   make(map[string]*prometheus.CounterVec),
		summaries:  make(map[string]*prometheus.SummaryVec),
	}
}

// NewCounter creates new prometheus CounterVec
func (p *PrometheusProvider) NewCounter(name string, help string, labelNames ...string) Counter {
	p.m.Lock()
	defer p.m.Unlock()
	vec, found := p.counters[name]
	if !found {
		vec = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: p.Namespace,
				Name:      name,
				Help:      help,
			},
			labelNames,
		)
		p.Registerer.MustRegister(vec)
		p.counters[name] = vec
	}
	return &prometheusCounter{vec}
}

// NewSummary creates new prometheus SummaryVec
func (p *PrometheusProvider) NewSummary(name string, help string, labelNames ...string) Summary {
	p.m.Lock()
	defer p.m.Unlock()
	vec, found := p.summaries[name]
	if !found {
		vec = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace: p.Namespace,
				Name:      name,
				Help:      help,
			},
			labelNames,
		)
		p.Registerer.MustRegister(vec)
		p.summaries[name] = vec
	}
	return &prometheusSummary{vec}
}
