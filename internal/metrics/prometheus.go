package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Collector backed by Prometheus metrics.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	assignments  *prometheus.CounterVec
	batchMembers *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	statsLatency *prometheus.HistogramVec
	alerts       *prometheus.CounterVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates a collector registering on reg
// (prometheus.DefaultRegisterer if nil) under namespace ("cleanops" if empty).
// Metrics are registered lazily on first use.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "cleanops"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "total",
			Help:      "Single-department assignments by outcome.",
		}, []string{"outcome"})

		p.batchMembers = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "batch_members_total",
			Help:      "Batch assignment members by result (succeeded, failed).",
		}, []string{"result"})

		p.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Task status transition attempts by from, to and outcome.",
		}, []string{"from", "to", "outcome"})

		p.statsLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "stats",
			Name:      "compute_seconds",
			Help:      "Aggregate stats latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"cached"})

		p.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "alerts",
			Name:      "raised_total",
			Help:      "Newly raised alerts by rule and severity.",
		}, []string{"rule", "severity"})

		p.reg.MustRegister(p.assignments, p.batchMembers, p.transitions, p.statsLatency, p.alerts)
	})
}

// RecordAssignment increments the assignment counter.
func (p *Prometheus) RecordAssignment(outcome string) {
	p.ensureRegistered()
	p.assignments.WithLabelValues(outcome).Inc()
}

// RecordBatch adds batch member results.
func (p *Prometheus) RecordBatch(succeeded, failed int) {
	p.ensureRegistered()
	p.batchMembers.WithLabelValues("succeeded").Add(float64(succeeded))
	p.batchMembers.WithLabelValues("failed").Add(float64(failed))
}

// RecordTransition increments the transition counter.
func (p *Prometheus) RecordTransition(from, to, outcome string) {
	p.ensureRegistered()
	p.transitions.WithLabelValues(from, to, outcome).Inc()
}

// ObserveStats records stats latency.
func (p *Prometheus) ObserveStats(d time.Duration, cached bool) {
	p.ensureRegistered()
	p.statsLatency.WithLabelValues(strconv.FormatBool(cached)).Observe(d.Seconds())
}

// RecordAlert increments the raised alert counter.
func (p *Prometheus) RecordAlert(rule, severity string) {
	p.ensureRegistered()
	p.alerts.WithLabelValues(rule, severity).Inc()
}
