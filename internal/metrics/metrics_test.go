package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	m := NewNop()
	require.NotPanics(t, func() {
		m.RecordAssignment("created")
		m.RecordBatch(3, 1)
		m.RecordTransition("pending", "in_progress", "ok")
		m.ObserveStats(time.Millisecond, false)
		m.RecordAlert("pending_too_long", "warning")
	})
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "")

	p.RecordAssignment("created")
	p.RecordAssignment("created")
	p.RecordAssignment("conflict")
	p.RecordBatch(3, 1)
	p.RecordTransition("pending", "in_progress", "ok")
	p.ObserveStats(5*time.Millisecond, true)
	p.RecordAlert("not_cleaned", "critical")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.assignments.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.assignments.WithLabelValues("conflict")))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.batchMembers.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.batchMembers.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.transitions.WithLabelValues("pending", "in_progress", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.alerts.WithLabelValues("not_cleaned", "critical")))

	count, err := testutil.GatherAndCount(reg, "cleanops_stats_compute_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
