package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fentz26/cleanops/internal/events"
	"github.com/fentz26/cleanops/internal/metrics"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/stats"
	"github.com/sirupsen/logrus"
)

// SnapshotSource provides consistent views of every entity.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// Scheduler recomputes alerts on a ticker and announces each alert once,
// when it is first raised. An alert that clears and later reappears is
// announced again.
type Scheduler struct {
	source    SnapshotSource
	publisher events.Publisher
	metrics   metrics.Collector
	log       logrus.FieldLogger
	config    *Config
	alerts    stats.Options

	mu        sync.Mutex
	raised    map[string]stats.Alert
	sweeps    int
	failures  int
	lastSweep time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New creates a scheduler. Nil collaborators fall back to no-ops.
func New(src SnapshotSource, pub events.Publisher, m metrics.Collector, logger logrus.FieldLogger, cfg *Config, alerts stats.Options) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	// Every alert is tracked, not only the ones a dashboard would show.
	alerts.MaxAlerts = 0

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		source:    src,
		publisher: pub,
		metrics:   m,
		log:       logger,
		config:    cfg,
		alerts:    alerts,
		raised:    make(map[string]stats.Alert),
		ctx:       ctx,
		cancel:    cancel,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the sweep loop. It is a no-op when the interval is zero.
func (sch *Scheduler) Start() {
	if sch.config.Interval <= 0 {
		sch.log.Info("alert scheduler disabled")
		return
	}
	sch.wg.Add(1)
	go sch.loop()
	sch.log.WithField("interval", sch.config.Interval).Info("alert scheduler started")
}

// Stop gracefully stops the scheduler.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.log.Info("alert scheduler stopped")
}

func (sch *Scheduler) loop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			if _, err := sch.Sweep(sch.ctx); err != nil && sch.ctx.Err() == nil {
				sch.log.WithError(err).Warn("alert sweep failed")
			}
		}
	}
}

// Sweep recomputes alerts once and returns those raised since the previous sweep.
func (sch *Scheduler) Sweep(ctx context.Context) ([]stats.Alert, error) {
	snap, err := sch.source.Snapshot(ctx)
	if err != nil {
		sch.mu.Lock()
		sch.failures++
		sch.mu.Unlock()
		return nil, err
	}
	now := sch.now()
	current := stats.Compute(snap, now, sch.alerts).Alerts

	sch.mu.Lock()
	seen := make(map[string]stats.Alert, len(current))
	var fresh []stats.Alert
	for _, a := range current {
		key := a.Key()
		seen[key] = a
		if _, ok := sch.raised[key]; !ok {
			fresh = append(fresh, a)
		}
	}
	sch.raised = seen
	sch.sweeps++
	sch.lastSweep = now
	sch.mu.Unlock()

	if len(fresh) == 0 {
		return nil, nil
	}

	evs := make([]events.Event, 0, len(fresh))
	for _, a := range fresh {
		sch.metrics.RecordAlert(a.Rule, a.Severity)
		sch.log.WithFields(logrus.Fields{
			"rule":          a.Rule,
			"severity":      a.Severity,
			"department_id": a.DepartmentID,
			"task_id":       a.TaskID,
			"age":           a.Age.Round(time.Second),
		}).Warn("alert raised")
		evs = append(evs, events.Event{
			Type:         events.TypeAlertRaised,
			DepartmentID: a.DepartmentID,
			EmployeeID:   a.EmployeeID,
			TaskID:       a.TaskID,
			Rule:         a.Rule,
			Severity:     a.Severity,
			Timestamp:    now,
		})
	}
	if err := sch.publisher.Publish(ctx, evs...); err != nil {
		sch.log.WithError(err).Warn("alert publish failed")
	}
	return fresh, nil
}

// GetStats returns current scheduler statistics.
func (sch *Scheduler) GetStats() map[string]interface{} {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	return map[string]interface{}{
		"sweeps":        sch.sweeps,
		"failures":      sch.failures,
		"active_alerts": len(sch.raised),
		"last_sweep":    sch.lastSweep,
		"interval":      sch.config.Interval.String(),
	}
}
