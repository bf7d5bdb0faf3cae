// Package stats derives dashboard aggregates from an entity snapshot.
//
// Compute is a pure function: the same snapshot, clock reading and options
// always produce the same Stats. Any caching belongs to the caller.
package stats

import (
	"sort"
	"time"

	"github.com/fentz26/cleanops/internal/models"
)

// Alert rules.
const (
	RulePendingTooLong    = "pending_too_long"
	RuleInProgressTooLong = "in_progress_too_long"
	RuleNotCleaned        = "not_cleaned"
)

// Severities, most urgent first.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Options configures alert thresholds. A threshold <= 0 disables its rule.
type Options struct {
	PendingAfter    time.Duration  `yaml:"pending_after"`
	InProgressAfter time.Duration  `yaml:"in_progress_after"`
	UncleanedAfter  time.Duration  `yaml:"uncleaned_after"`
	MaxAlerts       int            `yaml:"max_alerts"`
	Location        *time.Location `yaml:"-"`
}

// DefaultOptions returns the default alert thresholds.
func DefaultOptions() Options {
	return Options{
		PendingAfter:    4 * time.Hour,
		InProgressAfter: 8 * time.Hour,
		MaxAlerts:       20,
		Location:        time.UTC,
	}
}

// Alert flags a task or department that needs attention.
type Alert struct {
	Rule         string        `json:"rule"`
	Severity     string        `json:"severity"`
	DepartmentID string        `json:"department_id"`
	Department   string        `json:"department"`
	TaskID       string        `json:"task_id,omitempty"`
	EmployeeID   string        `json:"employee_id,omitempty"`
	Since        time.Time     `json:"since"`
	Age          time.Duration `json:"age"`
}

// Key identifies an alert across recomputations.
func (a Alert) Key() string {
	if a.TaskID != "" {
		return a.Rule + ":" + a.TaskID
	}
	return a.Rule + ":" + a.DepartmentID
}

// Workload summarizes one employee's current load.
type Workload struct {
	EmployeeID     string `json:"employee_id"`
	Name           string `json:"name"`
	Active         int    `json:"active"`
	CompletedToday int    `json:"completed_today"`
}

// Totals counts the entities in the snapshot.
type Totals struct {
	Departments int `json:"departments"`
	Employees   int `json:"employees"`
	Tasks       int `json:"tasks"`
}

// Stats is the dashboard aggregate.
type Stats struct {
	Pending        int                 `json:"pending"`
	InProgress     int                 `json:"in_progress"`
	CompletedToday int                 `json:"completed_today"`
	Unassigned     []models.Department `json:"unassigned"`
	Alerts         []Alert             `json:"alerts"`
	Workload       []Workload          `json:"workload"`
	Totals         Totals              `json:"totals"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// Compute derives Stats from snap as of now.
func Compute(snap *models.Snapshot, now time.Time, opts Options) *Stats {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	out := &Stats{
		Unassigned:  []models.Department{},
		Alerts:      []Alert{},
		Workload:    []Workload{},
		GeneratedAt: now,
		Totals: Totals{
			Departments: len(snap.Departments),
			Employees:   len(snap.Employees),
			Tasks:       len(snap.Tasks),
		},
	}

	deptNames := make(map[string]string, len(snap.Departments))
	for _, d := range snap.Departments {
		deptNames[d.ID] = d.Name
	}

	load := make(map[string]*Workload, len(snap.Employees))
	for _, e := range snap.Employees {
		load[e.ID] = &Workload{EmployeeID: e.ID, Name: e.Name}
	}

	for _, t := range snap.Tasks {
		switch t.Status {
		case models.TaskStatusPending:
			out.Pending++
			if w, ok := load[t.EmployeeID]; ok {
				w.Active++
			}
			if age := now.Sub(t.AssignedAt); opts.PendingAfter > 0 && age > opts.PendingAfter {
				out.Alerts = append(out.Alerts, taskAlert(RulePendingTooLong, t, deptNames, t.AssignedAt, age, opts.PendingAfter))
			}
		case models.TaskStatusInProgress:
			out.InProgress++
			if w, ok := load[t.EmployeeID]; ok {
				w.Active++
			}
			since := t.AssignedAt
			if t.StartedAt != nil {
				since = *t.StartedAt
			}
			if age := now.Sub(since); opts.InProgressAfter > 0 && age > opts.InProgressAfter {
				out.Alerts = append(out.Alerts, taskAlert(RuleInProgressTooLong, t, deptNames, since, age, opts.InProgressAfter))
			}
		case models.TaskStatusCompleted:
			if t.CompletedAt != nil && sameDay(*t.CompletedAt, now, loc) {
				out.CompletedToday++
				if w, ok := load[t.EmployeeID]; ok {
					w.CompletedToday++
				}
			}
		}
	}

	for _, d := range snap.Departments {
		if d.AssignedTo == "" && d.Status == models.TaskStatusPending {
			out.Unassigned = append(out.Unassigned, d)
		}
		if opts.UncleanedAfter > 0 && d.LastCleanedAt != nil {
			if age := now.Sub(*d.LastCleanedAt); age > opts.UncleanedAfter {
				out.Alerts = append(out.Alerts, Alert{
					Rule:         RuleNotCleaned,
					Severity:     severity(age, opts.UncleanedAfter),
					DepartmentID: d.ID,
					Department:   d.Name,
					EmployeeID:   d.AssignedTo,
					Since:        *d.LastCleanedAt,
					Age:          age,
				})
			}
		}
	}

	sort.Slice(out.Unassigned, func(i, j int) bool {
		a, b := out.Unassigned[i], out.Unassigned[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	sort.Slice(out.Alerts, func(i, j int) bool {
		a, b := out.Alerts[i], out.Alerts[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityCritical
		}
		if a.Age != b.Age {
			return a.Age > b.Age
		}
		return a.Key() < b.Key()
	})
	if opts.MaxAlerts > 0 && len(out.Alerts) > opts.MaxAlerts {
		out.Alerts = out.Alerts[:opts.MaxAlerts]
	}

	for _, e := range snap.Employees {
		out.Workload = append(out.Workload, *load[e.ID])
	}
	sort.Slice(out.Workload, func(i, j int) bool {
		a, b := out.Workload[i], out.Workload[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.EmployeeID < b.EmployeeID
	})

	return out
}

func taskAlert(rule string, t models.CleaningTask, names map[string]string, since time.Time, age, threshold time.Duration) Alert {
	return Alert{
		Rule:         rule,
		Severity:     severity(age, threshold),
		DepartmentID: t.DepartmentID,
		Department:   names[t.DepartmentID],
		TaskID:       t.ID,
		EmployeeID:   t.EmployeeID,
		Since:        since,
		Age:          age,
	}
}

// severity escalates to critical once age reaches twice the threshold.
func severity(age, threshold time.Duration) string {
	if age >= 2*threshold {
		return SeverityCritical
	}
	return SeverityWarning
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
