package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func task(id, dept, emp string, status models.TaskStatus, assignedAgo time.Duration) models.CleaningTask {
	return models.CleaningTask{
		ID:           id,
		DepartmentID: dept,
		EmployeeID:   emp,
		Status:       status,
		AssignedAt:   now.Add(-assignedAgo),
	}
}

func TestCompute_Counts(t *testing.T) {
	done := task("t6", "d6", "e1", models.TaskStatusCompleted, 3*time.Hour)
	done.CompletedAt = at(time.Hour)
	yesterday := task("t7", "d7", "e1", models.TaskStatusCompleted, 30*time.Hour)
	yesterday.CompletedAt = at(20 * time.Hour)
	superseded := task("t8", "d1", "e2", models.TaskStatusSuperseded, 2*time.Hour)

	snap := &models.Snapshot{
		Employees: []models.Employee{{ID: "e1", Name: "Ana"}, {ID: "e2", Name: "Ben"}},
		Tasks: []models.CleaningTask{
			task("t1", "d1", "e1", models.TaskStatusPending, time.Minute),
			task("t2", "d2", "e1", models.TaskStatusPending, time.Minute),
			task("t3", "d3", "e2", models.TaskStatusPending, time.Minute),
			task("t4", "d4", "e2", models.TaskStatusInProgress, time.Minute),
			task("t5", "d5", "e2", models.TaskStatusInProgress, time.Minute),
			done, yesterday, superseded,
		},
	}

	s := Compute(snap, now, DefaultOptions())
	assert.Equal(t, 3, s.Pending)
	assert.Equal(t, 2, s.InProgress)
	assert.Equal(t, 1, s.CompletedToday)
	assert.Equal(t, 8, s.Totals.Tasks)
	assert.Empty(t, s.Alerts)
	assert.Equal(t, now, s.GeneratedAt)

	require.Len(t, s.Workload, 2)
	assert.Equal(t, Workload{EmployeeID: "e1", Name: "Ana", Active: 2, CompletedToday: 1}, s.Workload[0])
	assert.Equal(t, Workload{EmployeeID: "e2", Name: "Ben", Active: 3}, s.Workload[1])
}

func TestCompute_CompletedTodayUsesLocation(t *testing.T) {
	// 01:00 UTC on the 10th is still the 9th at UTC-5.
	loc := time.FixedZone("EST", -5*60*60)

	completed := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	tk := task("t1", "d1", "e1", models.TaskStatusCompleted, 20*time.Hour)
	tk.CompletedAt = &completed
	snap := &models.Snapshot{Tasks: []models.CleaningTask{tk}}

	opts := DefaultOptions()
	assert.Equal(t, 1, Compute(snap, now, opts).CompletedToday)

	opts.Location = loc
	assert.Equal(t, 0, Compute(snap, now, opts).CompletedToday)
}

func TestCompute_Unassigned(t *testing.T) {
	snap := &models.Snapshot{
		Departments: []models.Department{
			{ID: "d3", Name: "Zeta", Status: models.TaskStatusPending},
			{ID: "d1", Name: "Alpha", Status: models.TaskStatusPending},
			{ID: "d2", Name: "Beta", Status: models.TaskStatusPending, AssignedTo: "e1", ActiveTaskID: "t1"},
			{ID: "d4", Name: "Gamma", Status: models.TaskStatusCompleted, LastCleanedAt: at(time.Hour)},
		},
	}

	s := Compute(snap, now, DefaultOptions())
	require.Len(t, s.Unassigned, 2)
	assert.Equal(t, "Alpha", s.Unassigned[0].Name)
	assert.Equal(t, "Zeta", s.Unassigned[1].Name)
}

func TestCompute_Alerts(t *testing.T) {
	started := task("t2", "d2", "e1", models.TaskStatusInProgress, 30*time.Hour)
	started.StartedAt = at(9 * time.Hour)

	snap := &models.Snapshot{
		Departments: []models.Department{
			{ID: "d1", Name: "Lobby", Status: models.TaskStatusPending, AssignedTo: "e1"},
			{ID: "d2", Name: "Kitchen", Status: models.TaskStatusInProgress, AssignedTo: "e1"},
			{ID: "d3", Name: "Hall", Status: models.TaskStatusCompleted, LastCleanedAt: at(50 * time.Hour)},
		},
		Tasks: []models.CleaningTask{
			task("t1", "d1", "e1", models.TaskStatusPending, 10*time.Hour),
			started,
			task("t3", "d9", "e1", models.TaskStatusPending, time.Hour),
		},
	}

	opts := DefaultOptions()
	opts.UncleanedAfter = 24 * time.Hour
	s := Compute(snap, now, opts)

	require.Len(t, s.Alerts, 3)
	// Critical first, then by age.
	assert.Equal(t, RuleNotCleaned, s.Alerts[0].Rule)
	assert.Equal(t, SeverityCritical, s.Alerts[0].Severity)
	assert.Equal(t, RulePendingTooLong, s.Alerts[1].Rule)
	assert.Equal(t, SeverityCritical, s.Alerts[1].Severity)
	assert.Equal(t, "Lobby", s.Alerts[1].Department)
	assert.Equal(t, RuleInProgressTooLong, s.Alerts[2].Rule)
	assert.Equal(t, SeverityWarning, s.Alerts[2].Severity, "age is measured from StartedAt")
	assert.Equal(t, 9*time.Hour, s.Alerts[2].Age)
}

func TestCompute_AlertsBoundedAndDisabled(t *testing.T) {
	var tasks []models.CleaningTask
	for i := 0; i < 30; i++ {
		tasks = append(tasks, task(fmt.Sprintf("t%02d", i), "d1", "e1", models.TaskStatusPending, time.Duration(5+i)*time.Hour))
	}
	snap := &models.Snapshot{Tasks: tasks}

	opts := DefaultOptions()
	opts.MaxAlerts = 5
	s := Compute(snap, now, opts)
	require.Len(t, s.Alerts, 5)
	assert.Equal(t, "t29", s.Alerts[0].TaskID, "oldest first")

	opts.PendingAfter = 0
	assert.Empty(t, Compute(snap, now, opts).Alerts)
}

func TestCompute_Deterministic(t *testing.T) {
	snap := &models.Snapshot{
		Departments: []models.Department{
			{ID: "b", Name: "Same", Status: models.TaskStatusPending},
			{ID: "a", Name: "Same", Status: models.TaskStatusPending},
		},
		Tasks: []models.CleaningTask{
			task("x", "a", "e1", models.TaskStatusPending, 5*time.Hour),
			task("y", "b", "e1", models.TaskStatusPending, 5*time.Hour),
		},
	}

	first := Compute(snap, now, DefaultOptions())
	second := Compute(snap, now, DefaultOptions())
	assert.Equal(t, first, second)
	assert.Equal(t, "a", first.Unassigned[0].ID)
	assert.Equal(t, "x", first.Alerts[0].TaskID)
}
