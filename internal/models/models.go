// Package models defines the core domain types for cleanops.
package models

import "time"

// TaskStatus represents the current state of a cleaning task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	// TaskStatusSuperseded marks a task retired by a reassignment.
	TaskStatusSuperseded TaskStatus = "superseded"
)

// ParseTaskStatus converts a wire string into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusSuperseded:
		return TaskStatus(s), true
	}
	return "", false
}

// IsActive reports whether a task in this status occupies its department's slot.
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// IsTerminal reports whether no further transition is possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusSuperseded
}

// Department is a physical unit subject to recurring cleaning.
type Department struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	AccessCode    string     `json:"access_code,omitempty"`
	Status        TaskStatus `json:"status"`
	AssignedTo    string     `json:"assigned_to,omitempty"`
	ActiveTaskID  string     `json:"active_task_id,omitempty"`
	LastCleanedAt *time.Time `json:"last_cleaned_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Employee is a reference entity; it carries no state of its own.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CleaningTask is one assignment of cleaning work on a department to an employee.
type CleaningTask struct {
	ID           string     `json:"id"`
	DepartmentID string     `json:"department_id"`
	EmployeeID   string     `json:"employee_id"`
	Status       TaskStatus `json:"status"`
	AssignedAt   time.Time  `json:"assigned_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	SupersededAt *time.Time `json:"superseded_at,omitempty"`
	SupersededBy string     `json:"superseded_by,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Snapshot is a point-in-time read of every entity.
type Snapshot struct {
	Departments []Department   `json:"departments"`
	Employees   []Employee     `json:"employees"`
	Tasks       []CleaningTask `json:"tasks"`
	TakenAt     time.Time      `json:"taken_at"`
}

// TaskFilter narrows task listings. Empty fields match everything.
type TaskFilter struct {
	Status       TaskStatus
	EmployeeID   string
	DepartmentID string
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     string    `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
