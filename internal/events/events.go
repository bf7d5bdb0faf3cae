// Package events publishes cleanops domain events.
package events

import (
	"context"
	"time"

	"github.com/fentz26/cleanops/internal/models"
)

// Event types.
const (
	TypeTaskAssigned      = "task.assigned"
	TypeTaskReassigned    = "task.reassigned"
	TypeTaskStatusChanged = "task.status_changed"
	TypeAlertRaised       = "alert.raised"
)

// Event is one published domain event.
type Event struct {
	Type         string               `json:"type"`
	DepartmentID string               `json:"department_id"`
	EmployeeID   string               `json:"employee_id,omitempty"`
	TaskID       string               `json:"task_id,omitempty"`
	From         models.TaskStatus    `json:"from,omitempty"`
	To           models.TaskStatus    `json:"to,omitempty"`
	Previous     *models.CleaningTask `json:"previous,omitempty"`
	Rule         string               `json:"rule,omitempty"`
	Severity     string               `json:"severity,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Publisher sends events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
func (Nop) Close() error                            { return nil }
