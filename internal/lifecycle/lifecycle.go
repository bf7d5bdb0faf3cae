// Package lifecycle advances cleaning tasks through
// pending -> in_progress -> completed.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/store"
)

// Store is the subset of the entity store the lifecycle needs.
type Store interface {
	GetTask(ctx context.Context, id string) (*models.CleaningTask, error)
	CommitTransition(ctx context.Context, c store.TransitionCommit) error
}

// Config defines lifecycle rules.
type Config struct {
	// AllowSkip permits pending -> completed without passing in_progress.
	AllowSkip bool `yaml:"allow_skip"`
}

// Change is the outcome of a successful Advance.
type Change struct {
	Task *models.CleaningTask
	From models.TaskStatus
}

// Lifecycle applies task status transitions.
type Lifecycle struct {
	store  Store
	config Config
	now    func() time.Time
}

// New creates a lifecycle.
func New(s Store, cfg Config) *Lifecycle {
	return &Lifecycle{
		store:  s,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Advance moves taskID to status. When employeeID is set it must be the
// task's assignee. The department mirror is updated in the same write.
func (l *Lifecycle) Advance(ctx context.Context, taskID string, status models.TaskStatus, employeeID string) (*Change, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, fmt.Errorf("task id is required: %w", models.ErrValidation)
	}
	if _, ok := models.ParseTaskStatus(string(status)); !ok {
		return nil, fmt.Errorf("unknown status %q: %w", status, models.ErrValidation)
	}

	task, err := l.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if employeeID != "" && employeeID != task.EmployeeID {
		return nil, fmt.Errorf("task %s: %w", taskID, models.ErrNotOwner)
	}
	if err := models.Transition(task.Status, status, l.config.AllowSkip); err != nil {
		return nil, fmt.Errorf("task %s: %w", taskID, err)
	}

	now := l.now()
	err = l.store.CommitTransition(ctx, store.TransitionCommit{
		TaskID:       task.ID,
		DepartmentID: task.DepartmentID,
		From:         task.Status,
		To:           status,
		At:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("advance task %s: %w", taskID, err)
	}

	from := task.Status
	task.Status = status
	task.UpdatedAt = now
	switch status {
	case models.TaskStatusInProgress:
		task.StartedAt = &now
	case models.TaskStatusCompleted:
		task.CompletedAt = &now
	}
	return &Change{Task: task, From: from}, nil
}
