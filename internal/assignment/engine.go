// Package assignment implements department assignment: the single-unit
// engine that keeps one active task per department, and the batch
// coordinator that fans it out over many departments.
package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/store"
	"github.com/google/uuid"
)

// Store is the subset of the entity store the engine reads and writes.
type Store interface {
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	GetEmployee(ctx context.Context, id string) (*models.Employee, error)
	GetActiveTaskForDepartment(ctx context.Context, departmentID string) (*models.CleaningTask, error)
	CommitAssignment(ctx context.Context, c store.AssignmentCommit) error
}

// Kind tells the caller what an Assign call did.
type Kind string

const (
	KindCreated    Kind = "created"
	KindReassigned Kind = "reassigned"
	KindUnchanged  Kind = "unchanged"
)

// Result is the outcome of a single assignment.
type Result struct {
	Task *models.CleaningTask
	Kind Kind
	// Previous is the task retired by a reassignment.
	Previous *models.CleaningTask
}

// Engine assigns departments to employees.
type Engine struct {
	store  Store
	config *Config
	now    func() time.Time

	// afterRead runs between the state read and the conditional write.
	// Tests use it to force two writers to observe the same state.
	afterRead func(departmentID string)
}

// New creates an assignment engine.
func New(s Store, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{
		store:  s,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Assign makes employeeID the owner of departmentID's active task.
//
// A free slot gets a new pending task. A slot held by another employee is
// reassigned: the held task is superseded and a fresh pending task is
// created. A slot already held by employeeID is returned unchanged.
// Concurrent writers on the same department are detected by the store and
// the loser gets models.ErrConflict; Assign never retries.
func (e *Engine) Assign(ctx context.Context, departmentID, employeeID string) (*Result, error) {
	departmentID = strings.TrimSpace(departmentID)
	employeeID = strings.TrimSpace(employeeID)
	if departmentID == "" || employeeID == "" {
		return nil, fmt.Errorf("department id and employee id are required: %w", models.ErrValidation)
	}

	if _, err := e.store.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	if _, err := e.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return e.assign(ctx, departmentID, employeeID)
}

// assign runs the read-then-conditional-write cycle for an existing
// department and employee.
func (e *Engine) assign(ctx context.Context, departmentID, employeeID string) (*Result, error) {
	active, err := e.store.GetActiveTaskForDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if e.afterRead != nil {
		e.afterRead(departmentID)
	}

	if active != nil && active.EmployeeID == employeeID {
		return &Result{Task: active, Kind: KindUnchanged}, nil
	}

	now := e.now()
	task := models.CleaningTask{
		ID:           uuid.New().String(),
		DepartmentID: departmentID,
		EmployeeID:   employeeID,
		Status:       models.TaskStatusPending,
		AssignedAt:   now,
		UpdatedAt:    now,
	}

	commit := store.AssignmentCommit{Task: task}
	result := &Result{Task: &task, Kind: KindCreated}
	if active != nil {
		commit.ExpectedActiveTaskID = active.ID
		result.Kind = KindReassigned

		prev := *active
		prev.Status = models.TaskStatusSuperseded
		prev.SupersededAt = &now
		prev.SupersededBy = task.ID
		result.Previous = &prev
	}

	if err := e.store.CommitAssignment(ctx, commit); err != nil {
		return nil, fmt.Errorf("assign department %s: %w", departmentID, err)
	}
	return result, nil
}
