// Package controlplane provides the HTTP API and service layer for cleanops.
package controlplane

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fentz26/cleanops/internal/assignment"
	"github.com/fentz26/cleanops/internal/audit"
	"github.com/fentz26/cleanops/internal/cache"
	"github.com/fentz26/cleanops/internal/events"
	"github.com/fentz26/cleanops/internal/lifecycle"
	"github.com/fentz26/cleanops/internal/metrics"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/stats"
	"github.com/fentz26/cleanops/internal/store"
	"github.com/sirupsen/logrus"
)

// Options wires optional collaborators into the service. Zero values fall
// back to defaults and no-op implementations.
type Options struct {
	Batch     *assignment.Config
	Lifecycle lifecycle.Config
	Alerts    *stats.Options
	Publisher events.Publisher
	Metrics   metrics.Collector
	Cache     cache.StatsCache
	Logger    logrus.FieldLogger
}

// Service provides the control plane business logic.
type Service struct {
	store     *store.Store
	pdr       *audit.PDRWriter
	engine    *assignment.Engine
	lifecycle *lifecycle.Lifecycle
	alerts    stats.Options
	publisher events.Publisher
	metrics   metrics.Collector
	cache     cache.StatsCache
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewService creates a new control plane service.
func NewService(s *store.Store, pdr *audit.PDRWriter, opts Options) *Service {
	svc := &Service{
		store:     s,
		pdr:       pdr,
		engine:    assignment.New(s, opts.Batch),
		lifecycle: lifecycle.New(s, opts.Lifecycle),
		alerts:    stats.DefaultOptions(),
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		cache:     opts.Cache,
		log:       opts.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if opts.Alerts != nil {
		svc.alerts = *opts.Alerts
	}
	if svc.publisher == nil {
		svc.publisher = events.Nop{}
	}
	if svc.metrics == nil {
		svc.metrics = metrics.NewNop()
	}
	if svc.cache == nil {
		svc.cache = cache.Nop{}
	}
	if svc.log == nil {
		svc.log = logrus.StandardLogger()
	}
	return svc
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Assignment Operations ---

// Assign gives departmentID's active task to employeeID.
func (s *Service) Assign(ctx context.Context, departmentID, employeeID string) (*assignment.Result, error) {
	inputs := map[string]string{"department_id": departmentID, "employee_id": employeeID}
	logger := s.log.WithFields(logrus.Fields{"department_id": departmentID, "employee_id": employeeID})

	res, err := s.engine.Assign(ctx, departmentID, employeeID)
	if err != nil {
		s.metrics.RecordAssignment(models.ErrorKind(err))
		s.record(ctx, audit.ActionDepartmentAssign, inputs, audit.OutcomeFailure, "", err.Error())
		logger.WithError(err).Warn("assignment failed")
		return nil, err
	}

	s.metrics.RecordAssignment(string(res.Kind))
	s.record(ctx, audit.ActionDepartmentAssign, inputs, audit.OutcomeSuccess, res.Task.ID, string(res.Kind))
	logger.WithFields(logrus.Fields{"task_id": res.Task.ID, "outcome": res.Kind}).Info("department assigned")

	if res.Kind != assignment.KindUnchanged {
		s.publish(ctx, assignmentEvent(departmentID, res.Kind, res.Task, res.Previous))
		s.invalidate(ctx)
	}
	return res, nil
}

// AssignBatch assigns several departments to one employee. Member failures
// are reported in the result; only unusable shared inputs fail the call.
func (s *Service) AssignBatch(ctx context.Context, departmentIDs []string, employeeID string) (*assignment.BatchResult, error) {
	inputs := map[string]interface{}{"department_ids": departmentIDs, "employee_id": employeeID}
	logger := s.log.WithField("employee_id", employeeID)

	res, err := s.engine.AssignBatch(ctx, departmentIDs, employeeID)
	if err != nil {
		s.record(ctx, audit.ActionBatchAssign, inputs, audit.OutcomeFailure, "", err.Error())
		logger.WithError(err).Warn("batch assignment rejected")
		return nil, err
	}

	s.metrics.RecordBatch(len(res.Succeeded), len(res.Failed))
	outcome := audit.OutcomeSuccess
	if len(res.Failed) > 0 {
		outcome = audit.OutcomeFailure
	}
	s.record(ctx, audit.ActionBatchAssign, inputs, outcome, "",
		fmt.Sprintf("%d succeeded, %d failed", len(res.Succeeded), len(res.Failed)))

	var evs []events.Event
	for _, succ := range res.Succeeded {
		s.metrics.RecordAssignment(string(succ.Kind))
		if succ.Kind != assignment.KindUnchanged {
			evs = append(evs, assignmentEvent(succ.DepartmentID, succ.Kind, succ.Task, succ.Previous))
		}
	}
	for _, fail := range res.Failed {
		s.metrics.RecordAssignment(fail.Kind)
		logger.WithFields(logrus.Fields{"department_id": fail.DepartmentID, "outcome": fail.Kind}).
			Warn("batch member failed: " + fail.Reason)
	}
	logger.WithFields(logrus.Fields{"succeeded": len(res.Succeeded), "failed": len(res.Failed)}).Info("batch assignment done")

	if len(evs) > 0 {
		s.publish(ctx, evs...)
		s.invalidate(ctx)
	}
	return res, nil
}

// --- Lifecycle Operations ---

// AdvanceTaskStatus moves a task forward. employeeID, when set, must own the task.
func (s *Service) AdvanceTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, employeeID string) (*lifecycle.Change, error) {
	inputs := map[string]string{"task_id": taskID, "status": string(status), "employee_id": employeeID}
	logger := s.log.WithFields(logrus.Fields{"task_id": taskID, "status": status})

	change, err := s.lifecycle.Advance(ctx, taskID, status, employeeID)
	if err != nil {
		s.metrics.RecordTransition("", string(status), models.ErrorKind(err))
		s.record(ctx, audit.ActionTaskAdvance, inputs, audit.OutcomeFailure, taskID, err.Error())
		logger.WithError(err).Warn("status change rejected")
		return nil, err
	}

	s.metrics.RecordTransition(string(change.From), string(status), "ok")
	s.record(ctx, audit.ActionTaskAdvance, inputs, audit.OutcomeSuccess, taskID,
		fmt.Sprintf("%s -> %s", change.From, status))
	logger.WithFields(logrus.Fields{"department_id": change.Task.DepartmentID, "from": change.From}).Info("task status changed")

	s.publish(ctx, events.Event{
		Type:         events.TypeTaskStatusChanged,
		DepartmentID: change.Task.DepartmentID,
		EmployeeID:   change.Task.EmployeeID,
		TaskID:       change.Task.ID,
		From:         change.From,
		To:           status,
		Timestamp:    change.Task.UpdatedAt,
	})
	s.invalidate(ctx)
	return change, nil
}

// --- Stats ---

// GetAggregateStats returns the dashboard aggregate, served from the cache
// when a fresh copy exists.
func (s *Service) GetAggregateStats(ctx context.Context) (*stats.Stats, error) {
	start := time.Now()

	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.log.WithError(err).Warn("stats cache read failed")
	}
	if ok {
		s.metrics.ObserveStats(time.Since(start), true)
		return cached, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := stats.Compute(snap, s.now(), s.alerts)

	if err := s.cache.Set(ctx, out); err != nil {
		s.log.WithError(err).Warn("stats cache write failed")
	}
	s.metrics.ObserveStats(time.Since(start), false)
	return out, nil
}

// --- Departments ---

// CreateDepartment registers a department.
func (s *Service) CreateDepartment(ctx context.Context, name, accessCode string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("department name is required: %w", models.ErrValidation)
	}

	dept, err := s.store.CreateDepartment(ctx, name, strings.TrimSpace(accessCode))
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionDepartmentCreate, map[string]string{"name": name}, audit.OutcomeSuccess, "", dept.ID)
	s.log.WithFields(logrus.Fields{"department_id": dept.ID, "name": name}).Info("department created")
	s.invalidate(ctx)
	return dept, nil
}

// GetDepartment returns one department.
func (s *Service) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	return s.store.GetDepartment(ctx, id)
}

// ListDepartments returns all departments.
func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.store.ListDepartments(ctx)
}

// DepartmentHistory returns every task ever assigned for a department, newest first.
func (s *Service) DepartmentHistory(ctx context.Context, id string) ([]models.CleaningTask, error) {
	if _, err := s.store.GetDepartment(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, models.TaskFilter{DepartmentID: id})
}

// ResetDepartment starts a new cleaning cycle for a department without an active task.
func (s *Service) ResetDepartment(ctx context.Context, id string) (*models.Department, error) {
	inputs := map[string]string{"department_id": id}

	dept, err := s.store.ResetDepartment(ctx, id)
	if err != nil {
		s.record(ctx, audit.ActionDepartmentReset, inputs, audit.OutcomeFailure, "", err.Error())
		return nil, err
	}
	s.record(ctx, audit.ActionDepartmentReset, inputs, audit.OutcomeSuccess, "", "")
	s.log.WithField("department_id", id).Info("department reset")
	s.invalidate(ctx)
	return dept, nil
}

// --- Employees ---

// CreateEmployee registers an employee. Emails must be valid and unique.
func (s *Service) CreateEmployee(ctx context.Context, name, email string) (*models.Employee, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("employee name is required: %w", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email %q: %w", email, models.ErrValidation)
	}

	emp, err := s.store.CreateEmployee(ctx, name, email)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionEmployeeCreate, map[string]string{"name": name, "email": email}, audit.OutcomeSuccess, "", emp.ID)
	s.log.WithFields(logrus.Fields{"employee_id": emp.ID, "name": name}).Info("employee created")
	s.invalidate(ctx)
	return emp, nil
}

// ListEmployees returns all employees.
func (s *Service) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return s.store.ListEmployees(ctx)
}

// EmployeeTasks returns an employee's tasks, optionally filtered by status.
func (s *Service) EmployeeTasks(ctx context.Context, id string, status string) ([]models.CleaningTask, error) {
	if _, err := s.store.GetEmployee(ctx, id); err != nil {
		return nil, err
	}
	return s.ListTasks(ctx, models.TaskFilter{EmployeeID: id, Status: models.TaskStatus(status)})
}

// --- Tasks ---

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, id string) (*models.CleaningTask, error) {
	return s.store.GetTask(ctx, id)
}

// ListTasks returns tasks matching filter.
func (s *Service) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.CleaningTask, error) {
	if filter.Status != "" {
		if _, ok := models.ParseTaskStatus(string(filter.Status)); !ok {
			return nil, fmt.Errorf("unknown status %q: %w", filter.Status, models.ErrValidation)
		}
	}
	return s.store.ListTasks(ctx, filter)
}

// --- Audit ---

// AuditTrail returns the most recent decision records, newest first.
// limit defaults to 50 and is capped at 500.
func (s *Service) AuditTrail(ctx context.Context, limit int) ([]models.PDREntry, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 500:
		limit = 500
	}
	return s.store.ListPDR(ctx, limit)
}

// --- Helpers ---

func (s *Service) record(ctx context.Context, action string, inputs interface{}, outcome, taskID, details string) {
	if s.pdr == nil {
		return
	}
	if _, err := s.pdr.Record(ctx, action, inputs, outcome, taskID, details); err != nil {
		s.log.WithError(err).WithField("action", action).Error("failed to write PDR")
	}
}

func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		s.log.WithError(err).WithField("events", len(evs)).Warn("event publish failed")
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("stats cache invalidation failed")
	}
}

func assignmentEvent(departmentID string, kind assignment.Kind, task, previous *models.CleaningTask) events.Event {
	ev := events.Event{
		Type:         events.TypeTaskAssigned,
		DepartmentID: departmentID,
		EmployeeID:   task.EmployeeID,
		TaskID:       task.ID,
		To:           task.Status,
		Timestamp:    task.AssignedAt,
	}
	if kind == assignment.KindReassigned {
		ev.Type = events.TypeTaskReassigned
		ev.Previous = previous
	}
	return ev
}
