// Package store provides SQLite-backed persistence for cleanops.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store provides access to the cleanops SQLite database.
type Store struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// dsnPragmas are applied by the driver to every new connection.
const dsnPragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)"

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		access_code TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		assigned_to TEXT,
		active_task_id TEXT,
		last_cleaned_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cleaning_tasks (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		status TEXT NOT NULL,
		assigned_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME,
		superseded_at DATETIME,
		superseded_by TEXT,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (department_id) REFERENCES departments(id),
		FOREIGN KEY (employee_id) REFERENCES employees(id)
	);

	CREATE TABLE IF NOT EXISTS pdr (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_department_id ON cleaning_tasks(department_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_employee_id ON cleaning_tasks(employee_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON cleaning_tasks(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Department Operations ---

const departmentColumns = `id, name, access_code, status, assigned_to, active_task_id, last_cleaned_at, created_at, updated_at`

// CreateDepartment inserts a new department in the pending state.
func (s *Store) CreateDepartment(ctx context.Context, name, accessCode string) (*models.Department, error) {
	now := time.Now().UTC()
	dept := &models.Department{
		ID:         uuid.New().String(),
		Name:       name,
		AccessCode: accessCode,
		Status:     models.TaskStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO departments (id, name, access_code, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		dept.ID, dept.Name, dept.AccessCode, dept.Status, dept.CreatedAt, dept.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert department: %w", err)
	}
	return dept, nil
}

// GetDepartment retrieves a department by ID.
func (s *Store) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	return getDepartment(ctx, s.db, id)
}

func getDepartment(ctx context.Context, q querier, id string) (*models.Department, error) {
	row := q.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = ?`, id)
	dept, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("department %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query department: %w", err)
	}
	return dept, nil
}

// ListDepartments returns all departments ordered by name.
func (s *Store) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return listDepartments(ctx, s.db)
}

func listDepartments(ctx context.Context, q querier) ([]models.Department, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	var depts []models.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		depts = append(depts, *dept)
	}
	return depts, rows.Err()
}

// ResetDepartment opens a new cleaning cycle: the department returns to
// pending with no assignee. It fails with ErrConflict while a task is active.
func (s *Store) ResetDepartment(ctx context.Context, id string) (*models.Department, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE departments SET status = ?, assigned_to = NULL, updated_at = ? WHERE id = ? AND active_task_id IS NULL`,
		models.TaskStatusPending, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("reset department: %w", err)
	}
	if err := requireRow(ctx, tx, result, id, "department has an active task"); err != nil {
		return nil, err
	}

	dept, err := getDepartment(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return dept, nil
}

// --- Employee Operations ---

// CreateEmployee inserts a new employee. Emails are unique.
func (s *Store) CreateEmployee(ctx context.Context, name, email string) (*models.Employee, error) {
	emp := &models.Employee{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		emp.ID, emp.Name, emp.Email, emp.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %s already registered: %w", email, models.ErrConflict)
		}
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	return emp, nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	emp := &models.Employee{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM employees WHERE id = ?`, id,
	).Scan(&emp.ID, &emp.Name, &emp.Email, &emp.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}
	return emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return listEmployees(ctx, s.db)
}

func listEmployees(ctx context.Context, q querier) ([]models.Employee, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, email, created_at FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var emps []models.Employee
	for rows.Next() {
		var emp models.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		emps = append(emps, emp)
	}
	return emps, rows.Err()
}

// --- Task Operations ---

const taskColumns = `id, department_id, employee_id, status, assigned_at, started_at, completed_at, superseded_at, superseded_by, updated_at`

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*models.CleaningTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM cleaning_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// GetActiveTaskForDepartment returns the department's active task, or nil
// when its slot is free.
func (s *Store) GetActiveTaskForDepartment(ctx context.Context, departmentID string) (*models.CleaningTask, error) {
	var activeID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT active_task_id FROM departments WHERE id = ?`, departmentID,
	).Scan(&activeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("department %s: %w", departmentID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query active task: %w", err)
	}
	if !activeID.Valid || activeID.String == "" {
		return nil, nil
	}
	return s.GetTask(ctx, activeID.String)
}

// ListTasks returns tasks matching the filter, newest assignment first.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.CleaningTask, error) {
	return listTasks(ctx, s.db, filter)
}

func listTasks(ctx context.Context, q querier, filter models.TaskFilter) ([]models.CleaningTask, error) {
	query := `SELECT ` + taskColumns + ` FROM cleaning_tasks`
	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.DepartmentID != "" {
		conds = append(conds, "department_id = ?")
		args = append(args, filter.DepartmentID)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY assigned_at DESC, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.CleaningTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// AssignmentCommit describes the writes of a single assignment.
type AssignmentCommit struct {
	// ExpectedActiveTaskID is the active task observed before the write;
	// empty when the slot was free. A previous task is superseded.
	ExpectedActiveTaskID string
	Task                 models.CleaningTask
}

// CommitAssignment atomically points the department at a new pending task,
// supersedes the previously active task if any, and inserts the new task.
// The department update is conditional on ExpectedActiveTaskID; if another
// writer moved the slot first, nothing is persisted and ErrConflict is returned.
func (s *Store) CommitAssignment(ctx context.Context, c AssignmentCommit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t := c.Task
	result, err := tx.ExecContext(ctx,
		`UPDATE departments SET active_task_id = ?, assigned_to = ?, status = ?, updated_at = ?
		 WHERE id = ? AND COALESCE(active_task_id, '') = ?`,
		t.ID, t.EmployeeID, models.TaskStatusPending, t.AssignedAt, t.DepartmentID, c.ExpectedActiveTaskID,
	)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	if err := requireRow(ctx, tx, result, t.DepartmentID, "active task changed"); err != nil {
		return err
	}

	if c.ExpectedActiveTaskID != "" {
		result, err = tx.ExecContext(ctx,
			`UPDATE cleaning_tasks SET status = ?, superseded_at = ?, superseded_by = ?, updated_at = ?
			 WHERE id = ? AND status IN (?, ?)`,
			models.TaskStatusSuperseded, t.AssignedAt, t.ID, t.AssignedAt,
			c.ExpectedActiveTaskID, models.TaskStatusPending, models.TaskStatusInProgress,
		)
		if err != nil {
			return fmt.Errorf("supersede task: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("check rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("task %s is no longer active: %w", c.ExpectedActiveTaskID, models.ErrConflict)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cleaning_tasks (id, department_id, employee_id, status, assigned_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.DepartmentID, t.EmployeeID, t.Status, t.AssignedAt, t.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TransitionCommit describes a task status change and its department mirror.
type TransitionCommit struct {
	TaskID       string
	DepartmentID string
	From         models.TaskStatus
	To           models.TaskStatus
	At           time.Time
}

// CommitTransition atomically moves a task from From to To and mirrors the
// new status onto its department. Completion frees the department's slot and
// stamps last_cleaned_at. Both updates are conditional on the observed state.
func (s *Store) CommitTransition(ctx context.Context, c TransitionCommit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var startedAt, completedAt sql.NullTime
	switch c.To {
	case models.TaskStatusInProgress:
		startedAt = sql.NullTime{Time: c.At, Valid: true}
	case models.TaskStatusCompleted:
		completedAt = sql.NullTime{Time: c.At, Valid: true}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE cleaning_tasks SET status = ?, started_at = COALESCE(?, started_at),
		 completed_at = COALESCE(?, completed_at), updated_at = ?
		 WHERE id = ? AND status = ?`,
		c.To, startedAt, completedAt, c.At, c.TaskID, c.From,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("task %s is no longer %s: %w", c.TaskID, c.From, models.ErrConflict)
	}

	if c.To == models.TaskStatusCompleted {
		result, err = tx.ExecContext(ctx,
			`UPDATE departments SET status = ?, assigned_to = NULL, active_task_id = NULL,
			 last_cleaned_at = ?, updated_at = ? WHERE id = ? AND active_task_id = ?`,
			models.TaskStatusCompleted, c.At, c.At, c.DepartmentID, c.TaskID,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE departments SET status = ?, updated_at = ? WHERE id = ? AND active_task_id = ?`,
			c.To, c.At, c.DepartmentID, c.TaskID,
		)
	}
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	if err := requireRow(ctx, tx, result, c.DepartmentID, "task is not the active task"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Snapshot reads every department, employee and task inside one transaction.
func (s *Store) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	snap := &models.Snapshot{TakenAt: time.Now().UTC()}
	if snap.Departments, err = listDepartments(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Employees, err = listEmployees(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Tasks, err = listTasks(ctx, tx, models.TaskFilter{}); err != nil {
		return nil, err
	}
	return snap, nil
}

// --- PDR Operations ---

// WritePDR writes a Process Decision Record.
func (s *Store) WritePDR(ctx context.Context, action, inputsHash, outcome, taskID, details string) (*models.PDREntry, error) {
	pdr := &models.PDREntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdr (id, action, inputs_hash, outcome, task_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pdr.ID, pdr.Action, pdr.InputsHash, pdr.Outcome, pdr.TaskID, pdr.Details, pdr.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pdr: %w", err)
	}
	return pdr, nil
}

// ListPDR returns the most recent audit records, newest first.
func (s *Store) ListPDR(ctx context.Context, limit int) ([]models.PDREntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, inputs_hash, outcome, task_id, details, timestamp FROM pdr ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var entries []models.PDREntry
	for rows.Next() {
		var e models.PDREntry
		var taskID, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &taskID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		e.TaskID = taskID.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Helpers ---

// requireRow turns a zero-row conditional update into ErrNotFound when the
// department is missing and ErrConflict otherwise.
func requireRow(ctx context.Context, q querier, result sql.Result, departmentID, reason string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, `SELECT 1 FROM departments WHERE id = ?`, departmentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("department %s: %w", departmentID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query department: %w", err)
	}
	return fmt.Errorf("department %s: %s: %w", departmentID, reason, models.ErrConflict)
}

func scanDepartment(row scanner) (*models.Department, error) {
	var dept models.Department
	var assignedTo, activeTaskID sql.NullString
	var lastCleanedAt sql.NullTime

	if err := row.Scan(&dept.ID, &dept.Name, &dept.AccessCode, &dept.Status, &assignedTo, &activeTaskID,
		&lastCleanedAt, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return nil, err
	}
	dept.AssignedTo = assignedTo.String
	dept.ActiveTaskID = activeTaskID.String
	if lastCleanedAt.Valid {
		dept.LastCleanedAt = &lastCleanedAt.Time
	}
	return &dept, nil
}

func scanTask(row scanner) (*models.CleaningTask, error) {
	var task models.CleaningTask
	var startedAt, completedAt, supersededAt sql.NullTime
	var supersededBy sql.NullString

	if err := row.Scan(&task.ID, &task.DepartmentID, &task.EmployeeID, &task.Status, &task.AssignedAt,
		&startedAt, &completedAt, &supersededAt, &supersededBy, &task.UpdatedAt); err != nil {
		return nil, err
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if supersededAt.Valid {
		task.SupersededAt = &supersededAt.Time
	}
	task.SupersededBy = supersededBy.String
	return &task, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
