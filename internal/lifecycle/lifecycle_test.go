package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/cleanops/internal/assignment"
	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_FullCycle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	dept, task := assignFresh(t, s)
	l := New(s, Config{})

	change, err := l.Advance(ctx, task.ID, models.TaskStatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, change.From)
	assert.NotNil(t, change.Task.StartedAt)

	got, err := s.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusInProgress, got.Status)

	change, err = l.Advance(ctx, task.ID, models.TaskStatusCompleted, task.EmployeeID)
	require.NoError(t, err)
	require.NotNil(t, change.Task.CompletedAt)

	stored, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	got, err = s.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Empty(t, got.AssignedTo)
	require.NotNil(t, got.LastCleanedAt)
	assert.WithinDuration(t, *stored.CompletedAt, *got.LastCleanedAt, time.Millisecond)

	// The slot is free again: a new assignment creates a new task.
	res, err := assignment.New(s, nil).Assign(ctx, dept.ID, task.EmployeeID)
	require.NoError(t, err)
	assert.Equal(t, assignment.KindCreated, res.Kind)
	assert.NotEqual(t, task.ID, res.Task.ID)
}

func TestAdvance_Monotonic(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	_, task := assignFresh(t, s)
	l := New(s, Config{})

	_, err := l.Advance(ctx, task.ID, models.TaskStatusCompleted, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition, "skipping in_progress is not allowed by default")

	_, err = l.Advance(ctx, task.ID, models.TaskStatusInProgress, "")
	require.NoError(t, err)

	_, err = l.Advance(ctx, task.ID, models.TaskStatusPending, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = l.Advance(ctx, task.ID, models.TaskStatusCompleted, "")
	require.NoError(t, err)

	for _, to := range []models.TaskStatus{models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted} {
		_, err = l.Advance(ctx, task.ID, to, "")
		assert.ErrorIs(t, err, models.ErrInvalidTransition, "completed -> %s", to)
	}
}

func TestAdvance_AllowSkip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	dept, task := assignFresh(t, s)
	l := New(s, Config{AllowSkip: true})

	change, err := l.Advance(ctx, task.ID, models.TaskStatusCompleted, "")
	require.NoError(t, err)
	assert.Nil(t, change.Task.StartedAt)

	got, err := s.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
}

func TestAdvance_SupersededTask(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	dept, task := assignFresh(t, s)
	ben, err := s.CreateEmployee(ctx, "Ben", "ben@example.com")
	require.NoError(t, err)
	_, err = assignment.New(s, nil).Assign(ctx, dept.ID, ben.ID)
	require.NoError(t, err)

	_, err = New(s, Config{}).Advance(ctx, task.ID, models.TaskStatusInProgress, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestAdvance_Errors(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	_, task := assignFresh(t, s)
	l := New(s, Config{})

	_, err := l.Advance(ctx, "missing", models.TaskStatusInProgress, "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = l.Advance(ctx, task.ID, models.TaskStatus("done"), "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = l.Advance(ctx, task.ID, models.TaskStatusSuperseded, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = l.Advance(ctx, task.ID, models.TaskStatusInProgress, "someone-else")
	assert.ErrorIs(t, err, models.ErrNotOwner)
}

func newTestStore(t *testing.T) *store.Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := store.New(dbPath)
	require.NoError(t, err, "failed to create store")
	return s
}

func assignFresh(t *testing.T, s *store.Store) (*models.Department, *models.CleaningTask) {
	t.Helper()
	ctx := context.Background()

	dept, err := s.CreateDepartment(ctx, "Lobby", "")
	require.NoError(t, err)
	emp, err := s.CreateEmployee(ctx, "Ana", "ana@example.com")
	require.NoError(t, err)

	res, err := assignment.New(s, nil).Assign(ctx, dept.ID, emp.ID)
	require.NoError(t, err)
	return dept, res.Task
}
