package assignment

import (
	"context"
	"fmt"
	"testing"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignBatch_PartialFailure(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := createDepartment(t, s, "A")
	c := createDepartment(t, s, "C")
	emp := createEmployee(t, s, "Ana")
	e := New(s, nil)

	res, err := e.AssignBatch(ctx, []string{a.ID, "dept-b-missing", c.ID}, emp.ID)
	require.NoError(t, err)

	require.Len(t, res.Succeeded, 2)
	assert.Equal(t, a.ID, res.Succeeded[0].DepartmentID)
	assert.Equal(t, c.ID, res.Succeeded[1].DepartmentID)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "dept-b-missing", res.Failed[0].DepartmentID)
	assert.Equal(t, models.KindNotFound, res.Failed[0].Kind)
	assert.ErrorIs(t, res.Failed[0].Err, models.ErrNotFound)

	for _, id := range []string{a.ID, c.ID} {
		active, err := s.GetActiveTaskForDepartment(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, emp.ID, active.EmployeeID)
	}
}

func TestAssignBatch_FailuresInInputOrder(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := createDepartment(t, s, "A")
	b := createDepartment(t, s, "B")
	emp := createEmployee(t, s, "Ana")
	e := New(s, nil)

	res, err := e.AssignBatch(ctx, []string{" ", a.ID, "ghost", "", b.ID}, emp.ID)
	require.NoError(t, err)

	require.Len(t, res.Succeeded, 2)
	assert.Equal(t, a.ID, res.Succeeded[0].DepartmentID)
	assert.Equal(t, b.ID, res.Succeeded[1].DepartmentID)

	require.Len(t, res.Failed, 3)
	assert.Equal(t, "", res.Failed[0].DepartmentID)
	assert.Equal(t, models.KindValidation, res.Failed[0].Kind)
	assert.Equal(t, "ghost", res.Failed[1].DepartmentID)
	assert.Equal(t, models.KindNotFound, res.Failed[1].Kind)
	assert.Equal(t, "", res.Failed[2].DepartmentID)
	assert.Equal(t, models.KindValidation, res.Failed[2].Kind)
}

func TestAssignBatch_Deduplicates(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := createDepartment(t, s, "A")
	emp := createEmployee(t, s, "Ana")
	e := New(s, nil)

	res, err := e.AssignBatch(ctx, []string{a.ID, a.ID, " " + a.ID + " "}, emp.ID)
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)
	assert.Empty(t, res.Failed)

	tasks, err := s.ListTasks(ctx, models.TaskFilter{DepartmentID: a.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestAssignBatch_ManyDepartments(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	emp := createEmployee(t, s, "Ana")
	other := createEmployee(t, s, "Ben")
	var ids []string
	for i := 0; i < 25; i++ {
		ids = append(ids, createDepartment(t, s, fmt.Sprintf("Room %02d", i)).ID)
	}
	e := New(s, &Config{MaxConcurrency: 8})

	// Pre-assign a few rooms to someone else so the batch reassigns them.
	for _, id := range ids[:5] {
		_, err := e.Assign(ctx, id, other.ID)
		require.NoError(t, err)
	}

	res, err := e.AssignBatch(ctx, ids, emp.ID)
	require.NoError(t, err)
	require.Len(t, res.Succeeded, len(ids))
	assert.Empty(t, res.Failed)

	reassigned := 0
	for i, succ := range res.Succeeded {
		assert.Equal(t, ids[i], succ.DepartmentID, "results keep input order")
		if succ.Kind == KindReassigned {
			reassigned++
		}
	}
	assert.Equal(t, 5, reassigned)
	assertSingleActive(t, s)
}

func TestAssignBatch_Validation(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := createDepartment(t, s, "A")
	emp := createEmployee(t, s, "Ana")
	e := New(s, nil)

	_, err := e.AssignBatch(ctx, nil, emp.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = e.AssignBatch(ctx, []string{"", "  "}, emp.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = e.AssignBatch(ctx, []string{a.ID}, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = e.AssignBatch(ctx, []string{a.ID}, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	res, err := e.AssignBatch(ctx, []string{a.ID, ""}, emp.ID)
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, models.KindValidation, res.Failed[0].Kind)
}

func TestAssignBatch_ConflictIsPerMember(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	a := createDepartment(t, s, "A")
	b := createDepartment(t, s, "B")
	ana := createEmployee(t, s, "Ana")
	ben := createEmployee(t, s, "Ben")
	e := New(s, nil)

	// Another admin claims B between the batch's read and write.
	e.afterRead = func(departmentID string) {
		if departmentID == b.ID {
			_, err := New(s, nil).Assign(ctx, b.ID, ben.ID)
			assert.NoError(t, err)
		}
	}

	res, err := e.AssignBatch(ctx, []string{a.ID, b.ID}, ana.ID)
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, a.ID, res.Succeeded[0].DepartmentID)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, models.KindConflict, res.Failed[0].Kind)

	active, err := s.GetActiveTaskForDepartment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, ben.ID, active.EmployeeID)
}

func TestDedupe(t *testing.T) {
	ids := dedupe([]string{"b", "a", "b", " ", "c", "a"})
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}
