package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to  TaskStatus
		allowSkip bool
		ok        bool
	}{
		{TaskStatusPending, TaskStatusInProgress, false, true},
		{TaskStatusInProgress, TaskStatusCompleted, false, true},
		{TaskStatusPending, TaskStatusCompleted, false, false},
		{TaskStatusPending, TaskStatusCompleted, true, true},
		{TaskStatusInProgress, TaskStatusPending, false, false},
		{TaskStatusInProgress, TaskStatusPending, true, false},
		{TaskStatusPending, TaskStatusPending, false, false},
		{TaskStatusCompleted, TaskStatusPending, true, false},
		{TaskStatusCompleted, TaskStatusInProgress, false, false},
		{TaskStatusCompleted, TaskStatusCompleted, false, false},
		{TaskStatusSuperseded, TaskStatusInProgress, false, false},
		{TaskStatusPending, TaskStatusSuperseded, false, false},
		{TaskStatusInProgress, TaskStatusSuperseded, true, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s/skip=%v", tt.from, tt.to, tt.allowSkip), func(t *testing.T) {
			err := Transition(tt.from, tt.to, tt.allowSkip)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestParseTaskStatus(t *testing.T) {
	s, ok := ParseTaskStatus("in_progress")
	require.True(t, ok)
	assert.Equal(t, TaskStatusInProgress, s)

	_, ok = ParseTaskStatus("done")
	assert.False(t, ok)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, KindNotFound, ErrorKind(fmt.Errorf("department d1: %w", ErrNotFound)))
	assert.Equal(t, KindConflict, ErrorKind(fmt.Errorf("assign: %w", ErrConflict)))
	assert.Equal(t, KindInvalidTransition, ErrorKind(ErrInvalidTransition))
	assert.Equal(t, KindValidation, ErrorKind(ErrValidation))
	assert.Equal(t, KindNotOwner, ErrorKind(ErrNotOwner))
	assert.Equal(t, KindInternal, ErrorKind(errors.New("disk full")))
}
