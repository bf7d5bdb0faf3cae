package models

import "fmt"

// forward lists the single-step moves of the task lifecycle.
var forward = map[TaskStatus]TaskStatus{
	TaskStatusPending:    TaskStatusInProgress,
	TaskStatusInProgress: TaskStatusCompleted,
}

// Transition validates a status change requested by an employee.
// Superseded is only ever set by reassignment, never through here.
// allowSkip additionally permits pending -> completed.
func Transition(from, to TaskStatus, allowSkip bool) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: task is %s", ErrInvalidTransition, from)
	}
	if next, ok := forward[from]; ok && next == to {
		return nil
	}
	if allowSkip && from == TaskStatusPending && to == TaskStatusCompleted {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
