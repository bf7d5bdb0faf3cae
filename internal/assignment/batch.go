package assignment

import (
	"context"
	"fmt"
	"strings"

	"github.com/fentz26/cleanops/internal/models"
	"golang.org/x/sync/errgroup"
)

// BatchSuccess is one department that now has an active task for the employee.
type BatchSuccess struct {
	DepartmentID string               `json:"department_id"`
	Kind         Kind                 `json:"kind"`
	Task         *models.CleaningTask `json:"task"`
	Previous     *models.CleaningTask `json:"previous,omitempty"`
}

// BatchFailure is one department whose assignment did not happen.
type BatchFailure struct {
	DepartmentID string `json:"department_id"`
	Kind         string `json:"kind"`
	Reason       string `json:"reason"`
	Err          error  `json:"-"`
}

// BatchResult reports every member of a batch, each list in input order.
type BatchResult struct {
	EmployeeID string         `json:"employee_id"`
	Succeeded  []BatchSuccess `json:"succeeded"`
	Failed     []BatchFailure `json:"failed"`
}

// AssignBatch assigns every department in departmentIDs to employeeID.
//
// Ids are trimmed and de-duplicated; each distinct id is assigned exactly
// once, independently of the others, on a bounded worker pool. A member's
// failure is recorded in Failed and never affects the other members. The
// call itself only fails when the shared inputs are unusable: no ids, no
// employee id, or an unknown employee.
func (e *Engine) AssignBatch(ctx context.Context, departmentIDs []string, employeeID string) (*BatchResult, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("employee id is required: %w", models.ErrValidation)
	}

	ids := dedupe(departmentIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one department id is required: %w", models.ErrValidation)
	}
	if _, err := e.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	type outcome struct {
		res *Result
		err error
	}
	outcomes := make([]outcome, len(ids))

	var g errgroup.Group
	g.SetLimit(e.config.workers(len(ids)))
	for i := range ids {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			res, err := e.assign(ctx, ids[i], employeeID)
			outcomes[i] = outcome{res: res, err: err}
			return nil
		})
	}
	// Members never return an error; failures live in outcomes.
	_ = g.Wait()

	result := &BatchResult{
		EmployeeID: employeeID,
		Succeeded:  []BatchSuccess{},
		Failed:     []BatchFailure{},
	}
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	// Walk the raw input so blanks are reported at their own position.
	for _, raw := range departmentIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			result.Failed = append(result.Failed, newFailure("", fmt.Errorf("empty department id: %w", models.ErrValidation)))
			continue
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		delete(index, id)

		o := outcomes[i]
		if o.err != nil {
			result.Failed = append(result.Failed, newFailure(id, o.err))
			continue
		}
		result.Succeeded = append(result.Succeeded, BatchSuccess{
			DepartmentID: id,
			Kind:         o.res.Kind,
			Task:         o.res.Task,
			Previous:     o.res.Previous,
		})
	}
	return result, nil
}

func newFailure(departmentID string, err error) BatchFailure {
	return BatchFailure{
		DepartmentID: departmentID,
		Kind:         models.ErrorKind(err),
		Reason:       err.Error(),
		Err:          err,
	}
}

// dedupe trims ids and drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
