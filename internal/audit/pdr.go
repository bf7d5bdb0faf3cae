// Package audit records Process Decision Records for every mutating
// cleanops operation.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/cleanops/internal/models"
)

// Actions recorded by the control plane.
const (
	ActionDepartmentCreate = "department.create"
	ActionDepartmentAssign = "department.assign"
	ActionDepartmentReset  = "department.reset"
	ActionEmployeeCreate   = "employee.create"
	ActionBatchAssign      = "assignment.batch"
	ActionTaskAdvance      = "task.advance"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Sink persists PDR entries.
type Sink interface {
	WritePDR(ctx context.Context, action, inputsHash, outcome, taskID, details string) (*models.PDREntry, error)
}

// PDRWriter writes Process Decision Records for audit trails.
type PDRWriter struct {
	sink Sink
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s Sink) *PDRWriter {
	return &PDRWriter{sink: s}
}

// Record writes a PDR entry for a state-mutating action. taskID may be empty
// for actions that do not touch a single task.
func (w *PDRWriter) Record(ctx context.Context, action string, inputs interface{}, outcome, taskID, details string) (*models.PDREntry, error) {
	return w.sink.WritePDR(ctx, action, hashInputs(inputs), outcome, taskID, details)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
