// Package metrics records cleanops operational metrics.
package metrics

import "time"

// Collector receives operational measurements from the control plane.
type Collector interface {
	// RecordAssignment counts one single-department assignment by outcome
	// (created, reassigned, unchanged, or an error kind).
	RecordAssignment(outcome string)
	// RecordBatch counts the members of one batch call.
	RecordBatch(succeeded, failed int)
	// RecordTransition counts one task status change attempt.
	RecordTransition(from, to, outcome string)
	// ObserveStats records how long an aggregate computation took.
	ObserveStats(d time.Duration, cached bool)
	// RecordAlert counts a newly raised alert.
	RecordAlert(rule, severity string)
}

// Nop discards every measurement.
type Nop struct{}

var _ Collector = Nop{}

// NewNop returns a collector that records nothing.
func NewNop() Nop { return Nop{} }

func (Nop) RecordAssignment(string)                 {}
func (Nop) RecordBatch(int, int)                    {}
func (Nop) RecordTransition(string, string, string) {}
func (Nop) ObserveStats(time.Duration, bool)        {}
func (Nop) RecordAlert(string, string)              {}
