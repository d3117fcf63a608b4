// Package audit records optimizer and check runs as JSON-lines events.
package audit

import (
	"fmt"
	"time"

	"github.com/newtron-network/routeaudit/pkg/routing"
)

// Operation names recorded in events.
const (
	OperationCheck    = "check"
	OperationOptimize = "optimize"
	OperationSave     = "save"
)

// VerifyResult is the outcome of a forwarding-equivalence check.
type VerifyResult string

const (
	VerifySkipped VerifyResult = "skipped"
	VerifyPassed  VerifyResult = "passed"
	VerifyFailed  VerifyResult = "failed"
)

// StepRecord is the logged form of one optimizer step.
type StepRecord struct {
	Kind     routing.StepKind `json:"kind"`
	Affected []string         `json:"affected"`
	Result   string           `json:"result"`
}

// Event is one audited run against a routing table.
type Event struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	User          string        `json:"user"`
	Table         string        `json:"table"`
	Source        string        `json:"source,omitempty"` // file path, redis address or device
	Operation     string        `json:"operation"`
	EntriesBefore int           `json:"entries_before"`
	EntriesAfter  int           `json:"entries_after"`
	Steps         []StepRecord  `json:"steps,omitempty"`
	Skipped       []string      `json:"skipped,omitempty"`
	Verify        VerifyResult  `json:"verify,omitempty"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	Table       string
	User        string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Matches reports whether the event satisfies every set criterion.
func (f Filter) Matches(e *Event) bool {
	switch {
	case f.Table != "" && e.Table != f.Table:
		return false
	case f.User != "" && e.User != f.User:
		return false
	case f.Operation != "" && e.Operation != f.Operation:
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success:
		return false
	case f.FailureOnly && e.Success:
		return false
	}
	return true
}

// NewEvent creates a new audit event
func NewEvent(user, table, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Table:     table,
		Operation: operation,
	}
}

// WithSource sets where the table was loaded from.
func (e *Event) WithSource(source string) *Event {
	e.Source = source
	return e
}

// WithSteps records the optimizer trace and the resulting table size.
func (e *Event) WithSteps(before int, steps []routing.Step) *Event {
	e.EntriesBefore = before
	e.EntriesAfter = before
	e.Steps = make([]StepRecord, 0, len(steps))
	for _, s := range steps {
		rec := StepRecord{Kind: s.Kind, Result: s.Result.String()}
		for _, a := range s.Affected {
			rec.Affected = append(rec.Affected, a.String())
		}
		e.Steps = append(e.Steps, rec)
	}
	if len(steps) > 0 {
		e.EntriesAfter = len(steps[len(steps)-1].Snapshot)
	}
	return e
}

// WithSkipped records routes that could not be loaded.
func (e *Event) WithSkipped(skipped []string) *Event {
	e.Skipped = skipped
	return e
}

// WithVerify records the forwarding-equivalence outcome.
func (e *Event) WithVerify(err error) *Event {
	if err != nil {
		e.Verify = VerifyFailed
		e.Error = err.Error()
	} else {
		e.Verify = VerifyPassed
	}
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// StepCounts tallies the recorded steps by kind.
func (e *Event) StepCounts() map[routing.StepKind]int {
	counts := make(map[routing.StepKind]int)
	for _, s := range e.Steps {
		counts[s.Kind]++
	}
	return counts
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
