package harness

import (
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
)

// TraceEvent is one recorded clock edge as read back from the cycle log.
type TraceEvent struct {
	Seq    int64             `json:"seq"`
	Kind   ir.TransitionKind `json:"kind"`
	Input  ir.Input          `json:"input"`
	Before ir.State          `json:"before"`
	After  ir.State          `json:"after"`
	Status uint8             `json:"status"`
}

// object returns the event as a canonical JSON object.
func (e TraceEvent) object() map[string]any {
	return map[string]any{
		"seq":    e.Seq,
		"kind":   e.Kind,
		"input":  e.Input.Object(),
		"before": e.Before.Object(),
		"after":  e.After.Object(),
		"status": int64(e.Status),
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expect and assertion held.
	Pass bool `json:"pass"`

	// Session is the token the scenario's cycles were recorded under.
	Session string `json:"session"`

	// Trace holds every edge in seq order, read back from the store.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`

	// Final is the lock's output after the last step.
	Final lock.Signals `json:"final"`
}

// NewResult creates a new passing result.
func NewResult(session string) *Result {
	return &Result{
		Pass:    true,
		Session: session,
		Trace:   []TraceEvent{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCycle appends a recorded cycle to the trace.
func (r *Result) AddCycle(c ir.Cycle) {
	t := c.Transition
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    t.Seq,
		Kind:   t.Kind,
		Input:  t.Input,
		Before: t.Before,
		After:  t.After,
		Status: c.Status,
	})
}
