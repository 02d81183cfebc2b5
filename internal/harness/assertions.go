package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %-7s %s -> %s\n", ev.Seq, ev.Kind, describeInput(ev.Input), ev.After)
	}
	return buf.String()
}

func describeInput(in ir.Input) string {
	switch {
	case in.Reset:
		return "reset"
	case in.Entry:
		return fmt.Sprintf("digit=%d", in.Digit)
	default:
		return "-"
	}
}

// matchExpect compares sig (and the latest edge kind) against e and
// returns one message per mismatched field.
func matchExpect(e *Expect, sig lock.Signals, kind ir.TransitionKind) []string {
	var msgs []string
	if e.Index != nil && sig.Index != *e.Index {
		msgs = append(msgs, fmt.Sprintf("index = %d, want %d", sig.Index, *e.Index))
	}
	if e.Outcome != "" {
		// Validated at load time.
		want, _ := ir.ParseOutcome(e.Outcome)
		if sig.Outcome != want {
			msgs = append(msgs, fmt.Sprintf("outcome = %s, want %s", sig.Outcome, want))
		}
	}
	if e.Unlocked != nil && sig.Unlocked != *e.Unlocked {
		msgs = append(msgs, fmt.Sprintf("unlocked = %t, want %t", sig.Unlocked, *e.Unlocked))
	}
	if e.Alarm != nil && sig.Alarm != *e.Alarm {
		msgs = append(msgs, fmt.Sprintf("alarm = %t, want %t", sig.Alarm, *e.Alarm))
	}
	if e.Status != nil && int(sig.Status) != *e.Status {
		msgs = append(msgs, fmt.Sprintf("status = %s, want 0x%02X", sig.Status, *e.Status))
	}
	if e.Kind != "" && string(kind) != e.Kind {
		msgs = append(msgs, fmt.Sprintf("kind = %s, want %s", kind, e.Kind))
	}
	return msgs
}

// assertFinalState checks the outputs after the last step.
func assertFinalState(result *Result, assertion Assertion) error {
	var kind ir.TransitionKind
	if n := len(result.Trace); n > 0 {
		kind = result.Trace[n-1].Kind
	}

	msgs := matchExpect(assertion.Expect, result.Final, kind)
	if len(msgs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: describeExpect(assertion.Expect),
		Actual:   strings.Join(msgs, "; "),
		Trace:    result.Trace,
	}
}

func describeExpect(e *Expect) string {
	var parts []string
	if e.Index != nil {
		parts = append(parts, fmt.Sprintf("index=%d", *e.Index))
	}
	if e.Outcome != "" {
		parts = append(parts, "outcome="+e.Outcome)
	}
	if e.Unlocked != nil {
		parts = append(parts, fmt.Sprintf("unlocked=%t", *e.Unlocked))
	}
	if e.Alarm != nil {
		parts = append(parts, fmt.Sprintf("alarm=%t", *e.Alarm))
	}
	if e.Status != nil {
		parts = append(parts, fmt.Sprintf("status=0x%02X", *e.Status))
	}
	if e.Kind != "" {
		parts = append(parts, "kind="+e.Kind)
	}
	return strings.Join(parts, " ")
}

// assertKindCount checks that exactly Count edges have Kind.
func assertKindCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, ev := range trace {
		if string(ev.Kind) == assertion.Kind {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertKindCount,
			Expected: fmt.Sprintf("%d %s edges", *assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d %s edges", count, assertion.Kind),
			Trace:    trace,
		}
	}
	return nil
}

// assertKindOrder checks that Kinds occur in the trace in order. Other
// edges may appear between them.
func assertKindOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(assertion.Kinds) && string(ev.Kind) == assertion.Kinds[next] {
			next++
		}
	}

	if next < len(assertion.Kinds) {
		return &AssertionError{
			Type:     AssertKindOrder,
			Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
			Actual:   fmt.Sprintf("matched %d of %d; missing %s after %v", next, len(assertion.Kinds), assertion.Kinds[next], assertion.Kinds[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertStatusNever checks that no edge produced Status.
func assertStatusNever(trace []TraceEvent, assertion Assertion) error {
	for _, ev := range trace {
		if int(ev.Status) == *assertion.Status {
			return &AssertionError{
				Type:     AssertStatusNever,
				Expected: fmt.Sprintf("status 0x%02X never shown", *assertion.Status),
				Actual:   fmt.Sprintf("shown at seq %d", ev.Seq),
				Trace:    trace,
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalState:
			err = assertFinalState(result, assertion)
		case AssertKindCount:
			err = assertKindCount(result.Trace, assertion)
		case AssertKindOrder:
			err = assertKindOrder(result.Trace, assertion)
		case AssertStatusNever:
			err = assertStatusNever(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
