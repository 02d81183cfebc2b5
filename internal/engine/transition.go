package engine

import "github.com/roach88/seqlock/internal/ir"

// Reference is the read-only lookup the matcher compares against.
// refstore.Table implements it.
type Reference interface {
	// Lookup returns the expected digit at index, or a sentinel when
	// index is out of range. It never fails.
	Lookup(index int) ir.Digit
	// Len returns the sequence length N.
	Len() int
}

// Next applies the transition rule to s for one edge and returns the
// resulting transition. Seq is left zero; Matcher.Step stamps it.
//
// Next is pure: the same reference, state and input always produce the
// same transition.
func Next(ref Reference, s ir.State, in ir.Input) ir.Transition {
	t := ir.Transition{Input: in, Before: s, After: s}

	switch {
	case in.Reset:
		t.After = ir.Initial
		t.Kind = ir.KindReset

	case s.Outcome.Terminal():
		t.Kind = ir.KindHold

	case in.Entry:
		t.Compared = true
		t.Expected = ref.Lookup(s.Index)
		switch {
		case in.Digit != t.Expected:
			t.After.Outcome = ir.Alarm
			t.Kind = ir.KindAlarm
		case s.Index == ref.Len()-1:
			t.After.Outcome = ir.Unlocked
			t.Kind = ir.KindUnlock
		default:
			t.After.Index = s.Index + 1
			t.Kind = ir.KindAdvance
		}

	default:
		t.Kind = ir.KindIdle
	}

	return t
}
