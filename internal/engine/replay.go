package engine

import (
	"fmt"

	"github.com/roach88/seqlock/internal/ir"
)

// Divergence describes the first recorded edge that a fresh matcher did
// not reproduce.
type Divergence struct {
	Seq      int64  `json:"seq"`
	Field    string `json:"field"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

func (d *Divergence) Error() string {
	return fmt.Sprintf("replay diverged at seq %d: %s recorded %s, replayed %s",
		d.Seq, d.Field, d.Recorded, d.Replayed)
}

// Verify replays the recorded inputs through a fresh matcher over ref and
// checks that every edge reproduces the recorded before/after states and
// kind. The first recorded transition's Before state and Seq seed the
// matcher, so a session recorded mid-stream can still be verified.
//
// Returns nil when the recording is reproduced exactly.
func Verify(ref Reference, recorded []ir.Transition) *Divergence {
	if len(recorded) == 0 {
		return nil
	}

	first := recorded[0]
	m := New(ref,
		WithState(first.Before),
		WithClock(NewClockAt(first.Seq-1)),
	)

	for _, want := range recorded {
		if m.State() != want.Before {
			return &Divergence{Seq: want.Seq, Field: "before", Recorded: want.Before.String(), Replayed: m.State().String()}
		}
		got := m.Step(want.Input)
		if got.Seq != want.Seq {
			return &Divergence{Seq: want.Seq, Field: "seq", Recorded: fmt.Sprint(want.Seq), Replayed: fmt.Sprint(got.Seq)}
		}
		if got.Kind != want.Kind {
			return &Divergence{Seq: want.Seq, Field: "kind", Recorded: string(want.Kind), Replayed: string(got.Kind)}
		}
		if got.After != want.After {
			return &Divergence{Seq: want.Seq, Field: "after", Recorded: want.After.String(), Replayed: got.After.String()}
		}
	}
	return nil
}

// Run feeds inputs through a fresh matcher and returns every transition.
func Run(ref Reference, inputs []ir.Input) []ir.Transition {
	m := New(ref)
	out := make([]ir.Transition, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, m.Step(in))
	}
	return out
}
