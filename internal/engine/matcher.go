package engine

import "github.com/roach88/seqlock/internal/ir"

// Matcher is the clocked sequence-matching state machine.
type Matcher struct {
	ref   Reference
	clock *Clock
	state ir.State
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock sets the logical clock. Used to resume a recorded session
// at a known seq.
func WithClock(c *Clock) Option {
	return func(m *Matcher) {
		m.clock = c
	}
}

// WithState starts the matcher in s instead of the reset state.
// Used by replay to resume mid-session.
func WithState(s ir.State) Option {
	return func(m *Matcher) {
		m.state = s
	}
}

// New creates a matcher in the reset state reading from ref.
//
// Panics if ref is nil or empty: a lock with no reference sequence is a
// construction bug, not a runtime condition.
func New(ref Reference, opts ...Option) *Matcher {
	if ref == nil || ref.Len() < 1 {
		panic("engine: matcher requires a non-empty reference")
	}

	m := &Matcher{
		ref:   ref,
		clock: NewClock(),
		state: ir.Initial,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step advances the matcher by one clock edge.
func (m *Matcher) Step(in ir.Input) ir.Transition {
	t := Next(m.ref, m.state, in)
	t.Seq = m.clock.Next()
	m.state = t.After
	return t
}

// State returns the current state.
func (m *Matcher) State() ir.State {
	return m.state
}

// Index returns the current index.
func (m *Matcher) Index() int {
	return m.state.Index
}

// Unlocked reports the latched success signal.
func (m *Matcher) Unlocked() bool {
	return m.state.Unlocked()
}

// Alarm reports the latched failure signal.
func (m *Matcher) Alarm() bool {
	return m.state.Alarm()
}

// Seq returns the seq of the most recent edge (0 before the first).
func (m *Matcher) Seq() int64 {
	return m.clock.Current()
}

// Len returns the reference sequence length.
func (m *Matcher) Len() int {
	return m.ref.Len()
}
