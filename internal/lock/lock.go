// Package lock composes a reference table, a sequence matcher and a status
// projector into one clocked device.
//
// One call to Tick is one clock edge. Outputs are registered: the signals
// returned by Tick reflect the state after the edge, and Signals reports
// the same values between edges without advancing the clock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/refstore"
	"github.com/roach88/seqlock/internal/status"
)

// ErrNoSession is returned by New when a recorder is configured without a
// session token.
var ErrNoSession = errors.New("recorder requires a session")

// Signals are the lock's boundary outputs.
type Signals struct {
	Unlocked bool        `json:"unlocked"`
	Alarm    bool        `json:"alarm"`
	Status   status.Code `json:"status"`
	Index    int         `json:"index"`
	Outcome  ir.Outcome  `json:"outcome"`
}

// Recorder persists cycles. *store.Store implements it.
type Recorder interface {
	WriteCycle(ctx context.Context, c ir.Cycle) error
}

// Lock is a sequence lock. Tick is serialized internally, so a Lock may be
// shared between a driver loop and readers of Signals.
type Lock struct {
	mu       sync.Mutex
	cfg      config.Lock
	table    *refstore.Table
	matcher  *engine.Matcher
	recorder Recorder
	session  string
	logger   *slog.Logger
	clock    *engine.Clock
	last     ir.Transition
	ticked   bool
}

// Option configures a Lock.
type Option func(*Lock)

// WithRecorder records every cycle through r.
func WithRecorder(r Recorder) Option {
	return func(l *Lock) {
		l.recorder = r
	}
}

// WithSession sets the session token stamped on recorded cycles.
func WithSession(id string) Option {
	return func(l *Lock) {
		l.session = id
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lock) {
		l.logger = logger
	}
}

// WithClock sets the logical clock that stamps cycle seqs.
func WithClock(c *engine.Clock) Option {
	return func(l *Lock) {
		l.clock = c
	}
}

// New builds a lock from cfg. The reference sequence is copied; later
// changes to cfg.Sequence have no effect.
func New(cfg config.Lock, opts ...Option) (*Lock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new lock: %w", err)
	}
	table, err := refstore.New(cfg.Sequence)
	if err != nil {
		return nil, fmt.Errorf("new lock %q: %w", cfg.Name, err)
	}

	l := &Lock{
		cfg:    cfg,
		table:  table,
		logger: slog.New(slog.DiscardHandler),
		clock:  engine.NewClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.recorder != nil && l.session == "" {
		return nil, fmt.Errorf("new lock %q: %w", cfg.Name, ErrNoSession)
	}

	l.matcher = engine.New(table, engine.WithClock(l.clock))
	return l, nil
}

// Tick applies one clock edge and returns the outputs after it.
//
// An input with a digit outside the 4-bit domain is rejected before the
// edge: the clock and state are untouched and nothing is recorded.
// Otherwise the state change is never rolled back: if recording fails the
// edge has still happened and the returned signals describe it.
func (l *Lock) Tick(ctx context.Context, in ir.Input) (Signals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := in.Validate(); err != nil {
		return l.signalsLocked(), fmt.Errorf("tick %q: %w", l.cfg.Name, err)
	}

	t := l.matcher.Step(in)
	l.last = t
	l.ticked = true
	sig := l.signalsLocked()

	l.logger.Debug("cycle",
		"lock", l.cfg.Name,
		"seq", t.Seq,
		"kind", t.Kind,
		"index", t.After.Index,
		"outcome", t.After.Outcome,
		"status", sig.Status)

	if t.Kind == ir.KindUnlock || t.Kind == ir.KindAlarm {
		l.logger.Info("lock latched", "lock", l.cfg.Name, "seq", t.Seq, "outcome", t.After.Outcome)
	}

	if l.recorder == nil {
		return sig, nil
	}
	c, err := ir.NewCycle(l.session, t, uint8(sig.Status))
	if err != nil {
		return sig, fmt.Errorf("tick seq %d: %w", t.Seq, err)
	}
	if err := l.recorder.WriteCycle(ctx, c); err != nil {
		return sig, fmt.Errorf("record seq %d: %w", t.Seq, err)
	}
	return sig, nil
}

// Signals returns the current outputs without a clock edge.
func (l *Lock) Signals() Signals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.signalsLocked()
}

func (l *Lock) signalsLocked() Signals {
	s := l.matcher.State()
	return Signals{
		Unlocked: s.Unlocked(),
		Alarm:    s.Alarm(),
		Status:   l.cfg.Palette.ProjectState(s),
		Index:    s.Index,
		Outcome:  s.Outcome,
	}
}

// Last returns the most recent transition. ok is false before the first
// Tick.
func (l *Lock) Last() (t ir.Transition, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.ticked
}

// State returns the matcher state.
func (l *Lock) State() ir.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matcher.State()
}

// Name returns the lock name.
func (l *Lock) Name() string { return l.cfg.Name }

// Session returns the session token, or "" when none was set.
func (l *Lock) Session() string { return l.session }

// Len returns the reference sequence length.
func (l *Lock) Len() int { return l.table.Len() }

// TableHash fingerprints the reference sequence.
func (l *Lock) TableHash() string { return l.table.Hash() }

// Table returns the reference table.
func (l *Lock) Table() *refstore.Table { return l.table }

// Palette returns the status palette.
func (l *Lock) Palette() status.Palette { return l.cfg.Palette }

// Seq returns the seq of the most recent edge.
func (l *Lock) Seq() int64 { return l.clock.Current() }
