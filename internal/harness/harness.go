package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
	"github.com/roach88/seqlock/internal/store"
	"github.com/roach88/seqlock/internal/testutil"
)

// Harness is the scenario execution engine. It drives a real lock whose
// cycles are recorded to a private in-memory store.
type Harness struct {
	lock   *lock.Lock
	store  *store.Store
	logger *slog.Logger
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes the run's logs, including the lock's per-cycle debug
// records, to logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, under a
// fixed session token so cycle IDs and the trace are reproducible.
//
// Execution flow:
//  1. Build the lock from the inline sequence or CUE file
//  2. Open an in-memory store and register the session
//  3. Apply every step, checking step expects as it goes
//  4. Read the trace back from the store
//  5. Replay the session to confirm the log is deterministic
//  6. Evaluate assertions
//
// A returned error means the scenario could not be executed; expectation
// failures are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	rc := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&rc)
	}

	cfg, err := scenario.LockConfig()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	session := testutil.NewFixedSessionGenerator(scenario.Session).Generate()
	l, err := lock.New(cfg,
		lock.WithRecorder(st),
		lock.WithSession(session),
		lock.WithLogger(rc.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if _, err := st.CreateSession(ctx, ir.Session{
		ID:        session,
		LockName:  l.Name(),
		TableHash: l.TableHash(),
		Length:    l.Len(),
	}); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h := &Harness{lock: l, store: st, logger: rc.logger}
	result := NewResult(session)

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	result.Final = l.Signals()

	cycles, err := st.ReadCycles(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	for _, c := range cycles {
		result.AddCycle(c)
	}

	div, err := st.ReplaySession(ctx, session, l.Table())
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if div != nil {
		result.AddError(div.Error())
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"edges", len(result.Trace),
		"pass", result.Pass)
	return result, nil
}

// executeStep applies one step and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	var sig lock.Signals
	var err error

	switch {
	case step.Idle > 0:
		for n := 0; n < step.Idle && err == nil; n++ {
			sig, err = h.lock.Tick(ctx, ir.Input{})
		}

	case step.Hold > 0:
		kp := lock.NewKeypad(h.lock)
		for n := 0; n < step.Hold && err == nil; n++ {
			sig, err = kp.Sample(ctx, false, true, *step.Digit)
		}
		if err == nil {
			sig, err = kp.Sample(ctx, false, false, *step.Digit)
		}

	default:
		in := ir.Input{Reset: step.Reset}
		if step.Digit != nil {
			in.Digit = *step.Digit
			in.Entry = step.pulse()
		}
		sig, err = h.lock.Tick(ctx, in)
	}
	if err != nil {
		return err
	}

	last, _ := h.lock.Last()
	h.logger.Debug("step completed",
		"step", i,
		"seq", last.Seq,
		"kind", last.Kind,
		"state", last.After.String())

	if step.Expect != nil {
		for _, msg := range matchExpect(step.Expect, sig, last.Kind) {
			result.AddError(fmt.Sprintf("steps[%d] (seq %d): %s", i, last.Seq, msg))
		}
	}
	return nil
}
