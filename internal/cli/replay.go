package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/refstore"
	"github.com/roach88/seqlock/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
	Config   string // lock definitions; the built-in lock when empty
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string             `json:"session"`
	Lock          string             `json:"lock"`
	Cycles        int                `json:"cycles"`
	Deterministic bool               `json:"deterministic"`
	Divergence    *engine.Divergence `json:"divergence,omitempty"`
	Error         string             `json:"error,omitempty"` // set when the session could not be replayed
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded sessions and verify determinism",
		Long: `Re-run every recorded input through a fresh matcher and check that each
edge reproduces the recorded kind and states.

The reference sequence is not stored in the log. Each session is matched
to a lock in --config by name and must have the same table fingerprint.

Exit codes:
  0 - All sessions replayed identically
  1 - A session diverged or could not be matched to its lock
  2 - Command error (database not found, bad config, etc.)

Examples:
  seqlock replay --db ./seqlock.db
  seqlock replay --db ./seqlock.db --config ./locks --session 0192e4c5-...
  seqlock replay --db ./seqlock.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")
	cmd.Flags().StringVar(&opts.Config, "config", "", "lock definitions directory or file")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	locks := []config.Lock{config.Default()}
	if opts.Config != "" {
		loaded, err := config.LoadDir(opts.Config)
		if err != nil {
			return lockLoadError(formatter, err)
		}
		locks = loaded
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var sessions []ir.Session
	if opts.Session != "" {
		sess, err := st.ReadSession(ctx, opts.Session)
		if errors.Is(err, store.ErrSessionNotFound) {
			_ = formatter.Error(CodeSession, fmt.Sprintf("session not found: %s", opts.Session), nil)
			return WrapExitError(ExitCommandError, "session not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		sessions = []ir.Session{sess}
	} else {
		sessions, err = st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	for _, sess := range sessions {
		formatter.VerboseLog("Replaying session %s (lock %s)", sess.ID, sess.LockName)
		sr, err := replaySession(ctx, st, sess, locks)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", sess.ID), err)
		}
		result.Sessions = append(result.Sessions, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replaySession verifies one session. A lock that cannot be matched is
// reported in the result rather than returned as an error.
func replaySession(ctx context.Context, st *store.Store, sess ir.Session, locks []config.Lock) (ReplaySessionResult, error) {
	sr := ReplaySessionResult{Session: sess.ID, Lock: sess.LockName}

	cycles, err := st.ReadCycles(ctx, sess.ID)
	if err != nil {
		return sr, err
	}
	sr.Cycles = len(cycles)

	cfg, err := config.Select(locks, sess.LockName)
	if err != nil {
		sr.Error = fmt.Sprintf("lock %q not in config", sess.LockName)
		return sr, nil
	}
	table, err := refstore.New(cfg.Sequence)
	if err != nil {
		return sr, err
	}

	div, err := st.ReplaySession(ctx, sess.ID, table)
	if errors.Is(err, store.ErrTableMismatch) {
		sr.Error = fmt.Sprintf("lock %q has changed since the session was recorded", sess.LockName)
		return sr, nil
	}
	if err != nil {
		return sr, err
	}

	sr.Divergence = div
	sr.Deterministic = div == nil
	return sr, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: statusOK,
		Data:   result,
	}
	if !result.AllDeterministic {
		response.Status = statusError
		response.Error = &CLIError{
			Code:    CodeDeterminism,
			Message: "determinism verification failed",
		}
	}

	if err := f.Report(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		mark := "✓"
		if !s.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", mark, s.Session)
		fmt.Fprintf(w, "  Lock: %s, %d cycle(s)\n", s.Lock, s.Cycles)

		switch {
		case s.Error != "":
			fmt.Fprintf(w, "  Not verified: %s\n", s.Error)
		case s.Divergence != nil:
			fmt.Fprintf(w, "  Warning: %s\n", s.Divergence.Error())
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
