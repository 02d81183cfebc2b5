package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
)

// FeedOptions holds flags for the feed command.
type FeedOptions struct {
	*RootOptions
	Lock     string
	Database string
	Digits   string
	Expect   string // optional outcome the final state must have

	// SessionGenerator allows overriding the session ID generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// FeedResult is the feed command's output.
type FeedResult struct {
	Lock    string      `json:"lock"`
	Session string      `json:"session,omitempty"`
	Edges   []EdgeView  `json:"edges"`
	Final   SignalsView `json:"final"`
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "feed [config-dir]",
		Short: "Apply a fixed list of keypad commands",
		Long: `Apply a comma-separated list of keypad commands, one clock edge each,
and print every edge plus the final signals.

Items are digits (0..15), "reset", or "idle" / "idle N".

Exit codes:
  0 - All edges applied (and --expect matched, if given)
  1 - Final outcome differs from --expect
  2 - Command error (bad lock, bad digit list, etc.)

Examples:
  seqlock feed --digits 1,2,3,4
  seqlock feed ./locks --lock vault --digits 9,0,15,3,3,7 --expect unlocked
  seqlock feed ./locks --lock front_door --digits 1,9,reset,1 --db ./seqlock.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := ""
			if len(args) == 1 {
				configDir = args[0]
			}
			return runFeed(opts, configDir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Lock, "lock", "", "lock name (required when the config defines several)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record cycles to this SQLite database")
	cmd.Flags().StringVar(&opts.Digits, "digits", "", "comma-separated commands, e.g. 1,2,reset,idle 3,4 (required)")
	_ = cmd.MarkFlagRequired("digits")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "required final outcome (pending|unlocked|alarm)")

	return cmd
}

func runFeed(opts *FeedOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := NewCommandLogger(cmd.ErrOrStderr(), opts.Verbose)

	var want *ir.Outcome
	if opts.Expect != "" {
		o, err := ir.ParseOutcome(opts.Expect)
		if err != nil {
			return formatter.CommandError(CodeArgs, "invalid --expect", err)
		}
		want = &o
	}

	commands, err := parseFeed(opts.Digits)
	if err != nil {
		return formatter.CommandError(CodeArgs, "invalid --digits", err)
	}

	cfg, err := loadLock(configDir, opts.Lock)
	if err != nil {
		return lockLoadError(formatter, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openLockSession(ctx, cfg, opts.Database, opts.SessionGenerator, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	result := FeedResult{
		Lock:    cfg.Name,
		Session: sess.ID(),
		Edges:   []EdgeView{},
	}
	for _, c := range commands {
		for range c.repeat {
			sig, err := sess.lock.Tick(ctx, c.input)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to record cycle", err)
			}
			t, _ := sess.lock.Last()
			result.Edges = append(result.Edges, newEdgeView(t, sig))
		}
	}
	result.Final = newSignalsView(sess.lock.Signals())

	if err := outputFeed(formatter, result); err != nil {
		return err
	}

	if want != nil && result.Final.Outcome != *want {
		return NewExitError(ExitFailure, fmt.Sprintf("final outcome %s, expected %s", result.Final.Outcome, *want))
	}
	return nil
}

// parseFeed splits a --digits list into commands. status and quit are
// interactive-only.
func parseFeed(list string) ([]command, error) {
	var commands []command
	for i, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("item %d is empty", i+1)
		}
		c, err := parseCommand(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if c.query || c.quit {
			return nil, fmt.Errorf("item %d: %q is only available in run", i+1, item)
		}
		commands = append(commands, c)
	}
	return commands, nil
}

func outputFeed(f *OutputFormatter, result FeedResult) error {
	if f.Format == "json" {
		return f.Report(CLIResponse{Status: statusOK, Data: result, Session: result.Session})
	}

	for _, e := range result.Edges {
		fmt.Fprintln(f.Writer, e)
	}
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Lock %s: %s\n", result.Lock, finalLabel(result.Final))
	if result.Session != "" {
		fmt.Fprintf(f.Writer, "Session: %s (%d cycles recorded)\n", result.Session, len(result.Edges))
	}
	return nil
}

func finalLabel(v SignalsView) string {
	mark := "pending"
	switch {
	case v.Unlocked:
		mark = "✓ unlocked"
	case v.Alarm:
		mark = "✗ alarm"
	}
	return fmt.Sprintf("%s (status %s, %s)", mark, v.Status, v.Status.Segments())
}
