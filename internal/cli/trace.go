package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/status"
	"github.com/roach88/seqlock/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Kind     string // optional - filter to one transition kind
}

// CycleView is one recorded cycle in the timeline.
type CycleView struct {
	Seq      int64             `json:"seq"`
	ID       string            `json:"id"`
	Kind     ir.TransitionKind `json:"kind"`
	Input    ir.Input          `json:"input"`
	Before   ir.State          `json:"before"`
	After    ir.State          `json:"after"`
	Status   status.Code       `json:"status"`
	Segments string            `json:"segments"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  ir.Session  `json:"session"`
	Timeline []CycleView `json:"timeline"`
	Stats    TraceStats  `json:"stats"`
}

// TraceStats holds summary statistics for the session. They always
// cover the whole session, even when the timeline is filtered.
type TraceStats struct {
	Cycles int                       `json:"cycles"`
	Kinds  map[ir.TransitionKind]int `json:"kinds"`
	Final  ir.State                  `json:"final"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded timeline of a session",
		Long: `Show every recorded clock edge of a session in order.

The output includes:
- Timeline: one line per edge with its input, state change and status code
- Stats: edge counts per transition kind and the final state

Examples:
  seqlock trace --db ./seqlock.db --session 0192e4c5-...
  seqlock trace --db ./seqlock.db --session 0192e4c5-... --kind alarm
  seqlock trace --db ./seqlock.db --session 0192e4c5-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one transition kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Kind != "" && !ir.ValidKinds[ir.TransitionKind(opts.Kind)] {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown kind %q", opts.Kind))
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := buildTrace(ctx, st, opts.Session, ir.TransitionKind(opts.Kind))
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = formatter.Error(CodeSession, fmt.Sprintf("session not found: %s", opts.Session), nil)
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	if opts.Format == "json" {
		return formatter.Report(CLIResponse{Status: statusOK, Data: result, Session: result.Session.ID})
	}
	outputTraceText(formatter, result)
	return nil
}

// buildTrace reads a session's cycles and summary. A non-empty kind
// filters the timeline.
func buildTrace(ctx context.Context, st *store.Store, sessionID string, kind ir.TransitionKind) (TraceResult, error) {
	sum, err := st.SessionSummary(ctx, sessionID)
	if err != nil {
		return TraceResult{}, err
	}
	cycles, err := st.ReadCycles(ctx, sessionID)
	if err != nil {
		return TraceResult{}, err
	}

	timeline := make([]CycleView, 0, len(cycles))
	for _, c := range cycles {
		t := c.Transition
		if kind != "" && t.Kind != kind {
			continue
		}
		code := status.Code(c.Status)
		timeline = append(timeline, CycleView{
			Seq:      t.Seq,
			ID:       c.ID,
			Kind:     t.Kind,
			Input:    t.Input,
			Before:   t.Before,
			After:    t.After,
			Status:   code,
			Segments: code.Segments(),
		})
	}

	return TraceResult{
		Session:  sum.Session,
		Timeline: timeline,
		Stats: TraceStats{
			Cycles: sum.Cycles,
			Kinds:  sum.Kinds,
			Final:  sum.Final,
		},
	}, nil
}

func outputTraceText(f *OutputFormatter, result TraceResult) {
	w := f.Writer
	s := result.Session

	fmt.Fprintf(w, "Session: %s\n", s.ID)
	fmt.Fprintf(w, "Lock: %s (%d digits, table %s)\n", s.LockName, s.Length, shortHash(s.TableHash))
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No cycles recorded.")
	} else {
		fmt.Fprintln(w, "Timeline:")
		for _, c := range result.Timeline {
			fmt.Fprintf(w, "  [%d] %-7s %-9s %s -> %s  %s\n",
				c.Seq, c.Kind, inputLabel(c.Input), c.Before, c.After, c.Status)
			if f.Verbose {
				fmt.Fprintf(w, "      id=%s segments=%s\n", c.ID, c.Segments)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stats: %d cycle(s)", result.Stats.Cycles)
	if kinds := formatKinds(result.Stats.Kinds); kinds != "" {
		fmt.Fprintf(w, "; %s", kinds)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Final: %s\n", result.Stats.Final)
}

// formatKinds renders kind counts sorted by kind name.
func formatKinds(kinds map[ir.TransitionKind]int) string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, kinds[ir.TransitionKind(name)])
	}
	return strings.Join(parts, " ")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
