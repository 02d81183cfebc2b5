package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/ir"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
	Lock     string // optional - filter by lock name
}

// SessionInfo is one row of the session listing.
type SessionInfo struct {
	ID            string   `json:"id"`
	Lock          string   `json:"lock"`
	Length        int      `json:"length"`
	Cycles        int      `json:"cycles"`
	Final         ir.State `json:"final"`
	EngineVersion string   `json:"engine_version"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Long: `List the sessions in a cycle log, oldest first, with each session's
cycle count and final state.

Examples:
  seqlock sessions --db ./seqlock.db
  seqlock sessions --db ./seqlock.db --lock vault --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Lock, "lock", "", "only sessions of this lock")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		if opts.Lock != "" && sess.LockName != opts.Lock {
			continue
		}
		sum, err := st.SessionSummary(ctx, sess.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to summarize session %s", sess.ID), err)
		}
		infos = append(infos, SessionInfo{
			ID:            sess.ID,
			Lock:          sess.LockName,
			Length:        sess.Length,
			Cycles:        sum.Cycles,
			Final:         sum.Final,
			EngineVersion: sess.EngineVersion,
		})
	}

	if opts.Format == "json" {
		return formatter.Report(CLIResponse{Status: statusOK, Data: infos})
	}

	w := formatter.Writer
	if len(infos) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}
	for _, s := range infos {
		fmt.Fprintf(w, "%s  %-12s %4d cycle(s)  %s\n", s.ID, s.Lock, s.Cycles, s.Final)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d session(s)\n", len(infos))
	return nil
}
