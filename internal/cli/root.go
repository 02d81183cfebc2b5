package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/ir"
)

// RootOptions are the persistent flags shared by every command.
type RootOptions struct {
	Verbose bool
	Format  string // one of ValidFormats
}

// ValidFormats are the accepted --format values.
var ValidFormats = []string{"text", "json"}

// Command groups shown in help.
const (
	groupDrive  = "drive"
	groupConfig = "config"
	groupLog    = "log"
)

// NewRootCommand builds the seqlock command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "seqlock",
		Short: "seqlock - sequence-detecting keypad lock",
		Long: `A clocked keypad lock that unlocks on an exact digit sequence.

Each clock edge samples reset, an entry pulse and a 4-bit digit. Correct
digits in order unlock the lock; any wrong digit raises the alarm. Both
outcomes latch until reset. A seven-segment status code reflects the
outcome after every edge.`,
		Version: fmt.Sprintf("%s (ir %s)", ir.EngineVersion, ir.IRVersion),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddGroup(
		&cobra.Group{ID: groupDrive, Title: "Driving a lock:"},
		&cobra.Group{ID: groupConfig, Title: "Lock definitions and scenarios:"},
		&cobra.Group{ID: groupLog, Title: "Cycle log:"},
	)
	for group, subs := range map[string][]*cobra.Command{
		groupDrive:  {NewRunCommand(opts), NewFeedCommand(opts)},
		groupConfig: {NewValidateCommand(opts), NewTestCommand(opts)},
		groupLog:    {NewTraceCommand(opts), NewReplayCommand(opts), NewSessionsCommand(opts)},
	} {
		for _, sub := range subs {
			sub.GroupID = group
			cmd.AddCommand(sub)
		}
	}

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
