package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/lock"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Lock     string
	Database string

	// SessionGenerator allows overriding the session ID generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [config-dir]",
		Short: "Drive a lock interactively from stdin",
		Long: `Drive a lock one clock edge at a time from stdin.

Each input line is one command:
  <digit>    entry pulse with digit 0..15 (decimal, or hex like 0xF)
  reset      reset edge
  idle [n]   n edges with no entry pulse (default 1, at most 10000)
  status     print the current signals without an edge
  quit       stop

The signals after every edge are printed to stdout. With --db, every
edge is recorded to the cycle log under a new session.

Without a config directory the built-in reference lock (1 2 3 4) is used.

Example:
  seqlock run ./locks --lock front_door --db ./seqlock.db
  printf '1\n2\n3\n4\n' | seqlock run --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir := ""
			if len(args) == 1 {
				configDir = args[0]
			}
			return runInteractive(opts, configDir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Lock, "lock", "", "lock name (required when the config defines several)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record cycles to this SQLite database")

	return cmd
}

func runInteractive(opts *RunOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := NewCommandLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := loadLock(configDir, opts.Lock)
	if err != nil {
		return lockLoadError(formatter, err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sess, err := openLockSession(ctx, cfg, opts.Database, opts.SessionGenerator, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var failed int
	driver := lock.NewDriver(sess.lock,
		lock.WithDriverLogger(logger),
		lock.WithObserver(func(r lock.Report) {
			if r.Err != nil {
				failed++
				_ = formatter.Error(CodeRecord, r.Err.Error(), nil)
				return
			}
			if r.Event.Type == lock.EventQuery {
				_ = formatter.Success(newSignalsView(r.Signals))
				return
			}
			_ = formatter.Success(newEdgeView(r.Transition, r.Signals))
		}),
	)

	done := make(chan error, 1)
	go func() {
		done <- driver.Run(ctx)
	}()

	in := cmd.InOrStdin()
	prompt := isTerminal(in)
	if sess.ID() != "" {
		formatter.VerboseLog("session %s", sess.ID())
	}
	if prompt {
		fmt.Fprintf(cmd.ErrOrStderr(), "lock %s ready (%d digits). Commands: <digit>, reset, idle [n], status, quit\n", cfg.Name, cfg.Len())
	}

	// The reader may stay blocked on stdin after a signal; the driver
	// returning is what ends the command.
	go func() {
		readCommands(in, prompt, cmd.ErrOrStderr(), driver)
		driver.Stop()
	}()

	// On Stop the driver drains every queued edge before returning.
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "driver error", err)
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d edge(s) failed to record", failed))
	}
	return nil
}

// readCommands submits one command per line until EOF or quit. Parse
// errors are reported on errOut and the loop continues.
func readCommands(in io.Reader, prompt bool, errOut io.Writer, driver *lock.Driver) {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(errOut, "> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if isBlank(line) {
			continue
		}

		c, err := parseCommand(line)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		switch {
		case c.quit:
			return
		case c.query:
			driver.Query()
		default:
			for range c.repeat {
				if !driver.Submit(c.input) {
					return
				}
			}
		}
	}
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
