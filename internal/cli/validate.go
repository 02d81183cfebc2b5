package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/status"
)

// LockInfo describes a valid lock. The digits themselves are never
// printed; the table hash identifies the sequence.
type LockInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Length      int            `json:"length"`
	TableHash   string         `json:"table_hash"`
	Status      status.Palette `json:"status"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Locks  []LockInfo  `json:"locks,omitempty"`
	Errors []LoadIssue `json:"errors,omitempty"`
}

// LoadIssue is one validation failure with its CUE position.
type LoadIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate lock definitions",
		Long: `Load and validate CUE lock definitions.

Every file is checked against the lock schema: sequences must be non-empty
with digits 0..15, and status codes must be distinct values 0..255.

Exit codes:
  0 - All locks valid
  1 - A lock failed validation
  2 - Command error (directory not found, no CUE files, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, _ := config.FindCUEFiles(configDir)
	formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), configDir)

	locks, err := config.LoadDir(configDir)
	if err != nil {
		return outputLoadFailure(formatter, err)
	}

	infos := make([]LockInfo, len(locks))
	for i, l := range locks {
		formatter.VerboseLog("Validated lock: %s", l.Name)
		infos[i] = LockInfo{
			Name:        l.Name,
			Description: l.Description,
			Length:      l.Len(),
			TableHash:   ir.TableHash(l.Sequence),
			Status:      l.Palette,
		}
	}
	return outputValidateSuccess(formatter, infos)
}

// isCommandError reports whether a load failure is about the input path
// rather than the lock definitions.
func isCommandError(code string) bool {
	switch code {
	case config.ErrCodeNotFound, config.ErrCodeNoFiles, config.ErrCodeScanError:
		return true
	}
	return false
}

func outputLoadFailure(formatter *OutputFormatter, err error) error {
	code := config.Code(err)
	if isCommandError(code) {
		return formatter.CommandError(code, "failed to load locks", err)
	}

	issue := LoadIssue{Code: code, Message: err.Error()}
	var le *config.LoadError
	if errors.As(err, &le) {
		issue.Message = le.Message
		if le.Pos.IsValid() {
			issue.File = le.Pos.Filename()
			issue.Line = le.Pos.Line()
		}
	}
	return outputValidationErrors(formatter, []LoadIssue{issue})
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, locks []LockInfo) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Locks: locks})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d lock(s) valid\n", len(locks))
	for _, l := range locks {
		fmt.Fprintf(formatter.Writer, "  %s: %d digits, status idle=%s unlocked=%s alarm=%s\n",
			l.Name, l.Length, l.Status.Idle, l.Status.Unlocked, l.Status.Alarm)
	}
	return nil
}

// outputValidationErrors outputs validation failures.
func outputValidationErrors(formatter *OutputFormatter, errs []LoadIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: statusError,
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.Report(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s line %d\n", e.File, e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
