// Package config loads lock definitions.
//
// Locks are declared in CUE:
//
//	lock: front_door: {
//	    description: "Main entrance keypad"
//	    sequence: [1, 2, 3, 4]
//	    status: { idle: 0x40, unlocked: 0x3E, alarm: 0x77 } // optional
//	}
//
// Every file is unified with an embedded schema before compilation, so
// unknown fields and out-of-range digits are rejected with CUE positions.
// A compiled Lock is a plain value; the reference sequence it carries is
// handed to refstore.New at construction time and never changes after.
package config

import (
	"fmt"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/status"
)

// DefaultName is the name of the built-in reference lock.
const DefaultName = "default"

// Lock is a compiled lock definition.
type Lock struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Sequence    []ir.Digit     `json:"-"`
	Palette     status.Palette `json:"status"`
}

// Default returns the reference lock: sequence [1, 2, 3, 4] with the
// default palette.
func Default() Lock {
	return Lock{
		Name:        DefaultName,
		Description: "reference four-digit lock",
		Sequence:    []ir.Digit{1, 2, 3, 4},
		Palette:     status.DefaultPalette,
	}
}

// Len returns the sequence length.
func (l Lock) Len() int {
	return len(l.Sequence)
}

// Validate checks the invariants CompileLock guarantees, for locks built
// directly in Go.
func (l Lock) Validate() error {
	if l.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(l.Sequence) == 0 {
		return &ValidationError{Lock: l.Name, Field: "sequence", Message: "sequence must contain at least one digit"}
	}
	for i, d := range l.Sequence {
		if !d.Valid() {
			return &ValidationError{
				Lock:    l.Name,
				Field:   fmt.Sprintf("sequence[%d]", i),
				Message: fmt.Sprintf("digit %d outside 0..%d", d, ir.MaxDigit),
			}
		}
	}
	if err := l.Palette.Validate(); err != nil {
		return &ValidationError{Lock: l.Name, Field: "status", Message: err.Error()}
	}
	return nil
}

// ValidationError reports a lock that violates an invariant.
type ValidationError struct {
	Lock    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Lock != "" {
		return fmt.Sprintf("lock %q: %s: %s", e.Lock, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Select returns the lock with the given name. An empty name selects the
// only lock when exactly one is defined.
func Select(locks []Lock, name string) (Lock, error) {
	if name == "" {
		if len(locks) == 1 {
			return locks[0], nil
		}
		return Lock{}, &LoadError{
			Code:    ErrCodeAmbiguous,
			Message: fmt.Sprintf("%d locks defined; choose one by name", len(locks)),
		}
	}
	for _, l := range locks {
		if l.Name == name {
			return l, nil
		}
	}
	return Lock{}, &LoadError{Code: ErrCodeUnknownLock, Message: fmt.Sprintf("lock %q not defined", name)}
}
