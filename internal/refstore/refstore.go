// Package refstore holds the reference sequence a lock compares entries
// against.
//
// A Table is a total, read-only mapping from position (0..N-1) to the
// expected digit. It is built once from an injected sequence and never
// changes afterwards, so it can be shared by any number of readers without
// coordination.
package refstore

import (
	"errors"
	"fmt"

	"github.com/roach88/seqlock/internal/ir"
)

// Sentinel is returned by Lookup for positions outside the table.
const Sentinel ir.Digit = 0

// ErrEmpty is returned when a table would have no positions.
var ErrEmpty = errors.New("reference sequence must contain at least one digit")

// Table is an immutable reference sequence.
type Table struct {
	digits []ir.Digit
	hash   string
}

// New builds a table from digits. The slice is copied.
func New(digits []ir.Digit) (*Table, error) {
	if len(digits) == 0 {
		return nil, ErrEmpty
	}
	for i, d := range digits {
		if !d.Valid() {
			return nil, fmt.Errorf("position %d: digit %d outside 0..%d", i, d, ir.MaxDigit)
		}
	}

	owned := make([]ir.Digit, len(digits))
	copy(owned, digits)
	return &Table{digits: owned, hash: ir.TableHash(owned)}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with compiled-in sequences.
func MustNew(digits ...ir.Digit) *Table {
	t, err := New(digits)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the reference table [1, 2, 3, 4].
func Default() *Table {
	return MustNew(1, 2, 3, 4)
}

// Lookup returns the expected digit at index, or Sentinel when index is
// out of range.
func (t *Table) Lookup(index int) ir.Digit {
	if index < 0 || index >= len(t.digits) {
		return Sentinel
	}
	return t.digits[index]
}

// Len returns the number of positions.
func (t *Table) Len() int {
	return len(t.digits)
}

// Digits returns a copy of the sequence.
func (t *Table) Digits() []ir.Digit {
	out := make([]ir.Digit, len(t.digits))
	copy(out, t.digits)
	return out
}

// Hash returns the content-addressed fingerprint of the sequence.
func (t *Table) Hash() string {
	return t.hash
}
