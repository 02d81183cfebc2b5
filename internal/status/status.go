// Package status projects a lock's outcome signals onto a display code.
//
// Projection is pure and unclocked: the code is recomputed from the two
// outcome signals whenever they are read, and nothing is stored.
package status

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/seqlock/internal/ir"
)

// Code is a seven-segment pattern, one bit per segment in gfedcba order
// (bit 0 = a). Bit 7 is the decimal point.
type Code uint8

// Seven-segment codes used by DefaultPalette.
const (
	CodeDash Code = 0x40 // g
	CodeU    Code = 0x3E // b c d e f
	CodeA    Code = 0x77 // a b c e f g
)

// String renders the code as 0xNN.
func (c Code) String() string {
	return fmt.Sprintf("0x%02X", uint8(c))
}

// Segments lists the lit segments, e.g. "bcdef". The decimal point is ".".
func (c Code) Segments() string {
	var b strings.Builder
	for i, name := range "abcdefg." {
		if c&(1<<uint(i)) != 0 {
			b.WriteRune(name)
		}
	}
	return b.String()
}

// Palette assigns a code to each of the three display conditions.
type Palette struct {
	Idle     Code `json:"idle" yaml:"idle"`
	Unlocked Code `json:"unlocked" yaml:"unlocked"`
	Alarm    Code `json:"alarm" yaml:"alarm"`
}

// DefaultPalette shows "-" while pending, "U" when unlocked, "A" on alarm.
var DefaultPalette = Palette{
	Idle:     CodeDash,
	Unlocked: CodeU,
	Alarm:    CodeA,
}

// ErrIndistinct is returned when two conditions share a code.
var ErrIndistinct = errors.New("status codes must be distinct")

// Validate checks that the three codes are pairwise distinct.
func (p Palette) Validate() error {
	if p.Idle == p.Unlocked || p.Idle == p.Alarm || p.Unlocked == p.Alarm {
		return fmt.Errorf("%w: idle=%s unlocked=%s alarm=%s", ErrIndistinct, p.Idle, p.Unlocked, p.Alarm)
	}
	return nil
}

// Project returns the code for the given signals. Unlocked takes
// precedence over alarm if both are somehow asserted.
func (p Palette) Project(unlocked, alarm bool) Code {
	switch {
	case unlocked:
		return p.Unlocked
	case alarm:
		return p.Alarm
	default:
		return p.Idle
	}
}

// ProjectState is Project applied to a matcher state.
func (p Palette) ProjectState(s ir.State) Code {
	return p.Project(s.Unlocked(), s.Alarm())
}

// Project uses DefaultPalette.
func Project(unlocked, alarm bool) Code {
	return DefaultPalette.Project(unlocked, alarm)
}

// ProjectOutcome uses DefaultPalette.
func ProjectOutcome(o ir.Outcome) Code {
	return DefaultPalette.ProjectState(ir.State{Outcome: o})
}
