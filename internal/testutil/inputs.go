package testutil

import "github.com/roach88/seqlock/internal/ir"

// Press is an entry pulse carrying d.
func Press(d ir.Digit) ir.Input {
	return ir.Input{Entry: true, Digit: d}
}

// Presses returns one entry pulse per digit.
func Presses(digits ...ir.Digit) []ir.Input {
	out := make([]ir.Input, len(digits))
	for i, d := range digits {
		out[i] = Press(d)
	}
	return out
}

// Idle returns n edges with no entry pulse.
func Idle(n int) []ir.Input {
	return make([]ir.Input, n)
}

// Reset is a reset edge.
var Reset = ir.Input{Reset: true}
