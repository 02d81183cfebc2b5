package lock

import (
	"context"

	"github.com/roach88/seqlock/internal/edge"
	"github.com/roach88/seqlock/internal/ir"
)

// Keypad drives a Lock from raw key levels. A key held across several
// edges submits its digit once, on the edge where it went down.
type Keypad struct {
	lock *Lock
	key  edge.Detector
}

// NewKeypad wraps l.
func NewKeypad(l *Lock) *Keypad {
	return &Keypad{lock: l}
}

// Sample applies one clock edge with the given raw levels. down is the
// key-pressed level; digit is the value on the keypad bus.
//
// A digit outside the 4-bit domain is rejected without touching the key
// detector, so the press is seen again once the bus settles.
func (k *Keypad) Sample(ctx context.Context, reset, down bool, digit ir.Digit) (Signals, error) {
	if !digit.Valid() {
		return k.lock.Tick(ctx, ir.Input{Reset: reset, Entry: down, Digit: digit})
	}
	pulse := k.key.Sample(down)
	return k.lock.Tick(ctx, ir.Input{Reset: reset, Entry: pulse, Digit: digit})
}

// Lock returns the wrapped lock.
func (k *Keypad) Lock() *Lock {
	return k.lock
}
