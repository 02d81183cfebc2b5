package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/ir"
)

func TestKeypad_HeldKeySubmitsOnce(t *testing.T) {
	ctx := context.Background()
	k := NewKeypad(newTestLock(t))

	// Key 1 held for three edges, released, then key 2 held for two.
	levels := []struct {
		down  bool
		digit ir.Digit
	}{
		{true, 1}, {true, 1}, {true, 1}, {false, 0},
		{true, 2}, {true, 2}, {false, 0},
	}
	var sig Signals
	for _, lv := range levels {
		var err error
		sig, err = k.Sample(ctx, false, lv.down, lv.digit)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, sig.Index)
	assert.False(t, sig.Alarm, "held keys must not resubmit")
}

func TestKeypad_WithoutDetectorHeldKeyAlarms(t *testing.T) {
	// Same held key fed straight to the lock: the second edge compares 1
	// against position 1 and alarms.
	ctx := context.Background()
	l := newTestLock(t)

	_, err := l.Tick(ctx, press(1))
	require.NoError(t, err)
	sig, err := l.Tick(ctx, press(1))
	require.NoError(t, err)
	assert.True(t, sig.Alarm)
}

func TestKeypad_ResetWhileHeld(t *testing.T) {
	ctx := context.Background()
	k := NewKeypad(newTestLock(t))

	_, err := k.Sample(ctx, false, true, 1)
	require.NoError(t, err)

	sig, err := k.Sample(ctx, true, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sig.Index)

	// Still held after reset: no new edge.
	sig, err = k.Sample(ctx, false, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sig.Index)

	_, err = k.Sample(ctx, false, false, 0)
	require.NoError(t, err)
	sig, err = k.Sample(ctx, false, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sig.Index)
	assert.Same(t, k.lock, k.Lock())
}

func TestKeypad_OutOfRangeDigitKeepsPress(t *testing.T) {
	ctx := context.Background()
	k := NewKeypad(newTestLock(t))

	_, err := k.Sample(ctx, false, true, 16)
	require.ErrorIs(t, err, ir.ErrDigitRange)
	assert.Equal(t, int64(0), k.Lock().Seq())

	// The bus settles while the key is still down: the press counts once.
	sig, err := k.Sample(ctx, false, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sig.Index)
	sig, err = k.Sample(ctx, false, true, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sig.Index)
}
