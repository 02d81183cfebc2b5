package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
	"github.com/roach88/seqlock/internal/store"
)

var _ engine.SessionGenerator = (*FixedSessionGenerator)(nil)

func TestFixedSessionGenerator_ReturnsSameToken(t *testing.T) {
	gen := NewFixedSessionGenerator("test-session-123")

	assert.Equal(t, "test-session-123", gen.Generate())
	assert.Equal(t, "test-session-123", gen.Generate())
}

func TestFixedSessionGenerator_EmptyTokenDefault(t *testing.T) {
	assert.Equal(t, DefaultSessionToken, NewFixedSessionGenerator("").Generate())
}

func TestFixedSessionGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedSessionGenerator("thread-safe-token")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe-token", gen.Generate())
			}
		}()
	}
	wg.Wait()
}

func TestPresses_DriveLockToUnlock(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	l, err := lock.New(config.Default(), lock.WithRecorder(st), lock.WithSession("s1"))
	require.NoError(t, err)
	_, err = st.CreateSession(ctx, ir.Session{ID: "s1", LockName: l.Name(), TableHash: l.TableHash(), Length: l.Len()})
	require.NoError(t, err)

	for _, in := range Presses(1, 2, 3, 4) {
		_, err := l.Tick(context.Background(), in)
		require.NoError(t, err)
	}

	cycles, err := st.ReadCycles(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, cycles, 4)
	assert.Equal(t, ir.KindUnlock, cycles[3].Transition.Kind)
}

func TestInputs(t *testing.T) {
	assert.Equal(t, ir.Input{Entry: true, Digit: 7}, Press(7))
	assert.Equal(t, []ir.Input{Press(1), Press(2)}, Presses(1, 2))
	assert.Empty(t, Presses())
	assert.Equal(t, []ir.Input{{}, {}, {}}, Idle(3))
	assert.True(t, Reset.Reset)
}
