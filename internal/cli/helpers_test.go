package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
)

const (
	locksDir     = "../../testdata/locks"
	scenariosDir = "../../testdata/scenarios"
)

// syncBuffer is a bytes.Buffer safe for the driver and reader goroutines
// to write concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// recordSession writes one session of inputs to dbPath and returns its ID.
func recordSession(t *testing.T, dbPath string, cfg config.Lock, id string, inputs ...ir.Input) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess, err := openLockSession(context.Background(), cfg, dbPath, engine.NewFixedGenerator(id), logger)
	require.NoError(t, err)
	for _, in := range inputs {
		_, err := sess.lock.Tick(context.Background(), in)
		require.NoError(t, err)
	}
	require.NoError(t, sess.Close())
	return sess.ID()
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "seqlock.db")
}
