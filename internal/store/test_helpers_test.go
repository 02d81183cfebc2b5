package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/seqlock/internal/engine"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/refstore"
	"github.com/roach88/seqlock/internal/status"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession registers a session against the default table.
func createTestSession(t *testing.T, s *Store, id string) ir.Session {
	t.Helper()
	table := refstore.Default()
	sess, err := s.CreateSession(context.Background(), ir.Session{
		ID:        id,
		LockName:  "default",
		TableHash: table.Hash(),
		Length:    table.Len(),
	})
	if err != nil {
		t.Fatalf("CreateSession(%q) failed: %v", id, err)
	}
	return sess
}

// recordInputs runs inputs through a matcher over the default table and
// writes every edge to the session.
func recordInputs(t *testing.T, s *Store, session string, inputs ...ir.Input) []ir.Cycle {
	t.Helper()
	ctx := context.Background()
	m := engine.New(refstore.Default())

	cycles := make([]ir.Cycle, 0, len(inputs))
	for _, in := range inputs {
		tr := m.Step(in)
		c, err := ir.NewCycle(session, tr, uint8(status.DefaultPalette.ProjectState(tr.After)))
		if err != nil {
			t.Fatalf("NewCycle failed: %v", err)
		}
		if err := s.WriteCycle(ctx, c); err != nil {
			t.Fatalf("WriteCycle(seq %d) failed: %v", tr.Seq, err)
		}
		cycles = append(cycles, c)
	}
	return cycles
}

func press(d ir.Digit) ir.Input { return ir.Input{Entry: true, Digit: d} }
