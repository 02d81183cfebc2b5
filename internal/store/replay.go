package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/seqlock/internal/engine"
)

// ErrTableMismatch is returned when a replay is attempted with a reference
// table other than the one the session was recorded against.
var ErrTableMismatch = errors.New("reference table does not match session")

// hasher is implemented by refstore.Table.
type hasher interface {
	Hash() string
}

// ReplaySession re-runs a session's recorded inputs through a fresh
// matcher over ref and reports the first edge that was not reproduced.
// A nil Divergence with a nil error means the log is deterministic.
//
// When ref can fingerprint itself its hash must match the session's;
// otherwise only the length is checked.
func (s *Store) ReplaySession(ctx context.Context, sessionID string, ref engine.Reference) (*engine.Divergence, error) {
	sess, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if ref.Len() != sess.Length {
		return nil, fmt.Errorf("replay %s: %w: length %d, recorded %d",
			sessionID, ErrTableMismatch, ref.Len(), sess.Length)
	}
	if h, ok := ref.(hasher); ok && h.Hash() != sess.TableHash {
		return nil, fmt.Errorf("replay %s: %w", sessionID, ErrTableMismatch)
	}

	cycles, err := s.ReadCycles(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return engine.Verify(ref, Transitions(cycles)), nil
}
