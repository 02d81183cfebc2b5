package store

import (
	"context"
	"fmt"

	"github.com/roach88/seqlock/internal/ir"
)

// CreateSession registers a session and assigns its CreatedSeq, the
// session's position in the log. Creating an existing session ID returns
// the stored row, provided it names the same lock and table.
//
// EngineVersion and IRVersion default to the running build's when empty.
func (s *Store) CreateSession(ctx context.Context, sess ir.Session) (ir.Session, error) {
	if sess.ID == "" {
		return ir.Session{}, fmt.Errorf("create session: id is required")
	}
	if sess.EngineVersion == "" {
		sess.EngineVersion = ir.EngineVersion
	}
	if sess.IRVersion == "" {
		sess.IRVersion = ir.IRVersion
	}

	// WHERE true disambiguates INSERT ... SELECT from the upsert clause.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, lock_name, table_hash, length, created_seq, engine_version, ir_version)
		SELECT ?, ?, ?, ?, COALESCE(MAX(created_seq), 0) + 1, ?, ?
		FROM sessions WHERE true
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.LockName,
		sess.TableHash,
		sess.Length,
		sess.EngineVersion,
		sess.IRVersion,
	)
	if err != nil {
		return ir.Session{}, fmt.Errorf("create session: %w", err)
	}

	stored, err := s.ReadSession(ctx, sess.ID)
	if err != nil {
		return ir.Session{}, fmt.Errorf("create session: %w", err)
	}
	if stored.LockName != sess.LockName || stored.TableHash != sess.TableHash || stored.Length != sess.Length {
		return ir.Session{}, fmt.Errorf("create session %s: already recorded for lock %q with a different table",
			sess.ID, stored.LockName)
	}
	return stored, nil
}

// WriteCycle appends one cycle. Uses ON CONFLICT(id) DO NOTHING, so
// rewriting an identical cycle is a no-op. A different cycle at an
// already-recorded (session, seq) is rejected by the unique index.
//
// The session must exist (foreign key constraint).
func (s *Store) WriteCycle(ctx context.Context, c ir.Cycle) error {
	t := c.Transition
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
		(id, session_id, seq, reset, entry, digit, kind,
		 index_before, outcome_before, index_after, outcome_after, compared, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.SessionID,
		t.Seq,
		t.Input.Reset,
		t.Input.Entry,
		int(t.Input.Digit),
		string(t.Kind),
		t.Before.Index,
		t.Before.Outcome.String(),
		t.After.Index,
		t.After.Outcome.String(),
		t.Compared,
		int(c.Status),
	)
	if err != nil {
		return fmt.Errorf("write cycle seq %d: %w", t.Seq, err)
	}
	return nil
}
