package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/seqlock/internal/ir"
)

const cycleColumns = `id, session_id, seq, reset, entry, digit, kind,
	index_before, outcome_before, index_after, outcome_after, compared, status`

// ReadSession retrieves a session by ID.
// Returns an error wrapping ErrSessionNotFound if it is not recorded.
func (s *Store) ReadSession(ctx context.Context, id string) (ir.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, lock_name, table_hash, length, created_seq, engine_version, ir_version
		FROM sessions
		WHERE id = ?
	`, id)

	var sess ir.Session
	err := row.Scan(&sess.ID, &sess.LockName, &sess.TableHash, &sess.Length,
		&sess.CreatedSeq, &sess.EngineVersion, &sess.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return ir.Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every session in creation order.
func (s *Store) ListSessions(ctx context.Context) ([]ir.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lock_name, table_hash, length, created_seq, engine_version, ir_version
		FROM sessions
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		var sess ir.Session
		if err := rows.Scan(&sess.ID, &sess.LockName, &sess.TableHash, &sess.Length,
			&sess.CreatedSeq, &sess.EngineVersion, &sess.IRVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadCycles returns a session's cycles ordered by seq ASC, id ASC.
// Returns an error wrapping ErrSessionNotFound for unknown sessions; a
// known session with no cycles yields an empty slice.
func (s *Store) ReadCycles(ctx context.Context, sessionID string) ([]ir.Cycle, error) {
	if _, err := s.ReadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cycleColumns+`
		FROM cycles
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []ir.Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}

// ReadCycle retrieves a single cycle by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCycle(ctx context.Context, id string) (ir.Cycle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+cycleColumns+`
		FROM cycles
		WHERE id = ?
	`, id)
	return scanCycle(row)
}

// Summary aggregates one session's cycles.
type Summary struct {
	Session  ir.Session                `json:"session"`
	Cycles   int                       `json:"cycles"`
	FirstSeq int64                     `json:"first_seq"`
	LastSeq  int64                     `json:"last_seq"`
	Kinds    map[ir.TransitionKind]int `json:"kinds"`
	Final    ir.State                  `json:"final"`
}

// SessionSummary counts cycles per kind and reports the state after the
// last recorded edge. A session with no cycles reports the reset state.
func (s *Store) SessionSummary(ctx context.Context, sessionID string) (Summary, error) {
	sess, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Session: sess, Kinds: map[ir.TransitionKind]int{}, Final: ir.Initial}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*)
		FROM cycles
		WHERE session_id = ?
		GROUP BY kind
		ORDER BY kind COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("count cycles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return Summary{}, fmt.Errorf("scan kind count: %w", err)
		}
		sum.Kinds[ir.TransitionKind(kind)] = n
		sum.Cycles += n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate kind counts: %w", err)
	}
	if sum.Cycles == 0 {
		return sum, nil
	}

	var outcome string
	err = s.db.QueryRowContext(ctx, `
		SELECT MIN(seq), MAX(seq),
		       (SELECT index_after FROM cycles WHERE session_id = ?1 ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT 1),
		       (SELECT outcome_after FROM cycles WHERE session_id = ?1 ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT 1)
		FROM cycles
		WHERE session_id = ?1
	`, sessionID).Scan(&sum.FirstSeq, &sum.LastSeq, &sum.Final.Index, &outcome)
	if err != nil {
		return Summary{}, fmt.Errorf("read final state: %w", err)
	}
	if sum.Final.Outcome, err = ir.ParseOutcome(outcome); err != nil {
		return Summary{}, fmt.Errorf("read final state: %w", err)
	}
	return sum, nil
}

// LastSeq returns the highest recorded seq for a session, or 0 when it
// has no cycles.
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM cycles WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// Transitions extracts the transitions from cycles, in order.
func Transitions(cycles []ir.Cycle) []ir.Transition {
	out := make([]ir.Transition, len(cycles))
	for i, c := range cycles {
		out[i] = c.Transition
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(row scanner) (ir.Cycle, error) {
	var c ir.Cycle
	var digit, status int
	var kind, before, after string
	t := &c.Transition

	if err := row.Scan(
		&c.ID, &c.SessionID, &t.Seq,
		&t.Input.Reset, &t.Input.Entry, &digit,
		&kind,
		&t.Before.Index, &before,
		&t.After.Index, &after,
		&t.Compared, &status,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Cycle{}, err
		}
		return ir.Cycle{}, fmt.Errorf("scan cycle: %w", err)
	}

	var err error
	if t.Before.Outcome, err = ir.ParseOutcome(before); err != nil {
		return ir.Cycle{}, fmt.Errorf("cycle %s: outcome_before: %w", c.ID, err)
	}
	if t.After.Outcome, err = ir.ParseOutcome(after); err != nil {
		return ir.Cycle{}, fmt.Errorf("cycle %s: outcome_after: %w", c.ID, err)
	}
	t.Input.Digit = ir.Digit(digit)
	t.Kind = ir.TransitionKind(kind)
	c.Status = uint8(status)
	return c, nil
}
