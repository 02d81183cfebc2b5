package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/refstore"
)

func TestReplaySession_Deterministic(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")
	recordInputs(t, s, "s1",
		press(1), press(2), ir.Input{Reset: true}, press(1), press(2), press(3), press(4), press(7))

	div, err := s.ReplaySession(context.Background(), "s1", refstore.Default())
	require.NoError(t, err)
	assert.Nil(t, div)
}

func TestReplaySession_DetectsTamperedCycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")
	recordInputs(t, s, "s1", press(1), press(2), press(3))

	_, err := s.DB().ExecContext(ctx,
		`UPDATE cycles SET kind = 'alarm', outcome_after = 'Alarm' WHERE session_id = ? AND seq = 2`, "s1")
	require.NoError(t, err)

	div, err := s.ReplaySession(ctx, "s1", refstore.Default())
	require.NoError(t, err)
	require.NotNil(t, div)
	assert.Equal(t, int64(2), div.Seq)
	assert.Equal(t, "kind", div.Field)
	assert.Equal(t, "alarm", div.Recorded)
	assert.Equal(t, "advance", div.Replayed)
}

func TestReplaySession_WrongTable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	_, err := s.ReplaySession(ctx, "s1", refstore.MustNew(4, 3, 2, 1))
	assert.ErrorIs(t, err, ErrTableMismatch)

	_, err = s.ReplaySession(ctx, "s1", refstore.MustNew(1, 2, 3))
	assert.ErrorIs(t, err, ErrTableMismatch)
}

func TestReplaySession_UnknownSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReplaySession(context.Background(), "nope", refstore.Default())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReplaySession_EmptySession(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")

	div, err := s.ReplaySession(context.Background(), "s1", refstore.Default())
	require.NoError(t, err)
	assert.Nil(t, div)
}
