package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/ir"
)

func TestCreateSession_AssignsCreatedSeq(t *testing.T) {
	s := createTestStore(t)

	a := createTestSession(t, s, "session-a")
	b := createTestSession(t, s, "session-b")

	assert.Equal(t, int64(1), a.CreatedSeq)
	assert.Equal(t, int64(2), b.CreatedSeq)
	assert.Equal(t, ir.EngineVersion, a.EngineVersion)
	assert.Equal(t, ir.IRVersion, a.IRVersion)
}

func TestCreateSession_Idempotent(t *testing.T) {
	s := createTestStore(t)

	first := createTestSession(t, s, "session-a")
	again := createTestSession(t, s, "session-a")

	assert.Equal(t, first, again)

	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCreateSession_ConflictingTable(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "session-a")

	_, err := s.CreateSession(context.Background(), ir.Session{
		ID:        "session-a",
		LockName:  "default",
		TableHash: ir.TableHash([]ir.Digit{9, 9, 9, 9}),
		Length:    4,
	})
	assert.ErrorContains(t, err, "different table")
}

func TestCreateSession_RequiresID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateSession(context.Background(), ir.Session{LockName: "x", TableHash: "h", Length: 1})
	assert.Error(t, err)
}

func TestWriteCycle_RoundTripsTransition(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")

	written := recordInputs(t, s, "s1", press(1), ir.Input{Digit: 7}, press(5))

	got, err := s.ReadCycle(context.Background(), written[2].ID)
	require.NoError(t, err)

	want := written[2]
	// Expected is never persisted.
	want.Transition.Expected = 0
	assert.Equal(t, want, got)
	assert.Equal(t, ir.KindAlarm, got.Transition.Kind)
	assert.True(t, got.Transition.Compared)
	assert.Equal(t, ir.State{Index: 1, Outcome: ir.Alarm}, got.Transition.After)
}

func TestWriteCycle_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	cycles := recordInputs(t, s, "s1", press(1))
	require.NoError(t, s.WriteCycle(ctx, cycles[0]))
	require.NoError(t, s.WriteCycle(ctx, cycles[0]))

	got, err := s.ReadCycles(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWriteCycle_RejectsSecondCycleAtSameSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	recordInputs(t, s, "s1", press(1))

	// Different input at seq 1 has a different ID but the same slot.
	tr := ir.Transition{Seq: 1, Input: ir.Input{}, Kind: ir.KindIdle}
	c, err := ir.NewCycle("s1", tr, 0x40)
	require.NoError(t, err)

	assert.Error(t, s.WriteCycle(ctx, c))
}

func TestWriteCycle_UnknownSessionViolatesForeignKey(t *testing.T) {
	s := createTestStore(t)

	tr := ir.Transition{Seq: 1, Kind: ir.KindIdle}
	c, err := ir.NewCycle("missing", tr, 0x40)
	require.NoError(t, err)

	assert.Error(t, s.WriteCycle(context.Background(), c))
}

func TestWriteCycle_RejectsOutOfRangeDigit(t *testing.T) {
	s := createTestStore(t)
	createTestSession(t, s, "s1")

	tr := ir.Transition{Seq: 1, Input: ir.Input{Entry: true, Digit: 16}, Kind: ir.KindAlarm}
	c, err := ir.NewCycle("s1", tr, 0x77)
	require.NoError(t, err)

	assert.Error(t, s.WriteCycle(context.Background(), c))
}
