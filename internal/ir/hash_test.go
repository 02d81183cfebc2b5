package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleIDDeterminism(t *testing.T) {
	in := Input{Entry: true, Digit: 3}
	after := State{Index: 2, Outcome: Pending}

	id1, err := CycleID("session-1", 7, in, after)
	require.NoError(t, err)
	id2, err := CycleID("session-1", 7, in, after)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestCycleIDChangesWithInput(t *testing.T) {
	in := Input{Entry: true, Digit: 3}
	after := State{Index: 2}

	base := MustCycleID("s", 1, in, after)
	assert.NotEqual(t, base, MustCycleID("t", 1, in, after), "session")
	assert.NotEqual(t, base, MustCycleID("s", 2, in, after), "seq")
	assert.NotEqual(t, base, MustCycleID("s", 1, Input{Entry: true, Digit: 4}, after), "digit")
	assert.NotEqual(t, base, MustCycleID("s", 1, Input{Reset: true, Entry: true, Digit: 3}, after), "reset")
	assert.NotEqual(t, base, MustCycleID("s", 1, in, State{Index: 2, Outcome: Alarm}), "outcome")
}

func TestTableHash(t *testing.T) {
	a := TableHash([]Digit{1, 2, 3, 4})
	b := TableHash([]Digit{1, 2, 3, 4})
	c := TableHash([]Digit{1, 2, 4, 3})
	d := TableHash([]Digit{1, 2, 3})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 64)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("x")
	assert.NotEqual(t, hashWithDomain(DomainCycle, data), hashWithDomain(DomainTable, data))
}

func TestNewCycle(t *testing.T) {
	tr := Transition{
		Seq:    3,
		Input:  Input{Entry: true, Digit: 3},
		Before: State{Index: 2},
		After:  State{Index: 3},
		Kind:   KindAdvance,
	}

	c, err := NewCycle("session-1", tr, 0x40)
	require.NoError(t, err)

	assert.Equal(t, MustCycleID("session-1", 3, tr.Input, tr.After), c.ID)
	assert.Equal(t, "session-1", c.SessionID)
	assert.Equal(t, tr, c.Transition)
	assert.Equal(t, uint8(0x40), c.Status)
}
