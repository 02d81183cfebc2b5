package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/status"
	"github.com/roach88/seqlock/internal/store"
	"github.com/roach88/seqlock/internal/testutil"
)

// recordAlarmSession records 1, 2, 9, idle, reset, 1 against the default
// lock: three advances, an alarm, a held edge and a reset.
func recordAlarmSession(t *testing.T, dbPath, id string) {
	t.Helper()
	inputs := append(testutil.Presses(1, 2, 9), testutil.Idle(1)...)
	inputs = append(inputs, testutil.Reset, testutil.Press(1))
	recordSession(t, dbPath, config.Default(), id, inputs...)
}

func executeTrace(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTrace_Text(t *testing.T) {
	dbPath := tempDB(t)
	recordAlarmSession(t, dbPath, "trace-1")

	out, err := executeTrace(t, "text", "--db", dbPath, "--session", "trace-1")
	require.NoError(t, err)

	assert.Contains(t, out, "Session: trace-1")
	assert.Contains(t, out, "Lock: default (4 digits, table ")
	assert.Contains(t, out, "  [1] advance digit=1   Pending@0 -> Pending@1  0x40")
	assert.Contains(t, out, "  [3] alarm   digit=9   Pending@2 -> Alarm@2  0x77")
	assert.Contains(t, out, "  [4] hold    idle      Alarm@2 -> Alarm@2  0x77")
	assert.Contains(t, out, "  [5] reset   reset     Alarm@2 -> Pending@0  0x40")
	assert.Contains(t, out, "Stats: 6 cycle(s); advance=3 alarm=1 hold=1 reset=1")
	assert.Contains(t, out, "Final: Pending@1")
}

func TestTrace_JSON(t *testing.T) {
	dbPath := tempDB(t)
	recordAlarmSession(t, dbPath, "trace-1")

	out, err := executeTrace(t, "json", "--db", dbPath, "--session", "trace-1")
	require.NoError(t, err)

	var resp struct {
		Status  string      `json:"status"`
		Data    TraceResult `json:"data"`
		Session string      `json:"session"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-1", resp.Session)
	require.Len(t, resp.Data.Timeline, 6)
	assert.Equal(t, status.CodeA, resp.Data.Timeline[2].Status)
	assert.Equal(t, "abcefg", resp.Data.Timeline[2].Segments)
	assert.Equal(t, 3, resp.Data.Stats.Kinds[ir.KindAdvance])
	assert.Equal(t, ir.State{Index: 1, Outcome: ir.Pending}, resp.Data.Stats.Final)
}

func TestTrace_KindFilter(t *testing.T) {
	dbPath := tempDB(t)
	recordAlarmSession(t, dbPath, "trace-1")

	out, err := executeTrace(t, "json", "--db", dbPath, "--session", "trace-1", "--kind", "alarm")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, int64(3), resp.Data.Timeline[0].Seq)
	assert.Equal(t, 6, resp.Data.Stats.Cycles, "stats cover the whole session")
}

func TestTrace_UnknownKind(t *testing.T) {
	dbPath := tempDB(t)
	recordAlarmSession(t, dbPath, "trace-1")

	_, err := executeTrace(t, "text", "--db", dbPath, "--session", "trace-1", "--kind", "open")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown kind "open"`)
}

func TestTrace_EmptySession(t *testing.T) {
	dbPath := tempDB(t)
	recordSession(t, dbPath, config.Default(), "empty-1")

	out, err := executeTrace(t, "text", "--db", dbPath, "--session", "empty-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No cycles recorded.")
	assert.Contains(t, out, "Stats: 0 cycle(s)\n")
	assert.Contains(t, out, "Final: Pending@0")
}

func TestTrace_SessionNotFound(t *testing.T) {
	dbPath := tempDB(t)
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := executeTrace(t, "text", "--db", dbPath, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_SESSION]: session not found: nope")
}

func TestTrace_NonExistentDatabase(t *testing.T) {
	_, err := executeTrace(t, "text", "--db", "/nonexistent/path/test.db", "--session", "s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTrace_MissingFlags(t *testing.T) {
	_, err := executeTrace(t, "text", "--session", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = executeTrace(t, "text", "--db", tempDB(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestFormatKinds(t *testing.T) {
	got := formatKinds(map[ir.TransitionKind]int{
		ir.KindUnlock:  1,
		ir.KindAdvance: 2,
		ir.KindIdle:    5,
	})
	assert.Equal(t, "advance=2 idle=5 unlock=1", got)
	assert.Empty(t, formatKinds(nil))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}
