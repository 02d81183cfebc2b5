package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandLogger_JSONWhenNotTerminal(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewCommandLogger(buf, false)

	logger.Info("session opened", "session", "s-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "session opened", record["msg"])
	assert.Equal(t, "s-1", record["session"])
}

func TestNewCommandLogger_Level(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewCommandLogger(buf, tt.verbose)

			logger.Debug("edge", "seq", 1)

			if tt.wantDebug {
				assert.Contains(t, buf.String(), `"msg":"edge"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
