package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
	"github.com/roach88/seqlock/internal/status"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"7", command{input: ir.Input{Entry: true, Digit: 7}, repeat: 1}},
		{"0", command{input: ir.Input{Entry: true, Digit: 0}, repeat: 1}},
		{"15", command{input: ir.Input{Entry: true, Digit: 15}, repeat: 1}},
		{"0xF", command{input: ir.Input{Entry: true, Digit: 15}, repeat: 1}},
		{"  3  ", command{input: ir.Input{Entry: true, Digit: 3}, repeat: 1}},
		{"reset", command{input: ir.Input{Reset: true}, repeat: 1}},
		{"R", command{input: ir.Input{Reset: true}, repeat: 1}},
		{"idle", command{repeat: 1}},
		{"idle 4", command{repeat: 4}},
		{"idle 10000", command{repeat: maxIdleRepeat}},
		{"i 2", command{repeat: 2}},
		{"status", command{query: true}},
		{"s", command{query: true}},
		{"quit", command{quit: true}},
		{"exit", command{quit: true}},
		{"q", command{quit: true}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		line    string
		wantErr string
	}{
		{"", "empty command"},
		{"16", "digits are 0..15"},
		{"-1", "unknown command or digit"},
		{"0x10", "digits are 0..15"},
		{"open", "unknown command or digit \"open\""},
		{"reset now", "reset takes no arguments"},
		{"idle 0", "positive integer"},
		{"idle x", "positive integer"},
		{"idle 1 2", "at most one argument"},
		{"idle 10001", "exceeds 10000"},
		{"idle 1000000000", "exceeds 10000"},
		{"idle 99999999999999999999", "positive integer"},
		{"status 1", "status takes no arguments"},
		{"3 4", "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := parseCommand(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInputLabel(t *testing.T) {
	assert.Equal(t, "digit=9", inputLabel(ir.Input{Entry: true, Digit: 9}))
	assert.Equal(t, "reset", inputLabel(ir.Input{Reset: true}))
	assert.Equal(t, "reset+2", inputLabel(ir.Input{Reset: true, Entry: true, Digit: 2}))
	assert.Equal(t, "idle", inputLabel(ir.Input{Digit: 5}))
}

func TestEdgeView_String(t *testing.T) {
	tr := ir.Transition{
		Seq:   4,
		Input: ir.Input{Entry: true, Digit: 4},
		Kind:  ir.KindUnlock,
	}
	sig := lock.Signals{
		Unlocked: true,
		Status:   status.CodeU,
		Index:    3,
		Outcome:  ir.Unlocked,
	}

	v := newEdgeView(tr, sig)
	assert.Equal(t, "bcdef", v.Segments)
	assert.Equal(t, "[4] unlock  digit=4   Unlocked index=3 status=0x3E (bcdef)", v.String())
}
