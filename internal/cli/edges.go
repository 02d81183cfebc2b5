package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/lock"
	"github.com/roach88/seqlock/internal/status"
)

// EdgeView is one clock edge as printed by run and feed.
type EdgeView struct {
	Seq      int64             `json:"seq"`
	Kind     ir.TransitionKind `json:"kind"`
	Input    ir.Input          `json:"input"`
	Unlocked bool              `json:"unlocked"`
	Alarm    bool              `json:"alarm"`
	Status   status.Code       `json:"status"`
	Segments string            `json:"segments"`
	Index    int               `json:"index"`
	Outcome  ir.Outcome        `json:"outcome"`
}

func newEdgeView(t ir.Transition, sig lock.Signals) EdgeView {
	return EdgeView{
		Seq:      t.Seq,
		Kind:     t.Kind,
		Input:    t.Input,
		Unlocked: sig.Unlocked,
		Alarm:    sig.Alarm,
		Status:   sig.Status,
		Segments: sig.Status.Segments(),
		Index:    sig.Index,
		Outcome:  sig.Outcome,
	}
}

func (v EdgeView) String() string {
	return fmt.Sprintf("[%d] %-7s %-9s %s", v.Seq, v.Kind, inputLabel(v.Input), signalsLabel(v.Index, v.Outcome, v.Status))
}

// SignalsView is a status query answer.
type SignalsView struct {
	Unlocked bool        `json:"unlocked"`
	Alarm    bool        `json:"alarm"`
	Status   status.Code `json:"status"`
	Segments string      `json:"segments"`
	Index    int         `json:"index"`
	Outcome  ir.Outcome  `json:"outcome"`
}

func newSignalsView(sig lock.Signals) SignalsView {
	return SignalsView{
		Unlocked: sig.Unlocked,
		Alarm:    sig.Alarm,
		Status:   sig.Status,
		Segments: sig.Status.Segments(),
		Index:    sig.Index,
		Outcome:  sig.Outcome,
	}
}

func (v SignalsView) String() string {
	return "status: " + signalsLabel(v.Index, v.Outcome, v.Status)
}

func inputLabel(in ir.Input) string {
	switch {
	case in.Reset && in.Entry:
		return fmt.Sprintf("reset+%d", in.Digit)
	case in.Reset:
		return "reset"
	case in.Entry:
		return fmt.Sprintf("digit=%d", in.Digit)
	default:
		return "idle"
	}
}

func signalsLabel(index int, outcome ir.Outcome, code status.Code) string {
	return fmt.Sprintf("%-8s index=%d status=%s (%s)", outcome, index, code, code.Segments())
}

// maxIdleRepeat bounds "idle n"; each repeat is one queued edge.
const maxIdleRepeat = 10000

// command is one parsed keypad command.
type command struct {
	input  ir.Input
	repeat int  // edges to apply; 0 for non-edge commands
	query  bool // status
	quit   bool
}

// parseCommand parses a keypad command:
//
//	<digit>     entry pulse with digit 0..15 (decimal, or hex with 0x)
//	reset       reset edge
//	idle [n]    n edges without entry (default 1, at most maxIdleRepeat)
//	status      report signals without an edge
//	quit        stop
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}

	word, args := fields[0], fields[1:]
	switch word {
	case "reset", "r":
		if len(args) != 0 {
			return command{}, fmt.Errorf("reset takes no arguments")
		}
		return command{input: ir.Input{Reset: true}, repeat: 1}, nil

	case "idle", "i":
		n := 1
		if len(args) > 1 {
			return command{}, fmt.Errorf("idle takes at most one argument")
		}
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return command{}, fmt.Errorf("idle count must be a positive integer, got %q", args[0])
			}
			if v > maxIdleRepeat {
				return command{}, fmt.Errorf("idle count %d exceeds %d", v, maxIdleRepeat)
			}
			n = v
		}
		return command{repeat: n}, nil

	case "status", "s":
		if len(args) != 0 {
			return command{}, fmt.Errorf("status takes no arguments")
		}
		return command{query: true}, nil

	case "quit", "exit", "q":
		return command{quit: true}, nil
	}

	if len(args) != 0 {
		return command{}, fmt.Errorf("unexpected arguments after %q", word)
	}
	d, err := parseDigit(word)
	if err != nil {
		return command{}, err
	}
	return command{input: ir.Input{Entry: true, Digit: d}, repeat: 1}, nil
}

// parseDigit parses a keypad digit, decimal or 0x-prefixed hex.
func parseDigit(s string) (ir.Digit, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || !ir.Digit(v).Valid() {
		return 0, fmt.Errorf("unknown command or digit %q (digits are 0..%d)", s, ir.MaxDigit)
	}
	return ir.Digit(v), nil
}
