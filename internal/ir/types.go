package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Digit is a single keypad value. The representable domain is 4 bits.
type Digit uint8

// MaxDigit is the largest representable digit.
const MaxDigit Digit = 15

// Valid reports whether d fits the 4-bit digit domain.
func (d Digit) Valid() bool {
	return d <= MaxDigit
}

// Input is the set of boundary signals sampled on one clock edge.
//
// Entry is expected to be asserted for exactly one edge per logical digit
// submission. The matcher does no debouncing; a level held across several
// edges is evaluated once per edge. Use edge.Detector ahead of the matcher
// when the source is a held key.
type Input struct {
	Reset bool  `json:"reset"`
	Entry bool  `json:"entry"`
	Digit Digit `json:"digit"`
}

// ErrDigitRange is returned for an input whose digit is outside 0..MaxDigit.
var ErrDigitRange = errors.New("digit out of range")

// Validate rejects digits outside the 4-bit domain. The digit is checked
// even when Entry is low, since every edge records it.
func (in Input) Validate() error {
	if !in.Digit.Valid() {
		return fmt.Errorf("%w: %d (max %d)", ErrDigitRange, in.Digit, MaxDigit)
	}
	return nil
}

// Object returns the input as a canonical JSON object.
func (in Input) Object() map[string]any {
	return map[string]any{
		"reset": in.Reset,
		"entry": in.Entry,
		"digit": int64(in.Digit),
	}
}

// Outcome is the matcher's tagged outcome.
type Outcome uint8

const (
	// Pending means neither terminal outcome has been reached.
	Pending Outcome = iota
	// Unlocked is the absorbing success outcome.
	Unlocked
	// Alarm is the absorbing failure outcome.
	Alarm
)

var outcomeNames = [...]string{
	Pending:  "Pending",
	Unlocked: "Unlocked",
	Alarm:    "Alarm",
}

// String returns the outcome name.
func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// Terminal reports whether o is absorbing.
func (o Outcome) Terminal() bool {
	return o == Unlocked || o == Alarm
}

// ParseOutcome parses an outcome name. Matching is case-insensitive.
func ParseOutcome(s string) (Outcome, error) {
	for i, name := range outcomeNames {
		if strings.EqualFold(name, s) {
			return Outcome(i), nil
		}
	}
	return Pending, fmt.Errorf("unknown outcome %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if int(o) >= len(outcomeNames) {
		return nil, fmt.Errorf("invalid outcome %d", uint8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// State is the matcher's complete state.
//
// Index counts consecutive correct digits from position 0. Once Outcome is
// terminal, Index is frozen until reset.
type State struct {
	Index   int     `json:"index"`
	Outcome Outcome `json:"outcome"`
}

// Initial is the state after reset.
var Initial = State{Index: 0, Outcome: Pending}

// Unlocked reports the latched success signal.
func (s State) Unlocked() bool {
	return s.Outcome == Unlocked
}

// Alarm reports the latched failure signal.
func (s State) Alarm() bool {
	return s.Outcome == Alarm
}

// Object returns the state as a canonical JSON object.
func (s State) Object() map[string]any {
	return map[string]any{
		"index":   int64(s.Index),
		"outcome": s.Outcome.String(),
	}
}

func (s State) String() string {
	return fmt.Sprintf("%s@%d", s.Outcome, s.Index)
}

// TransitionKind names which branch of the transition rule fired.
// Exactly one kind applies to every clock edge.
type TransitionKind string

const (
	// KindReset: reset asserted; state returned to Initial.
	KindReset TransitionKind = "reset"
	// KindHold: terminal outcome absorbed the edge.
	KindHold TransitionKind = "hold"
	// KindIdle: no entry pulse; nothing changed.
	KindIdle TransitionKind = "idle"
	// KindAdvance: correct non-final digit.
	KindAdvance TransitionKind = "advance"
	// KindUnlock: correct final digit.
	KindUnlock TransitionKind = "unlock"
	// KindAlarm: wrong digit.
	KindAlarm TransitionKind = "alarm"
)

// ValidKinds lists every transition kind.
var ValidKinds = map[TransitionKind]bool{
	KindReset:   true,
	KindHold:    true,
	KindIdle:    true,
	KindAdvance: true,
	KindUnlock:  true,
	KindAlarm:   true,
}

// Transition records one clock edge.
type Transition struct {
	Seq    int64          `json:"seq"`
	Input  Input          `json:"input"`
	Before State          `json:"before"`
	After  State          `json:"after"`
	Kind   TransitionKind `json:"kind"`

	// Compared is true when the reference table was read on this edge.
	// Expected is only meaningful when Compared is true.
	Compared bool  `json:"compared"`
	Expected Digit `json:"-"`
}

// Changed reports whether the edge altered the state.
func (t Transition) Changed() bool {
	return t.Before != t.After
}
