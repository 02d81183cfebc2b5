package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/seqlock/internal/config"
	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/status"
)

// InlineLockName names the lock built from a scenario's inline sequence
// when no lock_name is given.
const InlineLockName = "inline"

// Scenario drives one lock through a list of steps and checks the
// resulting outputs and trace.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden traces are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sequence is an inline reference sequence. Exactly one of Sequence
	// and Lock must be set.
	Sequence []ir.Digit `yaml:"sequence,omitempty"`

	// Status overrides the default palette for an inline sequence.
	Status *status.Palette `yaml:"status,omitempty"`

	// Lock is a path to a CUE lock file or directory, relative to the
	// scenario file.
	Lock string `yaml:"lock,omitempty"`

	// LockName selects a lock from Lock, or names the inline lock.
	LockName string `yaml:"lock_name,omitempty"`

	// Session is a fixed session token. Defaults to
	// testutil.DefaultSessionToken so cycle IDs are stable.
	Session string `yaml:"session,omitempty"`

	// Steps are applied in order. Each step is one or more clock edges.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the trace and final outputs.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scripted interaction. Exactly one of Digit, Idle and Reset
// drives the step; Reset may also carry a Digit to show reset dominance.
type Step struct {
	// Digit is presented on the keypad bus for one edge.
	Digit *ir.Digit `yaml:"digit,omitempty"`

	// Pulse asserts entry with Digit. Defaults to true.
	Pulse *bool `yaml:"pulse,omitempty"`

	// Hold presses Digit through a keypad for Hold edges, then releases
	// it for one more edge. Only the first held edge submits.
	Hold int `yaml:"hold,omitempty"`

	// Idle applies this many edges with no entry pulse.
	Idle int `yaml:"idle,omitempty"`

	// Reset asserts reset for one edge.
	Reset bool `yaml:"reset,omitempty"`

	// Expect is checked after the step's last edge.
	Expect *Expect `yaml:"expect,omitempty"`
}

func (s Step) pulse() bool {
	return s.Pulse == nil || *s.Pulse
}

// Expect is a subset match against the lock outputs. Unset fields are
// not checked.
type Expect struct {
	Index    *int   `yaml:"index,omitempty"`
	Outcome  string `yaml:"outcome,omitempty"`
	Unlocked *bool  `yaml:"unlocked,omitempty"`
	Alarm    *bool  `yaml:"alarm,omitempty"`
	Status   *int   `yaml:"status,omitempty"`

	// Kind is the transition kind of the most recent edge.
	Kind string `yaml:"kind,omitempty"`
}

// Assertion validates the trace or the final outputs.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": outputs after the last step match Expect
	// - "kind_count": exactly Count edges have Kind
	// - "kind_order": Kinds appear in this order (gaps allowed)
	// - "status_never": no edge ever produced Status
	Type string `yaml:"type"`

	Expect *Expect  `yaml:"expect,omitempty"`
	Kind   string   `yaml:"kind,omitempty"`
	Count  *int     `yaml:"count,omitempty"`
	Kinds  []string `yaml:"kinds,omitempty"`
	Status *int     `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState  = "final_state"
	AssertKindCount   = "kind_count"
	AssertKindOrder   = "kind_order"
	AssertStatusNever = "status_never"
)

// LoadScenario reads and parses a scenario YAML file. A relative lock
// path is resolved against the scenario file's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is LoadScenario with relative lock paths
// resolved against basePath instead.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Lock != "" && !filepath.IsAbs(scenario.Lock) && basePath != "" {
		scenario.Lock = filepath.Join(basePath, scenario.Lock)
	}
	if scenario.Lock != "" {
		if _, err := os.Stat(scenario.Lock); os.IsNotExist(err) {
			return nil, &LockNotFoundError{Scenario: scenario.Name, ResolvedPath: scenario.Lock}
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Lock paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LockConfig builds the lock the scenario runs against.
func (s *Scenario) LockConfig() (config.Lock, error) {
	if s.Lock == "" {
		cfg := config.Lock{
			Name:     s.LockName,
			Sequence: s.Sequence,
			Palette:  status.DefaultPalette,
		}
		if cfg.Name == "" {
			cfg.Name = InlineLockName
		}
		if s.Status != nil {
			cfg.Palette = *s.Status
		}
		return cfg, cfg.Validate()
	}

	locks, err := config.LoadDir(s.Lock)
	if err != nil {
		return config.Lock{}, fmt.Errorf("load lock: %w", err)
	}
	return config.Select(locks, s.LockName)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case len(s.Sequence) > 0 && s.Lock != "":
		return fmt.Errorf("sequence and lock are mutually exclusive")
	case len(s.Sequence) == 0 && s.Lock == "":
		return fmt.Errorf("one of sequence or lock is required")
	case s.Lock != "" && s.Status != nil:
		return fmt.Errorf("status applies only to an inline sequence; set it in the lock file")
	}
	for i, d := range s.Sequence {
		if !d.Valid() {
			return fmt.Errorf("sequence[%d]: digit %d outside 0..%d", i, d, ir.MaxDigit)
		}
	}
	if s.Status != nil {
		if err := s.Status.Validate(); err != nil {
			return fmt.Errorf("status: %w", err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch {
	case step.Idle < 0:
		return fmt.Errorf("steps[%d]: idle must be positive", i)
	case step.Hold < 0:
		return fmt.Errorf("steps[%d]: hold must be positive", i)
	case step.Idle > 0 && (step.Digit != nil || step.Reset):
		return fmt.Errorf("steps[%d]: idle cannot be combined with digit or reset", i)
	case step.Idle == 0 && step.Digit == nil && !step.Reset:
		return fmt.Errorf("steps[%d]: one of digit, idle or reset is required", i)
	case step.Pulse != nil && step.Digit == nil:
		return fmt.Errorf("steps[%d]: pulse requires digit", i)
	case step.Hold > 0 && step.Digit == nil:
		return fmt.Errorf("steps[%d]: hold requires digit", i)
	case step.Hold > 0 && (step.Reset || step.Pulse != nil):
		return fmt.Errorf("steps[%d]: hold cannot be combined with reset or pulse", i)
	case step.Digit != nil && !step.Digit.Valid():
		return fmt.Errorf("steps[%d]: digit %d outside 0..%d", i, *step.Digit, ir.MaxDigit)
	}
	if step.Expect != nil {
		if err := validateExpect(fmt.Sprintf("steps[%d].expect", i), step.Expect); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(where string, e *Expect) error {
	if e.Index != nil && *e.Index < 0 {
		return fmt.Errorf("%s: index must be non-negative", where)
	}
	if e.Outcome != "" {
		if _, err := ir.ParseOutcome(e.Outcome); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	if e.Status != nil && (*e.Status < 0 || *e.Status > 0xFF) {
		return fmt.Errorf("%s: status %d outside 0..255", where, *e.Status)
	}
	if e.Kind != "" && !ir.ValidKinds[ir.TransitionKind(e.Kind)] {
		return fmt.Errorf("%s: unknown kind %q", where, e.Kind)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		return validateExpect(fmt.Sprintf("assertions[%d].expect", index), a.Expect)
	case AssertKindCount:
		if !ir.ValidKinds[ir.TransitionKind(a.Kind)] {
			return fmt.Errorf("assertions[%d]: valid kind is required for kind_count, got %q", index, a.Kind)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for kind_count", index)
		}
	case AssertKindOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for kind_order", index)
		}
		for _, k := range a.Kinds {
			if !ir.ValidKinds[ir.TransitionKind(k)] {
				return fmt.Errorf("assertions[%d]: unknown kind %q", index, k)
			}
		}
	case AssertStatusNever:
		if a.Status == nil || *a.Status < 0 || *a.Status > 0xFF {
			return fmt.Errorf("assertions[%d]: status 0..255 is required for status_never", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
