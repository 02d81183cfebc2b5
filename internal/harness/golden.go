package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/seqlock/internal/ir"
)

// goldenDir is the directory, next to the scenario files, that holds
// golden traces.
const goldenDir = "golden"

const goldenSuffix = ".golden"

// ErrGoldenMismatch is returned by CompareGolden when the trace differs
// from the stored golden file.
var ErrGoldenMismatch = errors.New("trace does not match golden file")

// Snapshot serializes a scenario's trace as canonical JSON. The output is
// byte-stable for a given scenario, so it can be compared directly against
// a golden file.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ev.object()
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"session":       result.Session,
		"trace":         trace,
	})
}

// GoldenPath returns the golden file for a scenario loaded from
// scenarioFile.
func GoldenPath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), goldenDir, name+goldenSuffix)
}

// CompareGolden checks got against the golden file at path. A missing
// file is reported as an error wrapping fs.ErrNotExist.
func CompareGolden(path string, got []byte) error {
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("%s: %w", path, ErrGoldenMismatch)
	}
	return nil
}

// UpdateGolden writes got to path, creating the golden directory if
// needed.
func UpdateGolden(path string, got []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, got, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

// RunWithGolden executes a scenario and compares its trace against
// fixtureDir/{scenario.Name}.golden.
//
// To regenerate golden files, run the test with -update.
//
// Returns an error if the scenario cannot be executed. A trace mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, fixtureDir string, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, fixtureDir, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against
// fixtureDir/{name}.golden without re-running the scenario.
func AssertGolden(t *testing.T, fixtureDir, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(fixtureDir),
		goldie.WithNameSuffix(goldenSuffix),
	)
	g.Assert(t, name, data)
	return nil
}
