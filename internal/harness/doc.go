// Package harness runs scripted scenarios against a sequence lock.
//
// A scenario names a lock (an inline sequence or a CUE lock file), a list
// of steps that drive its clock, and assertions over the recorded trace.
// Every run records its cycles to a private in-memory store, reads the
// trace back, and replays it through the engine to confirm the log is
// deterministic.
//
// # Scenario Format
//
//	name: unlock_in_order
//	description: "Correct digits in order unlock the door"
//	sequence: [1, 2, 3, 4]
//	steps:
//	  - digit: 1
//	  - digit: 2
//	  - idle: 3
//	  - digit: 3
//	  - digit: 4
//	    expect: { unlocked: true, status: 0x3E, kind: unlock }
//	  - hold: 2
//	    digit: 7
//	  - reset: true
//	assertions:
//	  - type: kind_order
//	    kinds: [advance, unlock, hold, reset]
//	  - type: status_never
//	    status: 0x77
//
// Lock files are referenced with lock: (a path relative to the scenario)
// and lock_name: when the file defines more than one lock.
//
// # Assertion Types
//
//   - final_state: outputs after the last step match expect
//   - kind_count: exactly count edges have kind
//   - kind_order: kinds appear in the trace in order, gaps allowed
//   - status_never: no edge produced status
//
// # Golden Traces
//
// Scenarios run under a fixed session token, so the trace is identical on
// every run. Snapshot renders it as canonical JSON for golden comparison;
// golden files live in a golden/ directory next to the scenarios.
package harness
