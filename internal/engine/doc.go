// Package engine implements the seqlock sequence matcher.
//
// The matcher is the only stateful part of a lock: it tracks how many
// digits have been matched so far and latches one of two terminal
// outcomes. Everything around it (reference table, status projection,
// logging, storage) is a collaborator.
//
// # Transition Rule
//
// Step is called once per clock edge and evaluates, in priority order:
//
//  1. Reset asserted: state returns to Pending@0, whatever else is asserted.
//  2. Outcome terminal: nothing changes. Entries are ignored until reset.
//  3. Entry asserted: the digit is compared against Lookup(index).
//     Correct and final position: Unlocked, index unchanged.
//     Correct otherwise: index+1.
//     Wrong: Alarm, index frozen at the failing position.
//  4. Otherwise: nothing changes.
//
// Exactly one branch applies to every edge; the branch taken is reported
// as the transition's Kind.
//
// # Logical Clock
//
// Every edge is stamped with a strictly increasing seq from Clock.Next().
// Wall-clock time is never used for ordering, so a recorded session
// replays to identical transitions.
//
// # Concurrency
//
// A Matcher is a single-writer object and is not safe for concurrent use.
// lock.Lock serializes access when a Matcher is shared.
package engine
