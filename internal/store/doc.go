// Package store provides a SQLite-backed append-only log of lock cycles.
//
// The log holds two record kinds:
//   - Sessions: one row per opened lock, tagged with the reference table's
//     hash (never the digits themselves)
//   - Cycles: one row per clock edge, keyed by a content-addressed ID
//
// # Ordering
//
// All ordering uses logical seq values, never timestamps. Every query that
// returns several rows orders by seq then id (COLLATE BINARY) so results
// are identical across runs and replays.
//
// # Idempotency
//
// Cycle IDs are computed by ir.CycleID from the session, seq, input and
// resulting state. Writing the same cycle twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: a cycle must belong to a known session
package store
