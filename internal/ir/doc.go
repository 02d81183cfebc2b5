// Package ir provides the value types shared by every seqlock package.
//
// This package contains type definitions, canonical JSON, and
// content-addressed identity only. All other internal packages import ir;
// ir imports nothing internal.
//
// Key design constraints:
//   - Outcome is a single tagged value, never a pair of booleans
//   - Digits are 4-bit values (0..15)
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
