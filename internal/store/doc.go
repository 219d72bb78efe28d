// Package store provides the SQLite conversion manifest.
//
// Every finalized test case is recorded as a run:
//   - Runs: UUIDv7 id, logical seq, input and assembly digests, output dir
//   - Blocks: every data block of the run in allocation order, with the
//     payload digest of static blocks
//
// The lower command looks up the latest run of a test case and skips the
// conversion when the input digest is unchanged and the output directory
// still exists.
//
// # Ordering
//
// Runs are ordered by seq INTEGER, never by timestamps. Blocks are ordered
// by their allocation index (ord).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
