// Package store provides SQLite-backed durable storage for interpreter runs.
//
// The interpreter is a reference oracle: a code generator's output is
// cross-checked against the values the interpreter produced for the same
// program, function and inputs. The store keeps those results:
//   - Programs: program text keyed by ir.ProgramDigest
//   - Runs: function, inputs, outputs or error code, and step count
//
// # Ordering
//
// Runs are ordered by seq, a logical clock assigned on insert, never by
// wall time. All list queries use ORDER BY seq with id as a tie-breaker so
// results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run ids are UUIDv7 unless a generator is supplied with WithIDGenerator.
package store
