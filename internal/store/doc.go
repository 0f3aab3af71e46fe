// Package store provides SQLite-backed durable storage for simulation runs.
//
// The store keeps three append-only tables:
//   - runs: one row per simulated game (seed, teams, final score, digest, config)
//   - events: the ordered event log of each run, in storage form
//   - batches: Monte Carlo batch summaries
//
// The simulation core never touches the store; the CLI persists a run after
// it finishes and reads it back for trace and replay.
//
// # Ordering
//
// Event reads always use ORDER BY seq ASC, so a stored log digests to the same
// value as the in-memory log it was written from. Listings order by
// created_at then id, never by rowid.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
