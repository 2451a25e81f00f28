// Package store provides SQLite-backed storage for saved filters: named,
// already translated queries that can be listed and re-run later.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Listings are ordered by name COLLATE BINARY so output is stable across
// runs.
package store
