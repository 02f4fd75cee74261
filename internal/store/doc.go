// Package store provides SQLite-backed storage for trip documents, the
// POI/hotel/restaurant/transport records that feed aggregate constraints,
// and the reports of constraint checks.
//
// Tables:
//   - documents: IR documents keyed by their content-addressed ID
//   - records: candidate records, grouped by category and city
//   - check_runs: one row per engine check, with candidate and report
//
// # Critical Patterns
//
// Content addressing
//   - documents.id is ir.DocumentID; saving the same document twice is a no-op
//
// Logical time
//   - documents.created_seq and check_runs.seq are logical counters,
//     never timestamps
//
// Deterministic query results
//   - Every query orders by seq or by id COLLATE BINARY
//
// Canonical JSON
//   - JSON columns hold RFC 8785 canonical JSON so equal content is stored
//     byte-identically
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
