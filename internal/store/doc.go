// Package store provides SQLite-backed storage for fact databases and
// recorded plans.
//
// The store holds:
//   - Facts: fact instances per domain, kept in insertion order
//   - Plans: one record per planning attempt, found or not
//   - Plan steps: the primitive tasks of each found plan
//
// # Ordering
//
// Fact rows are read back ORDER BY id, so a database loaded from the store
// iterates in the order the facts were written. Plans are listed
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Values
//
// Values are stored as their decimal text inside canonical JSON arrays and
// parsed against the compiled domain's field types on load. A stored fact
// whose name or arity no longer matches the domain is a load error.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
