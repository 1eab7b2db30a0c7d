// Package storage provides the persistence port used by every storefront container.
//
// Each container owns one JSON document stored under a fixed key (see keys.go).
// The port is a plain key-value Store so adapters stay trivial:
//
//   - SQLite: a single kv table, WAL mode, versioned migrations
//   - Bolt: a single bucket in a bbolt file
//   - Memory: a map, used by tests and the harness
//
// Slot[T] layers typed JSON access on top of a Store. Loading never fails: a
// missing key, an unreadable store or a malformed document all yield "absent",
// and everything but a missing key is logged. This matches the storefront rule
// that corrupt local state is discarded silently instead of surfacing to users.
//
// There is no cross-process locking beyond what the backend provides; two
// processes writing the same key concurrently resolve as last write wins.
package storage
