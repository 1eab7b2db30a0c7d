package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a byte-oriented key-value store.
// Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendSQLite, BackendBolt, BackendMemory}

// Open creates the store for the named backend. path is ignored for memory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(path)
	case BackendBolt:
		return OpenBolt(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be one of %v", backend, Backends)
	}
}
