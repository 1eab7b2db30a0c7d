package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Slot is typed JSON access to a single key.
type Slot[T any] struct {
	store  Store
	key    string
	logger *slog.Logger
}

// NewSlot binds a slot to key. A nil logger uses slog.Default().
func NewSlot[T any](store Store, key string, logger *slog.Logger) *Slot[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slot[T]{store: store, key: key, logger: logger}
}

// Key returns the storage key.
func (s *Slot[T]) Key() string {
	return s.key
}

// Load decodes the stored document.
// ok is false when the key is missing, the store cannot be read or the
// document does not decode; the last two are logged and otherwise ignored.
func (s *Slot[T]) Load(ctx context.Context) (value T, ok bool) {
	data, err := s.store.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return value, false
	}
	if err != nil {
		s.logger.Warn("failed to read stored state", "key", s.key, "error", err)
		return value, false
	}

	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.logger.Warn("discarding malformed stored state", "key", s.key, "error", err)
		return value, false
	}
	return decoded, true
}

// Save encodes value and writes it under the slot key.
func (s *Slot[T]) Save(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", s.key, err)
	}
	if err := s.store.Put(ctx, s.key, data); err != nil {
		return err
	}
	s.logger.Debug("state saved", "key", s.key, "bytes", len(data))
	return nil
}

// Clear removes the stored document.
func (s *Slot[T]) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}
