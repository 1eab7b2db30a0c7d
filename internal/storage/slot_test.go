package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// failingStore fails every read.
type failingStore struct{ *Memory }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestSlot_LoadMissing(t *testing.T) {
	slot := NewSlot[[]sample](NewMemory(), KeyCart, nil)
	v, ok := slot.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSlot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewSlot[[]sample](NewMemory(), KeyCart, nil)

	in := []sample{{Name: "a", Count: 1}, {Name: "b", Count: 2}}
	require.NoError(t, slot.Save(ctx, in))

	out, ok := slot.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestSlot_MalformedIsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Put(ctx, KeyCart, []byte("{not json")))

	slot := NewSlot[[]sample](mem, KeyCart, nil)
	v, ok := slot.Load(ctx)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSlot_WrongShapeIsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Put(ctx, KeyCart, []byte(`{"name":"not a list"}`)))

	_, ok := NewSlot[[]sample](mem, KeyCart, nil).Load(ctx)
	assert.False(t, ok)
}

func TestSlot_ReadFailureIsAbsent(t *testing.T) {
	slot := NewSlot[sample](failingStore{NewMemory()}, KeyCart, nil)
	_, ok := slot.Load(context.Background())
	assert.False(t, ok)
}

func TestSlot_Clear(t *testing.T) {
	ctx := context.Background()
	slot := NewSlot[sample](NewMemory(), KeyCheckout, nil)
	require.NoError(t, slot.Save(ctx, sample{Name: "x"}))
	require.NoError(t, slot.Clear(ctx))

	_, ok := slot.Load(ctx)
	assert.False(t, ok)
	assert.Equal(t, KeyCheckout, slot.Key())
}
