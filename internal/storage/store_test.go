package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends opens one of each Store implementation in a temp dir.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := OpenSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	bolt, err := OpenBolt(filepath.Join(dir, "test.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	return map[string]Store{
		BackendSQLite: sqlite,
		BackendBolt:   bolt,
		BackendMemory: NewMemory(),
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(context.Background(), "missing")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStore_PutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, KeyCart, []byte(`[1]`)))
			got, err := st.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[1]`, string(got))

			require.NoError(t, st.Put(ctx, KeyCart, []byte(`[1,2]`)))
			got, err = st.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(got))
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, KeyCheckout, []byte(`{}`)))
			require.NoError(t, st.Delete(ctx, KeyCheckout))
			require.NoError(t, st.Delete(ctx, KeyCheckout))

			_, err := st.Get(ctx, KeyCheckout)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, KeyCart, []byte(`"cart"`)))
			require.NoError(t, st.Put(ctx, KeyOrders, []byte(`"orders"`)))

			cart, err := st.Get(ctx, KeyCart)
			require.NoError(t, err)
			orders, err := st.Get(ctx, KeyOrders)
			require.NoError(t, err)
			assert.Equal(t, `"cart"`, string(cart))
			assert.Equal(t, `"orders"`, string(orders))
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", in))
	in[0] = 'z'

	out, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[0] = 'y'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("final OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name)
	if err != nil {
		t.Errorf("kv table not found after idempotent opens: %v", err)
	}
}

func TestOpenSQLite_Pragmas(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpenSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, KeyWishlist, []byte(`["prod_1"]`)))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, KeyWishlist)
	require.NoError(t, err)
	assert.Equal(t, `["prod_1"]`, string(got))
}

func TestOpenBolt_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.bolt")

	b1, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, b1.Put(ctx, KeyOrders, []byte(`[]`)))
	require.NoError(t, b1.Close())

	b2, err := OpenBolt(path)
	require.NoError(t, err)
	defer b2.Close()

	got, err := b2.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(BackendBolt, filepath.Join(dir, "x.bolt"))
	require.NoError(t, err)
	assert.IsType(t, &Bolt{}, st)
	st.Close()

	st, err = Open("", filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, st)
	st.Close()

	_, err = Open("redis", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}
