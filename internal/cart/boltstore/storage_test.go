package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/cart"
)

func openTestStorage(t *testing.T, path string) *Storage {
	t.Helper()
	s, err := New(path)
	require.NoError(t, err)
	return s
}

func TestStorage_LoadMissing(t *testing.T) {
	s := openTestStorage(t, filepath.Join(t.TempDir(), "cart.db"))
	defer s.Close()

	_, err := s.Load(cart.StorageKey)
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestStorage_SaveLoadDelete(t *testing.T) {
	s := openTestStorage(t, filepath.Join(t.TempDir(), "cart.db"))
	defer s.Close()

	require.NoError(t, s.Save("k", []byte(`{"a":1}`)))
	data, err := s.Load("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	require.NoError(t, s.Delete("k"))
	_, err = s.Load("k")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestStorage_CartSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")

	s := openTestStorage(t, path)
	store := cart.New(s)
	store.Add(cart.Line{ProductID: "p1", Name: "Silk Blazer", Price: 450, Quantity: 1, Size: "M"})
	store.Add(cart.Line{ProductID: "p2", Name: "Wool Overcoat", Price: 890, Quantity: 2, Size: "XL"})
	store.OpenCart()
	require.NoError(t, s.Close())

	reopened := openTestStorage(t, path)
	defer reopened.Close()
	restored := cart.New(reopened)

	assert.Equal(t, store.Lines(), restored.Lines())
	assert.True(t, restored.IsOpen())
	assert.Equal(t, 2230.0, restored.Total())
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "cart.db"))
	assert.Error(t, err)
}
