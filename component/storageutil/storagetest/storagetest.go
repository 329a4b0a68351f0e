/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storagetest holds provider-agnostic checks every storage SPI implementation must pass.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

// TestAll runs every common check against the provider.
func TestAll(t *testing.T, provider storage.Provider) {
	t.Helper()

	t.Run("put get delete", func(t *testing.T) { TestPutGetDelete(t, provider) })
	t.Run("query", func(t *testing.T) { TestQuery(t, provider) })
	t.Run("batch", func(t *testing.T) { TestBatch(t, provider) })
	t.Run("reopen", func(t *testing.T) { TestReopen(t, provider) })
}

// TestPutGetDelete checks single key operations.
func TestPutGetDelete(t *testing.T, provider storage.Provider) {
	t.Helper()

	_, err := provider.OpenStore("")
	require.Error(t, err)

	store, err := provider.OpenStore("PutGetDelete")
	require.NoError(t, err)

	require.Error(t, store.Put("", []byte("v")))
	require.Error(t, store.Put("k", []byte("v"), storage.Tag{Name: "bad:name"}))

	require.NoError(t, store.Put("k", []byte("v1")))
	require.NoError(t, store.Put("k", []byte("v2")))

	v, err := store.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v2", string(v))

	require.NoError(t, store.Delete("k"))

	_, err = store.Get("k")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	require.Error(t, store.Delete(""))
}

// TestQuery checks tag queries, including tags dropped by overwrites and deletes.
func TestQuery(t *testing.T, provider storage.Provider) {
	t.Helper()

	store, err := provider.OpenStore("query")
	require.NoError(t, err)

	require.NoError(t, store.Put("a", []byte("1"), storage.Tag{Name: "doc", Value: "Address"}))
	require.NoError(t, store.Put("b", []byte("2"), storage.Tag{Name: "doc", Value: "Currency"}))
	require.NoError(t, store.Put("c", []byte("3"), storage.Tag{Name: "doc", Value: "Address"}))
	require.NoError(t, store.Put("d", []byte("4"), storage.Tag{Name: "meta"}))

	require.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, collect(t, store, "doc"))
	require.Equal(t, map[string]string{"a": "1", "c": "3"}, collect(t, store, "doc:Address"))

	require.NoError(t, store.Put("a", []byte("5"), storage.Tag{Name: "doc", Value: "Currency"}))
	require.NoError(t, store.Delete("c"))

	require.Empty(t, collect(t, store, "doc:Address"))
	require.Equal(t, map[string]string{"a": "5", "b": "2"}, collect(t, store, "doc:Currency"))

	_, err = store.Query("")
	require.Error(t, err)

	_, err = store.Query("a:b:c")
	require.Error(t, err)
}

// TestBatch checks mixed put and delete batches.
func TestBatch(t *testing.T, provider storage.Provider) {
	t.Helper()

	store, err := provider.OpenStore("batch")
	require.NoError(t, err)

	require.Error(t, store.Batch(nil))

	require.NoError(t, store.Put("old", []byte("x"), storage.Tag{Name: "doc"}))

	require.NoError(t, store.Batch([]storage.Operation{
		{Key: "k1", Value: []byte("1"), Tags: []storage.Tag{{Name: "doc"}}},
		{Key: "k2", Value: []byte("2"), Tags: []storage.Tag{{Name: "doc"}}},
		{Key: "old"},
		{Key: "k2", Value: []byte("3"), Tags: []storage.Tag{{Name: "doc"}}},
	}))

	require.Equal(t, map[string]string{"k1": "1", "k2": "3"}, collect(t, store, "doc"))

	require.Error(t, store.Batch([]storage.Operation{{Key: ""}}))
}

// TestReopen checks data survives closing and reopening a store of the same provider.
func TestReopen(t *testing.T, provider storage.Provider) {
	t.Helper()

	store, err := provider.OpenStore("reopen")
	require.NoError(t, err)

	require.NoError(t, store.Put("k", []byte("v")))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	store, err = provider.OpenStore("REOPEN")
	require.NoError(t, err)

	v, err := store.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
}

func collect(t *testing.T, store storage.Store, expression string) map[string]string {
	t.Helper()

	it, err := store.Query(expression)
	require.NoError(t, err)

	defer func() { require.NoError(t, it.Close()) }()

	res := map[string]string{}

	for {
		ok, err := it.Next()
		require.NoError(t, err)

		if !ok {
			return res
		}

		k, err := it.Key()
		require.NoError(t, err)

		v, err := it.Value()
		require.NoError(t, err)

		res[k] = string(v)
	}
}
