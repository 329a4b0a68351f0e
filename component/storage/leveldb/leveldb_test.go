/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/component/storageutil/storagetest"
)

func TestLevelDBProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet")

	provider := NewProvider(path)
	storagetest.TestAll(t, provider)
	require.NoError(t, provider.Close())

	t.Run("data survives a new provider", func(t *testing.T) {
		first := NewProvider(path)

		store, err := first.OpenStore("durable")
		require.NoError(t, err)
		require.NoError(t, store.Put("k", []byte("v")))
		require.NoError(t, first.Close())

		second := NewProvider(path)
		defer func() { require.NoError(t, second.Close()) }()

		store, err = second.OpenStore("durable")
		require.NoError(t, err)

		v, err := store.Get("k")
		require.NoError(t, err)
		require.Equal(t, "v", string(v))
	})

	t.Run("open fails on a file path", func(t *testing.T) {
		_, err := NewProvider(filepath.Join(t.TempDir(), "missing", "\x00")).OpenStore("x")
		require.Error(t, err)
	})
}
