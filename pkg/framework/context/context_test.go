/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package context

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/did"
	mockrpc "github.com/hyperledger/aries-wallet-go/pkg/internal/gomocks/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/mock/storage"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

const sampleMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type mockSubmitter struct {
	submitted []string
}

func (m *mockSubmitter) SubmitDID(_ context.Context, dockDID string, _ []byte) error {
	m.submitted = append(m.submitted, dockDID)

	return nil
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("test new with default", func(t *testing.T) {
		prov, err := New()
		require.NoError(t, err)
		require.NotNil(t, prov.StorageProvider())
		require.NotNil(t, prov.Keyring())
		require.NotNil(t, prov.WalletStore())
		require.NotNil(t, prov.DIDService())
		require.NotNil(t, prov.DockService())
		require.NotNil(t, prov.Dispatcher())
		require.Empty(t, prov.Dispatcher().Services())

		err = prov.WalletStore().Create(ctx, "w1", backend.Proxy)
		require.True(t, walleterr.IsKind(err, walleterr.InvalidConfiguration))

		require.NoError(t, prov.Close())
	})

	t.Run("test services share the wallet store", func(t *testing.T) {
		submitter := &mockSubmitter{}
		k := keyring.New(keyring.WithScryptParams(keyring.ScryptParams{N: 1 << 10, R: 8, P: 1}))

		prov, err := New(WithKeyring(k), WithDIDOptions(did.WithSubmitter(submitter)))
		require.NoError(t, err)
		require.Same(t, k, prov.Keyring())

		store := prov.WalletStore()
		require.NoError(t, store.Create(ctx, "w1", backend.Memory))

		docs, err := store.CreateAccountDocuments(ctx,
			&wallet.CreateAccountDocumentsParams{Name: "main", Mnemonic: sampleMnemonic})
		require.NoError(t, err)

		// the chain connection is not initialized.
		_, err = prov.DIDService().RegisterDockDID(ctx, docs[0].ID)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
		require.Empty(t, submitter.submitted)

		require.NoError(t, prov.Close())
	})

	t.Run("test remote wallet", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		caller := mockrpc.NewMockCaller(ctrl)
		caller.EXPECT().Call(gomock.Any(), "wallet", "create", gomock.Any(), nil).Return(nil)

		prov, err := New(WithRemoteWallet(caller))
		require.NoError(t, err)
		require.NoError(t, prov.WalletStore().Create(ctx, "w1", backend.Proxy))
		require.NoError(t, prov.Close())

		_, err = New(WithRemoteWallet(nil))
		require.Error(t, err)
	})

	t.Run("test request log", func(t *testing.T) {
		prov, err := New(WithRequestLog())
		require.NoError(t, err)
		require.NoError(t, prov.Close())

		sp := storage.NewMockStoreProvider()
		sp.ErrOpenStoreHandle = errors.New("disk full")

		_, err = New(WithStorageProvider(sp), WithRequestLog())
		require.Error(t, err)
		require.Contains(t, err.Error(), "disk full")
	})

	t.Run("test close failure", func(t *testing.T) {
		sp := storage.NewMockStoreProvider()
		sp.ErrClose = errors.New("close failed")

		prov, err := New(WithStorageProvider(sp))
		require.NoError(t, err)
		require.Same(t, sp, prov.StorageProvider())

		err = prov.Close()
		require.Error(t, err)
		require.Contains(t, err.Error(), "close failed")
	})
}
