/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletrpc

import (
	"context"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	walletcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	mockrpc "github.com/hyperledger/aries-wallet-go/pkg/internal/gomocks/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend/memstore"
)

const (
	sampleWalletID = "sample-wallet"
	samplePassword = "sample-pa55word"
	sampleMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

type walletProvider struct {
	store *wallet.Store
}

func (p *walletProvider) WalletStore() *wallet.Store {
	return p.store
}

func newLocalClient(t *testing.T) *Client {
	t.Helper()

	store := wallet.New(
		wallet.WithKeyring(keyring.New(keyring.WithScryptParams(keyring.ScryptParams{N: 1 << 10, R: 8, P: 1}))),
		wallet.WithMemoryStoreOptions(memstore.WithKDFIterations(1000)),
	)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	d := rpc.New()
	require.NoError(t, d.Register(walletcmd.New(&walletProvider{store: store}).GetHandlers()...))

	return New(d)
}

func TestClient_Calls(t *testing.T) {
	ctx := context.Background()

	t.Run("requests", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		caller := mockrpc.NewMockCaller(ctrl)
		caller.EXPECT().Call(ctx, walletcmd.CommandName, walletcmd.CreateMethod,
			&walletcmd.CreateRequest{WalletID: sampleWalletID, Type: backend.Memory}, nil).Return(nil)
		caller.EXPECT().Call(ctx, walletcmd.CommandName, walletcmd.UnlockMethod,
			&walletcmd.PasswordRequest{Password: samplePassword}, nil).Return(nil)
		caller.EXPECT().Call(ctx, walletcmd.CommandName, walletcmd.StatusMethod, nil, gomock.Any()).DoAndReturn(
			func(_ context.Context, _, _ string, _, result interface{}) error {
				result.(*walletcmd.StatusResponse).Status = backend.StatusLocked

				return nil
			})

		client := New(caller)
		require.NoError(t, client.Create(ctx, sampleWalletID, backend.Memory))
		require.NoError(t, client.Unlock(ctx, samplePassword))

		status, err := client.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, backend.StatusLocked, status)
	})

	t.Run("remote errors are returned unmodified", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		remoteErr := walleterr.New(walleterr.WalletLocked, "wallet is locked")

		caller := mockrpc.NewMockCaller(ctrl)
		caller.EXPECT().Call(gomock.Any(), walletcmd.CommandName, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(remoteErr).Times(3)

		client := New(caller)

		_, err := client.GetDocumentByID(ctx, "d1")
		require.Same(t, remoteErr, err)

		_, err = client.Status(ctx)
		require.Same(t, remoteErr, err)

		_, err = client.ExportWallet(ctx, samplePassword)
		require.Same(t, remoteErr, err)
	})

	t.Run("nil query matches everything", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		caller := mockrpc.NewMockCaller(ctrl)
		caller.EXPECT().Call(ctx, walletcmd.CommandName, walletcmd.QueryMethod, &walletdoc.Query{}, gomock.Any()).
			Return(nil)

		docs, err := New(caller).Query(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, docs)
		require.Empty(t, docs)
	})
}

func TestClient_Local(t *testing.T) {
	ctx := context.Background()

	t.Run("no active wallet", func(t *testing.T) {
		client := newLocalClient(t)

		err := client.Add(ctx, walletdoc.New("d1", walletdoc.TypeCurrency, 0))
		require.True(t, walleterr.IsKind(err, walleterr.NoActiveWallet))

		err = client.Sync(ctx)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
	})

	t.Run("documents", func(t *testing.T) {
		client := newLocalClient(t)
		require.NoError(t, client.Create(ctx, sampleWalletID, backend.Memory))

		a := walletdoc.New("a", walletdoc.TypeCurrency, 0).SetProperty("symbol", "DOCK")
		b := walletdoc.New("b", walletdoc.TypeAddress, "b")
		b.Correlation = []string{"a"}

		require.NoError(t, client.Add(ctx, a))
		require.NoError(t, client.Add(ctx, b))

		doc, err := client.GetDocumentByID(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, "DOCK", doc.Property("symbol"))

		resolved, err := client.ResolveCorrelations(ctx, "b")
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		require.Equal(t, "b", resolved[0].ID)
		require.Equal(t, "a", resolved[1].ID)

		docs, err := client.Query(ctx, &walletdoc.Query{Type: walletdoc.TypeMnemonic})
		require.NoError(t, err)
		require.Empty(t, docs)

		require.NoError(t, client.Remove(ctx, b))

		_, err = client.GetDocumentByID(ctx, "b")
		require.True(t, walleterr.IsKind(err, walleterr.NotFound))

		require.NoError(t, client.RemoveAll(ctx))

		docs, err = client.ToJSON(ctx)
		require.NoError(t, err)
		require.Empty(t, docs)
	})

	t.Run("accounts", func(t *testing.T) {
		client := newLocalClient(t)
		require.NoError(t, client.Create(ctx, sampleWalletID, backend.Memory))

		docs, err := client.CreateAccountDocuments(ctx,
			&wallet.CreateAccountDocumentsParams{Name: "main", Mnemonic: sampleMnemonic})
		require.NoError(t, err)
		require.Len(t, docs, 4)

		exported, err := client.ExportAccount(ctx, docs[0].ID, samplePassword)
		require.NoError(t, err)
		require.Equal(t, docs[0].ID, exported.Address)
		require.True(t, exported.Encoding.IsEncrypted())

		require.NoError(t, client.Lock(ctx, samplePassword))

		status, err := client.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, backend.StatusLocked, status)

		err = client.Unlock(ctx, "wrong")
		require.True(t, walleterr.IsKind(err, walleterr.InvalidPassword))

		require.NoError(t, client.Unlock(ctx, samplePassword))

		backup, err := client.ExportWallet(ctx, samplePassword)
		require.NoError(t, err)

		other := newLocalClient(t)
		require.NoError(t, other.Create(ctx, "restored", backend.Memory))
		require.NoError(t, other.ImportWallet(ctx, backup, samplePassword))

		restored, err := other.ResolveCorrelations(ctx, docs[0].ID)
		require.NoError(t, err)
		require.Len(t, restored, 4)

		err = other.ImportWallet(ctx, []byte(`{}`), samplePassword)
		require.True(t, walleterr.IsKind(err, walleterr.InvalidBackup))
	})

	t.Run("concurrent adds", func(t *testing.T) {
		client := newLocalClient(t)
		require.NoError(t, client.Create(ctx, sampleWalletID, backend.Memory))

		var wg sync.WaitGroup

		errs := make(chan error, 2)

		for _, id := range []string{"x", "y"} {
			wg.Add(1)

			go func(id string) {
				defer wg.Done()

				errs <- client.Add(ctx, walletdoc.New(id, walletdoc.TypeCurrency, 0))
			}(id)
		}

		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		for _, id := range []string{"x", "y"} {
			_, err := client.GetDocumentByID(ctx, id)
			require.NoError(t, err)
		}
	})
}
