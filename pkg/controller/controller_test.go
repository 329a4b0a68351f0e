/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	gocontext "context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/client/didrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/client/walletrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rest"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/framework/context"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

func newProvider(t *testing.T) *context.Provider {
	t.Helper()

	ctx, err := context.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, ctx.Close())
	})

	return ctx
}

func TestGetCommandHandlers(t *testing.T) {
	handlers := GetCommandHandlers(newProvider(t))

	methods := map[string]int{}
	for _, h := range handlers {
		methods[h.Name()]++
	}

	require.Equal(t, map[string]int{"wallet": 18, "keyring": 5, "did": 3, "dock": 4}, methods)
}

func TestRegisterCommandHandlers(t *testing.T) {
	ctx := newProvider(t)

	require.NoError(t, RegisterCommandHandlers(ctx))
	require.Equal(t, []string{"did", "dock", "keyring", "wallet"}, ctx.Dispatcher().Services())

	err := RegisterCommandHandlers(ctx)
	require.True(t, walleterr.IsKind(err, walleterr.InvalidConfiguration))
}

func TestGetRESTHandlers(t *testing.T) {
	ctx := newProvider(t)

	handlers, err := GetRESTHandlers(ctx, WithOriginPatterns("localhost:*"))
	require.NoError(t, err)
	require.Len(t, handlers, 2)

	_, err = GetRESTHandlers(ctx)
	require.Error(t, err)

	srv := httptest.NewServer(rest.NewRouter("", handlers...))
	defer srv.Close()

	background := gocontext.Background()
	caller := rpc.NewHTTPCaller(srv.URL)

	wallet := walletrpc.New(caller)
	require.NoError(t, wallet.Create(background, "w1", backend.Memory))
	require.NoError(t, wallet.Add(background, walletdoc.New("a", walletdoc.TypeCurrency, 0)))

	docs, err := wallet.ToJSON(background)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = didrpc.New(caller).RegisterDockDID(background, "a")
	require.True(t, walleterr.IsKind(err, walleterr.UnknownMethod))
}
