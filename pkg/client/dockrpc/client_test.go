/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dockrpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	dockcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/dock"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/dock"
	mockrpc "github.com/hyperledger/aries-wallet-go/pkg/internal/gomocks/controller/rpc"
)

const nodeAddress = "ws://127.0.0.1:9944"

type fakeConn struct {
	done chan struct{}
}

func (c *fakeConn) Done() <-chan struct{} {
	return c.done
}

func (c *fakeConn) Close() error {
	close(c.done)

	return nil
}

type fakeDialer struct {
	err error
}

func (d *fakeDialer) Dial(context.Context, string) (dock.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}

	return &fakeConn{done: make(chan struct{})}, nil
}

type dockProvider struct {
	service *dock.Service
}

func (p *dockProvider) DockService() *dock.Service {
	return p.service
}

func newLocalClient(t *testing.T, dialer dock.Dialer) *Client {
	t.Helper()

	d := rpc.New()
	require.NoError(t, d.Register(dockcmd.New(&dockProvider{service: dock.New(dock.WithDialer(dialer))}).GetHandlers()...))

	return New(d)
}

func TestClient_Local(t *testing.T) {
	ctx := context.Background()

	t.Run("lifecycle", func(t *testing.T) {
		client := newLocalClient(t, &fakeDialer{})

		err := client.EnsureDockReady(ctx)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))

		require.NoError(t, client.Init(ctx, nodeAddress))
		require.NoError(t, client.EnsureDockReady(ctx))

		state, err := client.IsAPIConnected(ctx)
		require.NoError(t, err)
		require.True(t, state.Connected)
		require.Equal(t, nodeAddress, state.Address)

		require.NoError(t, client.Disconnect(ctx))

		state, err = client.IsAPIConnected(ctx)
		require.NoError(t, err)
		require.False(t, state.Connected)
	})

	t.Run("unreachable node", func(t *testing.T) {
		client := newLocalClient(t, &fakeDialer{err: errors.New("connection refused")})

		short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()

		err := client.Init(short, nodeAddress)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
	})
}

func TestClient_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	err := New(mockrpc.NewMockCaller(ctrl)).Init(context.Background(), "https://node")
	require.True(t, walleterr.IsKind(err, walleterr.ValidationError))
}
