/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

const nodeAddress = "ws://127.0.0.1:9944"

type fakeConn struct {
	once   sync.Once
	done   chan struct{}
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{done: make(chan struct{})}
}

func (c *fakeConn) Done() <-chan struct{} {
	return c.done
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		c.closed = true
		close(c.done)
	})

	return nil
}

type fakeDialer struct {
	mutex    sync.Mutex
	failures int
	dials    int
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.dials++

	if d.failures > 0 {
		d.failures--

		return nil, errors.New("connection refused")
	}

	c := newFakeConn()
	d.conns = append(d.conns, c)

	return c, nil
}

func TestValidateAddress(t *testing.T) {
	require.NoError(t, ValidateAddress(nodeAddress))
	require.NoError(t, ValidateAddress("wss://node.example.com"))

	for _, address := range []string{"", "  ", "http://node", "://bad"} {
		require.True(t, walleterr.IsKind(ValidateAddress(address), walleterr.ValidationError), address)
	}
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("not initialized", func(t *testing.T) {
		s := New(WithDialer(&fakeDialer{}))

		require.False(t, s.IsConnected())
		require.True(t, walleterr.IsKind(s.EnsureReady(ctx), walleterr.BackendUnavailable))
		require.NoError(t, s.Disconnect(ctx))
	})

	t.Run("init retries then connects", func(t *testing.T) {
		d := &fakeDialer{failures: 2}
		s := New(WithDialer(d))

		require.NoError(t, s.Init(ctx, nodeAddress))
		require.Equal(t, 3, d.dials)
		require.True(t, s.IsConnected())
		require.NoError(t, s.EnsureReady(ctx))
		require.Equal(t, nodeAddress, s.Address())

		require.NoError(t, s.Init(ctx, nodeAddress))
		require.Equal(t, 3, d.dials)

		require.NoError(t, s.Disconnect(ctx))
		require.True(t, d.conns[0].closed)
		require.False(t, s.IsConnected())
		require.True(t, walleterr.IsKind(s.EnsureReady(ctx), walleterr.BackendUnavailable))
	})

	t.Run("another address replaces the connection", func(t *testing.T) {
		d := &fakeDialer{}
		s := New(WithDialer(d))

		require.NoError(t, s.Init(ctx, nodeAddress))
		require.NoError(t, s.Init(ctx, "ws://127.0.0.1:9945"))
		require.Len(t, d.conns, 2)
		require.True(t, d.conns[0].closed)
		require.False(t, d.conns[1].closed)
	})

	t.Run("lost connection", func(t *testing.T) {
		d := &fakeDialer{}
		s := New(WithDialer(d))

		require.NoError(t, s.Init(ctx, nodeAddress))
		require.NoError(t, d.conns[0].Close())

		require.False(t, s.IsConnected())
		require.True(t, walleterr.IsKind(s.EnsureReady(ctx), walleterr.BackendUnavailable))

		require.NoError(t, s.Init(ctx, nodeAddress))
		require.True(t, s.IsConnected())
	})

	t.Run("dial gives up at the deadline", func(t *testing.T) {
		s := New(WithDialer(&fakeDialer{failures: 1 << 20}), WithDialTimeout(50*time.Millisecond))

		err := s.Init(ctx, nodeAddress)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
		require.False(t, s.IsConnected())
	})

	t.Run("invalid address", func(t *testing.T) {
		s := New(WithDialer(&fakeDialer{}))

		require.True(t, walleterr.IsKind(s.Init(ctx, "tcp://node"), walleterr.ValidationError))
	})

	t.Run("cancelled readiness check", func(t *testing.T) {
		s := New(WithDialer(&fakeDialer{}))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		require.True(t, walleterr.IsKind(s.EnsureReady(cancelled), walleterr.Timeout))
	})
}

func TestService_WebSocketDialer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		// hold the connection until the client closes it.
		_, _, _ = c.Read(r.Context()) //nolint:dogsled
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := New()

	require.NoError(t, s.Init(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")))
	require.True(t, s.IsConnected())
	require.NoError(t, s.EnsureReady(ctx))
	require.NoError(t, s.Disconnect(ctx))
	require.False(t, s.IsConnected())
}
