/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dock manages the connection of the wallet service to a chain node.
package dock

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"nhooyr.io/websocket"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

var logger = log.New("wallet/dock")

const (
	defaultDialTimeout = 30 * time.Second
	defaultMaxInterval = 5 * time.Second
)

// Conn is an open connection to a chain node.
type Conn interface {
	// Done is closed once the connection is lost.
	Done() <-chan struct{}
	Close() error
}

// Dialer opens connections to chain nodes.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// Opt configures a Service.
type Opt func(s *Service)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Opt {
	return func(s *Service) {
		s.dialer = d
	}
}

// WithDialTimeout bounds how long Init keeps retrying when the caller context has no deadline.
func WithDialTimeout(d time.Duration) Opt {
	return func(s *Service) {
		s.dialTimeout = d
	}
}

// Service keeps at most one connection to a chain node.
type Service struct {
	mutex       sync.RWMutex
	dialer      Dialer
	conn        Conn
	address     string
	dialTimeout time.Duration
}

// New returns a disconnected Service.
func New(opts ...Opt) *Service {
	s := &Service{
		dialer:      &wsDialer{},
		dialTimeout: defaultDialTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ValidateAddress checks that address is a websocket URL.
func ValidateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return walleterr.New(walleterr.ValidationError, "node address is required")
	}

	u, err := url.Parse(address)
	if err != nil {
		return walleterr.Wrap(walleterr.ValidationError, err, "invalid node address")
	}

	if u.Scheme != "ws" && u.Scheme != "wss" {
		return walleterr.New(walleterr.ValidationError, "node address must use ws or wss, got '%s'", u.Scheme)
	}

	return nil
}

// Init connects to the node at address. Dialing is retried with exponential backoff until ctx (or the
// dial timeout) expires. Init on an already connected address is a no-op; another address replaces the
// current connection.
func (s *Service) Init(ctx context.Context, address string) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.conn != nil && s.address == address && alive(s.conn) {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.dialTimeout)
		defer cancel()
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = defaultMaxInterval

	var conn Conn

	err := backoff.RetryNotify(func() error {
		c, err := s.dialer.Dial(ctx, address)
		if err != nil {
			return err
		}

		conn = c

		return nil
	}, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		logger.Debugf("dial %s failed, retrying in %s: %s", address, next, err)
	})
	if err != nil {
		return walleterr.Wrap(walleterr.BackendUnavailable, err, "failed to connect to node %s", address)
	}

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logger.Warnf("failed to close connection to %s: %s", s.address, err)
		}
	}

	s.conn, s.address = conn, address

	logger.Infof("connected to node %s", address)

	return nil
}

// Disconnect closes the node connection. Disconnecting a disconnected service is a no-op.
func (s *Service) Disconnect(_ context.Context) error {
	s.mutex.Lock()
	conn, address := s.conn, s.address
	s.conn, s.address = nil, ""
	s.mutex.Unlock()

	if conn == nil {
		return nil
	}

	if err := conn.Close(); err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "failed to disconnect from %s", address)
	}

	logger.Infof("disconnected from node %s", address)

	return nil
}

// EnsureReady fails with BackendUnavailable unless a live connection exists.
func (s *Service) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return walleterr.Wrap(walleterr.Timeout, err, "node readiness check aborted")
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.conn == nil {
		return walleterr.New(walleterr.BackendUnavailable, "node connection is not initialized")
	}

	if !alive(s.conn) {
		return walleterr.New(walleterr.BackendUnavailable, "connection to node %s was lost", s.address)
	}

	return nil
}

// IsConnected reports whether a live connection exists.
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.conn != nil && alive(s.conn)
}

// Address returns the node address, blank when disconnected.
func (s *Service) Address() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.address
}

func alive(c Conn) bool {
	select {
	case <-c.Done():
		return false
	default:
		return true
	}
}

type wsDialer struct{}

func (d *wsDialer) Dial(ctx context.Context, address string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, address, nil) //nolint:bodyclose
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	// the node never pushes unsolicited data, so reads only detect the close.
	return &wsConn{conn: c, read: c.CloseRead(context.Background())}, nil
}

type wsConn struct {
	conn *websocket.Conn
	read context.Context
}

func (c *wsConn) Done() <-chan struct{} {
	return c.read.Done()
}

func (c *wsConn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "disconnect")
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		return err
	}

	return nil
}
