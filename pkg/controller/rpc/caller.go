/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
)

const (
	// Path is the HTTP path of the RPC endpoint.
	Path = "/rpc"
	// WSPath is the websocket path of the RPC endpoint.
	WSPath = "/rpc/ws"

	// ReadLimit bounds the size of a single websocket message, wallet exports included.
	ReadLimit = 32 << 20

	defaultConnectTimeout = 30 * time.Second
	maxConnectInterval    = 5 * time.Second
	bearerPrefix          = "Bearer "
)

// Caller issues service method calls. result, when not nil, receives the decoded method result.
// Errors returned by the remote method keep their kind.
type Caller interface {
	Call(ctx context.Context, service, method string, params, result interface{}) error
}

// CallValidated runs validate over the encoded params and calls only when they are valid.
func CallValidated(ctx context.Context, c Caller, validate command.Validator, service, method string,
	params, result interface{}) error {
	raw, err := encodeParams(params)
	if err != nil {
		return err
	}

	if validate != nil {
		if err := validate(raw); err != nil {
			return err
		}
	}

	return c.Call(ctx, service, method, raw, result)
}

// callFailure maps transport errors. A call abandoned because ctx ended has an unknown outcome.
func callFailure(ctx context.Context, err error, format string, args ...interface{}) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return walleterr.Wrap(walleterr.Timeout, ctxErr, "call abandoned, outcome unknown")
	}

	return walleterr.Wrap(walleterr.InternalFailure, err, format, args...)
}

// HTTPOpt configures an HTTPCaller.
type HTTPOpt func(c *HTTPCaller)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOpt {
	return func(c *HTTPCaller) {
		c.client = client
	}
}

// WithHTTPToken sets the bearer token sent with every call.
func WithHTTPToken(token string) HTTPOpt {
	return func(c *HTTPCaller) {
		c.token = token
	}
}

// HTTPCaller posts calls to the RPC endpoint of a wallet service.
type HTTPCaller struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPCaller returns a caller of the service at baseURL.
func NewHTTPCaller(baseURL string, opts ...HTTPOpt) *HTTPCaller {
	c := &HTTPCaller{url: strings.TrimSuffix(baseURL, "/") + Path, client: http.DefaultClient}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call posts a request and decodes its response.
func (c *HTTPCaller) Call(ctx context.Context, service, method string, params, result interface{}) error {
	req, err := NewRequest(service, method, params)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "encode request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "build request")
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		httpReq.Header.Set("Authorization", bearerPrefix+c.token)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return callFailure(ctx, err, "post %s", req)
	}

	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			logger.Warnf("failed to close response body: %s", err)
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return callFailure(ctx, err, "read response of %s", req)
	}

	if httpResp.StatusCode != http.StatusOK {
		return walleterr.New(walleterr.InternalFailure, "call %s failed with status %d: %s", req,
			httpResp.StatusCode, strings.TrimSpace(string(raw)))
	}

	resp := &Response{}

	if err := json.Unmarshal(raw, resp); err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "decode response of %s", req)
	}

	if resp.ID != req.ID {
		return walleterr.New(walleterr.InternalFailure, "response id %s does not match %s", resp.ID, req.ID)
	}

	return DecodeResult(resp, result)
}

// WSOpt configures a WSCaller.
type WSOpt func(c *WSCaller)

// WithWSToken sets the bearer token of the websocket handshake.
func WithWSToken(token string) WSOpt {
	return func(c *WSCaller) {
		c.token = token
	}
}

// WithConnectTimeout bounds how long connecting keeps retrying when the context has no deadline.
func WithConnectTimeout(d time.Duration) WSOpt {
	return func(c *WSCaller) {
		c.connectTimeout = d
	}
}

// WSCaller multiplexes concurrent calls over one websocket connection, correlating responses by
// request id.
type WSCaller struct {
	url            string
	token          string
	connectTimeout time.Duration

	conn *websocket.Conn

	mutex   sync.Mutex
	pending map[string]chan *Response
	closed  error
}

// DialWS connects to the websocket RPC endpoint of the service at baseURL, retrying with exponential
// backoff. Only the connection is retried, never a call.
func DialWS(ctx context.Context, baseURL string, opts ...WSOpt) (*WSCaller, error) {
	c := &WSCaller{
		url:            strings.TrimSuffix(baseURL, "/") + WSPath,
		connectTimeout: defaultConnectTimeout,
		pending:        map[string]chan *Response{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}

	dialOpts := &websocket.DialOptions{HTTPHeader: http.Header{}}
	if c.token != "" {
		dialOpts.HTTPHeader.Set("Authorization", bearerPrefix+c.token)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = maxConnectInterval

	err := backoff.Retry(func() error {
		conn, resp, err := websocket.Dial(ctx, c.url, dialOpts) //nolint:bodyclose
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return backoff.Permanent(err)
			}

			return err
		}

		c.conn = conn

		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, walleterr.Wrap(walleterr.BackendUnavailable, err, "connect to %s", c.url)
	}

	c.conn.SetReadLimit(ReadLimit)

	go c.readLoop()

	return c, nil
}

func (c *WSCaller) readLoop() {
	for {
		resp := &Response{}

		if err := wsjson.Read(context.Background(), c.conn, resp); err != nil {
			c.fail(err)

			return
		}

		c.mutex.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mutex.Unlock()

		if !ok {
			logger.Warnf("dropping response %s without pending call", resp.ID)

			continue
		}

		ch <- resp
	}
}

// fail aborts every pending call once the connection is gone.
func (c *WSCaller) fail(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed == nil {
		c.closed = err
	}

	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Call sends a request and waits for the response with the same id.
func (c *WSCaller) Call(ctx context.Context, service, method string, params, result interface{}) error {
	req, err := NewRequest(service, method, params)
	if err != nil {
		return err
	}

	ch := make(chan *Response, 1)

	c.mutex.Lock()
	if c.closed != nil {
		c.mutex.Unlock()

		return walleterr.Wrap(walleterr.BackendUnavailable, c.closed, "connection closed")
	}

	c.pending[req.ID] = ch
	c.mutex.Unlock()

	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		c.forget(req.ID)

		return callFailure(ctx, err, "send %s", req)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return walleterr.New(walleterr.InternalFailure, "connection lost before response of %s, outcome unknown",
				req)
		}

		return DecodeResult(resp, result)
	case <-ctx.Done():
		c.forget(req.ID)

		return walleterr.Wrap(walleterr.Timeout, ctx.Err(), "no response to %s, outcome unknown", req)
	}
}

func (c *WSCaller) forget(id string) {
	c.mutex.Lock()
	delete(c.pending, id)
	c.mutex.Unlock()
}

// Close closes the connection, failing pending calls.
func (c *WSCaller) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "closing")
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
		!errors.Is(err, context.Canceled) {
		return fmt.Errorf("close websocket: %w", err)
	}

	return nil
}
