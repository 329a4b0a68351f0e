/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
)

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for undecodable request bodies.
	InvalidRequestErrorCode = command.Code(iota + command.Dispatcher)
)

// OperationOpt configures an Operation.
type OperationOpt func(o *Operation)

// WithOriginPatterns sets the browser origins allowed to open websocket connections.
func WithOriginPatterns(patterns ...string) OperationOpt {
	return func(o *Operation) {
		o.originPatterns = patterns
	}
}

// Operation serves dispatcher requests at rpc.Path (HTTP POST) and rpc.WSPath (websocket).
type Operation struct {
	dispatcher     *rpc.Dispatcher
	originPatterns []string
	handlers       []Handler
}

// New returns the RPC REST operation.
func New(dispatcher *rpc.Dispatcher, opts ...OperationOpt) *Operation {
	o := &Operation{dispatcher: dispatcher}

	for _, opt := range opts {
		opt(o)
	}

	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []Handler {
	return o.handlers
}

func (o *Operation) registerHandler() {
	o.handlers = []Handler{
		cmdutil.NewHTTPHandler(rpc.Path, http.MethodPost, o.handleRPC),
		cmdutil.NewHTTPHandler(rpc.WSPath, http.MethodGet, o.handleWS),
	}
}

// handleRPC swagger:route POST /rpc rpc dispatch
//
// Dispatches one request. Method failures are reported in the response body with status 200.
func (o *Operation) handleRPC(rw http.ResponseWriter, req *http.Request) {
	request, err := rpc.ReadRequest(http.MaxBytesReader(rw, req.Body, rpc.ReadLimit))
	if err != nil {
		SendHTTPStatusError(rw, http.StatusBadRequest, InvalidRequestErrorCode, err)

		return
	}

	resp := o.dispatcher.Dispatch(req.Context(), request)

	rw.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(rw).Encode(resp); err != nil {
		logger.Errorf("failed to write response %s: %s", resp.ID, err)
	}
}

// wsConn is the part of a websocket connection used to serve requests.
type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

// handleWS serves one websocket connection.
func (o *Operation) handleWS(rw http.ResponseWriter, req *http.Request) {
	conn, err := websocket.Accept(rw, req, &websocket.AcceptOptions{OriginPatterns: o.originPatterns})
	if err != nil {
		logger.Infof("failed to upgrade the websocket rpc connection: %v", err)

		return
	}

	conn.SetReadLimit(rpc.ReadLimit)

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	o.serveWS(ctx, cancel, conn)

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil &&
		websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Debugf("closing websocket rpc connection: %v", err)
	}
}

// serveWS dispatches the requests read from conn concurrently with the dispatcher workers and writes
// the responses, correlated by request id, until conn fails or ctx is done. A failed write cancels ctx.
func (o *Operation) serveWS(ctx context.Context, cancel context.CancelFunc, conn wsConn) {
	in := make(chan *rpc.Request)
	out := make(chan *rpc.Response)
	written := make(chan struct{})

	var served sync.WaitGroup

	served.Add(1)

	go func() {
		defer served.Done()

		o.dispatcher.Serve(ctx, in, out)
	}()

	go func() {
		defer close(written)

		for resp := range out {
			if err := writeWS(ctx, conn, resp); err != nil {
				logger.Infof("failed to write websocket rpc response %s: %v", resp.ID, err)
				cancel()
			}
		}
	}()

	o.readWS(ctx, conn, in, out)

	close(in)

	// readWS and the workers both send to out.
	served.Wait()
	close(out)

	<-written
}

func writeWS(ctx context.Context, conn wsConn, resp *rpc.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return conn.Write(ctx, websocket.MessageText, raw)
}

func (o *Operation) readWS(ctx context.Context, conn wsConn, in chan<- *rpc.Request, out chan<- *rpc.Response) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				logger.Debugf("websocket rpc connection dropped: %v", err)
			}

			return
		}

		request, err := rpc.ReadRequest(bytes.NewReader(data))
		if err != nil {
			resp := &rpc.Response{Error: &rpc.ErrorBody{
				Kind:    walleterr.ValidationError,
				Message: err.Error(),
				Code:    InvalidRequestErrorCode,
			}}

			select {
			case out <- resp:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case in <- request:
		case <-ctx.Done():
			return
		}
	}
}
