/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dock

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-wallet-go/pkg/dock"
	"github.com/hyperledger/aries-wallet-go/pkg/internal/logutil"
)

var logger = log.New("wallet/command/dock")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Dock)

	// InitErrorCode for errors while connecting to the node.
	InitErrorCode

	// DisconnectErrorCode for errors while disconnecting.
	DisconnectErrorCode

	// NotReadyErrorCode when the node connection is not usable.
	NotReadyErrorCode
)

// All command operations.
const (
	CommandName = "dock"

	// command methods.
	InitMethod            = "init"
	DisconnectMethod      = "disconnect"
	EnsureDockReadyMethod = "ensureDockReady"
	IsAPIConnectedMethod  = "isApiConnected"
)

const logAddressKey = "address"

// provider contains dependencies for the dock command.
type provider interface {
	DockService() *dock.Service
}

// Command contains operations provided by the chain connection service.
type Command struct {
	service *dock.Service
}

// New returns new dock command instance.
func New(p provider) *Command {
	return &Command{service: p.DockService()}
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, InitMethod, ValidateInit, o.Init),
		cmdutil.NewCommandHandler(CommandName, DisconnectMethod, nil, o.Disconnect),
		cmdutil.NewCommandHandler(CommandName, EnsureDockReadyMethod, nil, o.EnsureDockReady),
		cmdutil.NewCommandHandler(CommandName, IsAPIConnectedMethod, nil, o.IsAPIConnected),
	}
}

// ValidateInit checks init params.
func ValidateInit(req json.RawMessage) error {
	var r InitRequest

	if trimmed := bytes.TrimSpace(req); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return walleterr.Wrap(walleterr.ValidationError, err, "invalid request params")
		}
	}

	return dock.ValidateAddress(r.Address)
}

// Init connects to a chain node.
func (o *Command) Init(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &InitRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, InitMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.service.Init(ctx, request.Address); err != nil {
		logutil.LogFailure(logger, CommandName, InitMethod, err,
			logutil.KeyValue(logAddressKey, request.Address))

		return command.NewExecuteError(InitErrorCode, err)
	}

	command.WriteNillableResponse(rw, &ConnectedResponse{Connected: true, Address: request.Address}, logger)

	logutil.LogInfo(logger, CommandName, InitMethod, "connected",
		logutil.KeyValue(logAddressKey, request.Address))

	return nil
}

// Disconnect closes the node connection.
func (o *Command) Disconnect(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	if err := o.service.Disconnect(ctx); err != nil {
		logutil.LogFailure(logger, CommandName, DisconnectMethod, err)

		return command.NewExecuteError(DisconnectErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, DisconnectMethod)

	return nil
}

// EnsureDockReady fails unless the node connection is usable.
func (o *Command) EnsureDockReady(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	if err := o.service.EnsureReady(ctx); err != nil {
		logutil.LogFailure(logger, CommandName, EnsureDockReadyMethod, err)

		return command.NewExecuteError(NotReadyErrorCode, err)
	}

	command.WriteNillableResponse(rw, &ConnectedResponse{Connected: true, Address: o.service.Address()}, logger)

	return nil
}

// IsAPIConnected reports the connection state.
func (o *Command) IsAPIConnected(_ context.Context, rw io.Writer, _ io.Reader) command.Error {
	command.WriteNillableResponse(rw, &ConnectedResponse{
		Connected: o.service.IsConnected(),
		Address:   o.service.Address(),
	}, logger)

	return nil
}
