/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dockrpc calls the chain connection service of a wallet process.
package dockrpc

import (
	"context"

	dockcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/dock"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
)

// Client enables access to a remote chain connection service.
type Client struct {
	caller rpc.Caller
}

// New returns new chain connection service client calling through caller.
func New(caller rpc.Caller) *Client {
	return &Client{caller: caller}
}

// Init connects the service to the node at address, ex: "wss://knox-1.dock.io".
func (c *Client) Init(ctx context.Context, address string) error {
	return rpc.CallValidated(ctx, c.caller, dockcmd.ValidateInit, dockcmd.CommandName, dockcmd.InitMethod,
		&dockcmd.InitRequest{Address: address}, nil)
}

// Disconnect closes the connection of the service.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.caller.Call(ctx, dockcmd.CommandName, dockcmd.DisconnectMethod, nil, nil)
}

// EnsureDockReady fails unless the service has a usable connection.
func (c *Client) EnsureDockReady(ctx context.Context) error {
	return c.caller.Call(ctx, dockcmd.CommandName, dockcmd.EnsureDockReadyMethod, nil, nil)
}

// IsAPIConnected returns the connection state of the service.
func (c *Client) IsAPIConnected(ctx context.Context) (*dockcmd.ConnectedResponse, error) {
	resp := &dockcmd.ConnectedResponse{}

	if err := c.caller.Call(ctx, dockcmd.CommandName, dockcmd.IsAPIConnectedMethod, nil, resp); err != nil {
		return nil, err
	}

	return resp, nil
}
