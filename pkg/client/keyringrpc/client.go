/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyringrpc calls the keyring service of a wallet process. Requests are validated locally
// with the validators of the service before they are sent.
package keyringrpc

import (
	"context"
	"encoding/json"

	keyringcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

// Client enables access to a remote keyring.
type Client struct {
	caller rpc.Caller
}

// New returns new keyring service client calling through caller.
func New(caller rpc.Caller) *Client {
	return &Client{caller: caller}
}

// Initialize sets the SS58 address format of the remote keyring, nil keeps the current one.
func (c *Client) Initialize(ctx context.Context, ss58Format *uint16) error {
	return rpc.CallValidated(ctx, c.caller, keyringcmd.ValidateInitialize, keyringcmd.CommandName,
		keyringcmd.InitializeMethod, &keyringcmd.InitializeRequest{SS58Format: ss58Format}, nil)
}

// AddFromMnemonic derives a pair from a mnemonic and keeps it in the remote keyring.
func (c *Client) AddFromMnemonic(ctx context.Context, mnemonic, derivePath string, keyType keyring.KeyType,
	meta map[string]interface{}) (*keyringcmd.PairResponse, error) {
	return c.pair(ctx, keyringcmd.AddFromMnemonicMethod, keyringcmd.ValidateMnemonic, &keyringcmd.MnemonicRequest{
		Mnemonic:   mnemonic,
		DerivePath: derivePath,
		Type:       keyType,
		Meta:       meta,
	})
}

// AddFromJSON imports an exported pair into the remote keyring.
func (c *Client) AddFromJSON(ctx context.Context, data json.RawMessage,
	password string) (*keyringcmd.PairResponse, error) {
	return c.pair(ctx, keyringcmd.AddFromJSONMethod, keyringcmd.ValidateAddFromJSON,
		&keyringcmd.AddFromJSONRequest{JSONData: data, Password: password})
}

// GetKeyringPair derives the public view of a pair without keeping it.
func (c *Client) GetKeyringPair(ctx context.Context, mnemonic, derivePath string,
	keyType keyring.KeyType) (*keyringcmd.PairResponse, error) {
	return c.pair(ctx, keyringcmd.GetKeyringPairMethod, keyringcmd.ValidateMnemonic,
		&keyringcmd.MnemonicRequest{Mnemonic: mnemonic, DerivePath: derivePath, Type: keyType})
}

// AddressFromURI returns the address of a secret URI, ex: "<mnemonic>//hard".
func (c *Client) AddressFromURI(ctx context.Context, uri string, keyType keyring.KeyType) (string, error) {
	resp := &keyringcmd.AddressResponse{}

	err := rpc.CallValidated(ctx, c.caller, keyringcmd.ValidateAddressFromURI, keyringcmd.CommandName,
		keyringcmd.AddressFromURIMethod, &keyringcmd.AddressFromURIRequest{URI: uri, Type: keyType}, resp)
	if err != nil {
		return "", err
	}

	return resp.Address, nil
}

func (c *Client) pair(ctx context.Context, method string, validate func(json.RawMessage) error,
	params interface{}) (*keyringcmd.PairResponse, error) {
	resp := &keyringcmd.PairResponse{}

	if err := rpc.CallValidated(ctx, c.caller, validate, keyringcmd.CommandName, method, params, resp); err != nil {
		return nil, err
	}

	return resp, nil
}
