/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didrpc calls the DID service of a wallet process.
package didrpc

import (
	"context"

	didcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/did"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/did"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

// Client enables access to a remote DID service.
type Client struct {
	caller rpc.Caller
}

// New returns new DID service client calling through caller.
func New(caller rpc.Caller) *Client {
	return &Client{caller: caller}
}

// KeypairToDIDKeyDocument builds the did:key document of a verification key or KeyringPair document.
func (c *Client) KeypairToDIDKeyDocument(ctx context.Context,
	keypairDoc map[string]interface{}) (*did.KeyDocument, error) {
	result := &did.KeyDocument{}

	err := rpc.CallValidated(ctx, c.caller, didcmd.ValidateKeypairToDIDKeyDocument, didcmd.CommandName,
		didcmd.KeypairToDIDKeyDocumentMethod, &didcmd.KeypairToDIDKeyDocumentRequest{KeypairDoc: keypairDoc}, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetDIDResolution wraps a DID document, merged with customProps, in a resolution result.
func (c *Client) GetDIDResolution(ctx context.Context, didDocument,
	customProps map[string]interface{}) (*did.Resolution, error) {
	result := &did.Resolution{}

	err := rpc.CallValidated(ctx, c.caller, didcmd.ValidateGetDIDResolution, didcmd.CommandName,
		didcmd.GetDIDResolutionMethod, &didcmd.GetDIDResolutionRequest{
			DIDDocument:           didDocument,
			DIDDocumentCustomProp: customProps,
		}, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GenerateKeyDoc generates a key document from a fresh random seed.
func (c *Client) GenerateKeyDoc(ctx context.Context, derivePath string, keyType keyring.KeyType) (*did.KeyDoc, error) {
	result := &did.KeyDoc{}

	err := rpc.CallValidated(ctx, c.caller, didcmd.ValidateGenerateKeyDoc, didcmd.CommandName,
		didcmd.GenerateKeyDocMethod, &didcmd.GenerateKeyDocRequest{DerivePath: derivePath, Type: keyType}, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RegisterDockDID asks the service to register a dock DID for an account. The method is not callable
// across the RPC boundary, remote services answer with UnknownMethod.
func (c *Client) RegisterDockDID(ctx context.Context, address string) (string, error) {
	result := &didcmd.RegisterDockDIDResponse{}

	err := rpc.CallValidated(ctx, c.caller, didcmd.ValidateRegisterDockDID, didcmd.CommandName,
		didcmd.RegisterDockDIDMethod, &didcmd.RegisterDockDIDRequest{Address: address}, result)
	if err != nil {
		return "", err
	}

	return result.DID, nil
}
