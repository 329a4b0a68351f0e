/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package walletrpc calls the wallet service of a wallet process.
//
// Requests are not validated locally, the remote service validates them and its errors are returned
// with their original kind.
package walletrpc

import (
	"context"
	"encoding/json"

	walletcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

// Client enables access to a remote wallet store.
type Client struct {
	caller rpc.Caller
}

// New returns new wallet service client calling through caller.
func New(caller rpc.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	return c.caller.Call(ctx, walletcmd.CommandName, method, params, result)
}

// Create creates the backend of the remote wallet, replacing any backend it had.
func (c *Client) Create(ctx context.Context, walletID string, backendType backend.Type) error {
	return c.call(ctx, walletcmd.CreateMethod, &walletcmd.CreateRequest{WalletID: walletID, Type: backendType}, nil)
}

// Load hydrates the remote wallet from its persistent state.
func (c *Client) Load(ctx context.Context) error {
	return c.call(ctx, walletcmd.LoadMethod, nil, nil)
}

// Sync flushes the remote wallet to its persistent state.
func (c *Client) Sync(ctx context.Context) error {
	return c.call(ctx, walletcmd.SyncMethod, nil, nil)
}

// Lock locks the remote wallet.
func (c *Client) Lock(ctx context.Context, password string) error {
	return c.call(ctx, walletcmd.LockMethod, &walletcmd.PasswordRequest{Password: password}, nil)
}

// Unlock unlocks the remote wallet.
func (c *Client) Unlock(ctx context.Context, password string) error {
	return c.call(ctx, walletcmd.UnlockMethod, &walletcmd.PasswordRequest{Password: password}, nil)
}

// Status returns the lock state of the remote wallet.
func (c *Client) Status(ctx context.Context) (backend.Status, error) {
	resp := &walletcmd.StatusResponse{}

	if err := c.call(ctx, walletcmd.StatusMethod, nil, resp); err != nil {
		return "", err
	}

	return resp.Status, nil
}

// ToJSON returns every document of the remote wallet.
func (c *Client) ToJSON(ctx context.Context) ([]*walletdoc.Document, error) {
	return c.documents(ctx, walletcmd.ToJSONMethod, nil)
}

// Add adds a document, replacing any document with the same id.
func (c *Client) Add(ctx context.Context, doc *walletdoc.Document) error {
	return c.call(ctx, walletcmd.AddMethod, doc, nil)
}

// Update replaces an existing document.
func (c *Client) Update(ctx context.Context, doc *walletdoc.Document) error {
	return c.call(ctx, walletcmd.UpdateMethod, doc, nil)
}

// Remove removes the document with the id of doc.
func (c *Client) Remove(ctx context.Context, doc *walletdoc.Document) error {
	return c.call(ctx, walletcmd.RemoveMethod, doc, nil)
}

// RemoveAll removes every document.
func (c *Client) RemoveAll(ctx context.Context) error {
	return c.call(ctx, walletcmd.RemoveAllMethod, nil, nil)
}

// Query returns the documents matching q in storage order.
func (c *Client) Query(ctx context.Context, q *walletdoc.Query) ([]*walletdoc.Document, error) {
	if q == nil {
		q = &walletdoc.Query{}
	}

	return c.documents(ctx, walletcmd.QueryMethod, q)
}

// GetDocumentByID returns the document with the given id.
func (c *Client) GetDocumentByID(ctx context.Context, id string) (*walletdoc.Document, error) {
	doc := &walletdoc.Document{}

	if err := c.call(ctx, walletcmd.GetDocumentByIDMethod, &walletcmd.DocumentIDRequest{ID: id}, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ResolveCorrelations returns the document with the given id followed by its direct correlations.
func (c *Client) ResolveCorrelations(ctx context.Context, id string) ([]*walletdoc.Document, error) {
	return c.documents(ctx, walletcmd.ResolveCorrelationsMethod, &walletcmd.DocumentIDRequest{ID: id})
}

// CreateAccountDocuments creates the address document of an account and the documents it correlates.
func (c *Client) CreateAccountDocuments(ctx context.Context,
	params *wallet.CreateAccountDocumentsParams) ([]*walletdoc.Document, error) {
	return c.documents(ctx, walletcmd.CreateAccountDocumentsMethod, params)
}

// ExportAccount exports the key pair of an account encrypted with password.
func (c *Client) ExportAccount(ctx context.Context, address, password string) (*keyring.PairJSON, error) {
	exported := &keyring.PairJSON{}

	err := c.call(ctx, walletcmd.ExportAccountMethod,
		&walletcmd.ExportAccountRequest{Address: address, Password: password}, exported)
	if err != nil {
		return nil, err
	}

	return exported, nil
}

// ExportWallet returns an encrypted backup of the remote wallet.
func (c *Client) ExportWallet(ctx context.Context, password string) (json.RawMessage, error) {
	var data json.RawMessage

	if err := c.call(ctx, walletcmd.ExportWalletMethod, &walletcmd.PasswordRequest{Password: password},
		&data); err != nil {
		return nil, err
	}

	return data, nil
}

// ImportWallet adds every document of an encrypted backup to the remote wallet.
func (c *Client) ImportWallet(ctx context.Context, data json.RawMessage, password string) error {
	return c.call(ctx, walletcmd.ImportWalletMethod, &walletcmd.ImportWalletRequest{Data: data, Password: password},
		nil)
}

func (c *Client) documents(ctx context.Context, method string, params interface{}) ([]*walletdoc.Document, error) {
	var docs []*walletdoc.Document

	if err := c.call(ctx, method, params, &docs); err != nil {
		return nil, err
	}

	if docs == nil {
		docs = []*walletdoc.Document{}
	}

	return docs, nil
}
