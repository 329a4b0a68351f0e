/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package proxystore is a wallet backend forwarding every operation to the wallet service of another
// process.
//
// Remote errors keep their kind. A call abandoned because its context ended fails with Timeout, its
// outcome is unknown: callers should re-read the state (Status, GetStorageDocument) instead of retrying.
package proxystore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/client/walletrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

var logger = log.New("wallet/backend/proxystore")

// ProxyStore implements backend.Backend over a wallet service client.
type ProxyStore struct {
	walletID string
	client   *walletrpc.Client

	// serializes mutations.
	mutex sync.Mutex
}

// New returns a proxy backend of the remote wallet walletID. The remote backend must already exist.
func New(walletID string, client *walletrpc.Client) *ProxyStore {
	return &ProxyStore{walletID: walletID, client: client}
}

// NewFactory returns a factory creating the memory backend of the wallet in the remote service, then
// the proxy in front of it.
func NewFactory(caller rpc.Caller) backend.Factory {
	return func(ctx context.Context, walletID string) (backend.Backend, error) {
		client := walletrpc.New(caller)

		if err := client.Create(ctx, walletID, backend.Memory); err != nil {
			return nil, outcome(ctx, "create", err)
		}

		logger.Debugf("created remote wallet %s", walletID)

		return New(walletID, client), nil
	}
}

// outcome maps the failure of a remote call.
func outcome(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil && walleterr.KindOf(err) == walleterr.InternalFailure {
		return walleterr.Wrap(walleterr.Timeout, err, "%s abandoned, outcome unknown", op)
	}

	return err
}

func (p *ProxyStore) checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return walleterr.Wrap(walleterr.Timeout, err, "%s not sent", op)
	}

	return nil
}

func (p *ProxyStore) mutate(ctx context.Context, op string, call func() error) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if err := p.checkContext(ctx, op); err != nil {
		return err
	}

	return outcome(ctx, op, call())
}

// Load hydrates the remote wallet.
func (p *ProxyStore) Load(ctx context.Context) error {
	return p.mutate(ctx, "load", func() error {
		return p.client.Load(ctx)
	})
}

// Sync flushes the remote wallet.
func (p *ProxyStore) Sync(ctx context.Context) error {
	return p.mutate(ctx, "sync", func() error {
		return p.client.Sync(ctx)
	})
}

// Lock locks the remote wallet.
func (p *ProxyStore) Lock(ctx context.Context, password string) error {
	return p.mutate(ctx, "lock", func() error {
		return p.client.Lock(ctx, password)
	})
}

// Unlock unlocks the remote wallet.
func (p *ProxyStore) Unlock(ctx context.Context, password string) error {
	return p.mutate(ctx, "unlock", func() error {
		return p.client.Unlock(ctx, password)
	})
}

// Status returns the lock state of the remote wallet.
func (p *ProxyStore) Status(ctx context.Context) (backend.Status, error) {
	if err := p.checkContext(ctx, "status"); err != nil {
		return "", err
	}

	status, err := p.client.Status(ctx)

	return status, outcome(ctx, "status", err)
}

// Add adds a document to the remote wallet.
func (p *ProxyStore) Add(ctx context.Context, doc *walletdoc.Document) error {
	return p.mutate(ctx, "add", func() error {
		return p.client.Add(ctx, doc)
	})
}

// Update replaces a document of the remote wallet.
func (p *ProxyStore) Update(ctx context.Context, doc *walletdoc.Document) error {
	return p.mutate(ctx, "update", func() error {
		return p.client.Update(ctx, doc)
	})
}

// Remove removes a document of the remote wallet.
func (p *ProxyStore) Remove(ctx context.Context, id string) error {
	return p.mutate(ctx, "remove", func() error {
		return p.client.Remove(ctx, &walletdoc.Document{ID: id})
	})
}

// RemoveAll removes every document of the remote wallet.
func (p *ProxyStore) RemoveAll(ctx context.Context) error {
	return p.mutate(ctx, "removeAll", func() error {
		return p.client.RemoveAll(ctx)
	})
}

// Query queries the remote wallet.
func (p *ProxyStore) Query(ctx context.Context, q *walletdoc.Query) ([]*walletdoc.Document, error) {
	if err := p.checkContext(ctx, "query"); err != nil {
		return nil, err
	}

	docs, err := p.client.Query(ctx, q)
	if err != nil {
		return nil, outcome(ctx, "query", err)
	}

	return docs, nil
}

// GetStorageDocument reads a document of the remote wallet.
func (p *ProxyStore) GetStorageDocument(ctx context.Context, id string) (*backend.StorageDocument, error) {
	if err := p.checkContext(ctx, "getDocumentById"); err != nil {
		return nil, err
	}

	doc, err := p.client.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, outcome(ctx, "getDocumentById", err)
	}

	return &backend.StorageDocument{ID: doc.ID, Content: doc}, nil
}

// Export returns an encrypted backup of the remote wallet.
func (p *ProxyStore) Export(ctx context.Context, password string) (json.RawMessage, error) {
	if err := p.checkContext(ctx, "exportWallet"); err != nil {
		return nil, err
	}

	data, err := p.client.ExportWallet(ctx, password)
	if err != nil {
		return nil, outcome(ctx, "exportWallet", err)
	}

	return data, nil
}

// Import imports an encrypted backup into the remote wallet.
func (p *ProxyStore) Import(ctx context.Context, data json.RawMessage, password string) error {
	return p.mutate(ctx, "importWallet", func() error {
		return p.client.ImportWallet(ctx, data, password)
	})
}

// Close releases the proxy. The remote wallet is left as it is.
func (p *ProxyStore) Close() error {
	logger.Debugf("closed proxy of remote wallet %s", p.walletID)

	return nil
}
