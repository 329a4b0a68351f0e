/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package backend defines the capability set every wallet storage backend provides.
package backend

import (
	"context"
	"encoding/json"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
)

// Type selects a backend implementation.
type Type string

const (
	// Memory keeps documents in process, optionally persisted through a storage provider.
	Memory Type = "memory"
	// Proxy forwards every operation to a wallet service across the RPC boundary.
	Proxy Type = "proxy"
)

// ParseType returns the backend type named by s.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Memory, Proxy:
		return Type(s), nil
	}

	return "", walleterr.New(walleterr.InvalidConfiguration,
		"invalid backend type '%s', supported types are %s", s, []Type{Memory, Proxy})
}

// Status is the lock state of a wallet.
type Status string

// Lock states.
const (
	StatusLocked   Status = "locked"
	StatusUnlocked Status = "unlocked"
)

// StorageDocument wraps a document as it is kept by a backend.
type StorageDocument struct {
	ID      string              `json:"id"`
	Content *walletdoc.Document `json:"content"`
}

// Backend stores wallet documents. Implementations are safe for concurrent use.
type Backend interface {
	// Load hydrates the backend from its persistent state.
	Load(ctx context.Context) error
	// Sync flushes the backend to its persistent state.
	Sync(ctx context.Context) error
	// Lock seals secret-bearing documents with a key derived from password.
	Lock(ctx context.Context, password string) error
	// Unlock opens sealed documents, failing with InvalidPassword on a wrong password.
	Unlock(ctx context.Context, password string) error
	// Status returns the lock state.
	Status(ctx context.Context) (Status, error)
	// Add stores a document, replacing any document with the same id.
	Add(ctx context.Context, doc *walletdoc.Document) error
	// Update replaces an existing document, failing with NotFound if it is absent.
	Update(ctx context.Context, doc *walletdoc.Document) error
	// Remove deletes a document by id, failing with NotFound if it is absent.
	Remove(ctx context.Context, id string) error
	// RemoveAll deletes every document.
	RemoveAll(ctx context.Context) error
	// Query returns matching documents in storage order, an empty slice when none match.
	Query(ctx context.Context, q *walletdoc.Query) ([]*walletdoc.Document, error)
	// GetStorageDocument returns a document by id, failing with NotFound if it is absent.
	GetStorageDocument(ctx context.Context, id string) (*StorageDocument, error)
	// Export returns an encrypted backup of every document.
	Export(ctx context.Context, password string) (json.RawMessage, error)
	// Import adds every document of an encrypted backup.
	Import(ctx context.Context, data json.RawMessage, password string) error
	// Close releases the backend.
	Close() error
}

// Factory creates the backend of a wallet.
type Factory func(ctx context.Context, walletID string) (Backend, error)
