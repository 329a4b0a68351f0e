/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package memstore is the local wallet backend. Documents are kept in memory in insertion order and,
// when a storage provider is configured, loaded from and synced to a store named after the wallet.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/secretlock"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backup"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

var logger = log.New("wallet/memstore")

// Opt configures a MemoryStore.
type Opt func(m *MemoryStore)

// WithStorageProvider persists the wallet through provider on Load and Sync.
func WithStorageProvider(provider storage.Provider) Opt {
	return func(m *MemoryStore) {
		m.provider = provider
	}
}

// WithSecretTypes overrides the document types sealed on Lock.
func WithSecretTypes(types ...string) Opt {
	return func(m *MemoryStore) {
		m.secretTypes = types
	}
}

// WithKDFIterations sets the PBKDF2 iteration count of the lock key.
func WithKDFIterations(n int) Opt {
	return func(m *MemoryStore) {
		m.iterations = n
	}
}

type record struct {
	doc    *walletdoc.Document
	sealed secretlock.Sealed
}

// MemoryStore is an in-memory backend.Backend.
type MemoryStore struct {
	mutex       sync.RWMutex
	syncMutex   sync.Mutex
	walletID    string
	records     map[string]*record
	order       []string
	locked      bool
	salt        []byte
	verifier    secretlock.Sealed
	persisted   map[string]struct{}
	provider    storage.Provider
	store       storage.Store
	secretTypes []string
	iterations  int
}

// New returns the memory backend of a wallet.
func New(walletID string, opts ...Opt) (*MemoryStore, error) {
	m := &MemoryStore{
		walletID:    walletID,
		records:     map[string]*record{},
		persisted:   map[string]struct{}{},
		secretTypes: walletdoc.DefaultSecretTypes(),
		iterations:  secretlock.DefaultIterations,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.provider != nil {
		store, err := m.provider.OpenStore(walletID)
		if err != nil {
			return nil, walleterr.Wrap(walleterr.BackendUnavailable, err, "open store for wallet %s", walletID)
		}

		m.store = store
	}

	return m, nil
}

// NewFactory returns a backend.Factory creating memory backends with opts.
func NewFactory(opts ...Opt) backend.Factory {
	return func(_ context.Context, walletID string) (backend.Backend, error) {
		return New(walletID, opts...)
	}
}

func (m *MemoryStore) isSecret(docType string) bool {
	return walletdoc.IsSecretType(docType, m.secretTypes)
}

// Status returns the lock state.
func (m *MemoryStore) Status(context.Context) (backend.Status, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.locked {
		return backend.StatusLocked, nil
	}

	return backend.StatusUnlocked, nil
}

// Lock seals every secret-bearing document value with a key derived from password.
func (m *MemoryStore) Lock(_ context.Context, password string) error {
	if password == "" {
		return walleterr.New(walleterr.ValidationError, "password is required to lock the wallet")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.locked {
		return walleterr.New(walleterr.WalletLocked, "wallet %s is already locked", m.walletID)
	}

	salt := secretlock.NewSalt()

	key, err := secretlock.DeriveKey(password, salt, m.iterations)
	if err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "derive lock key")
	}

	sealed := map[string]secretlock.Sealed{}

	for id, r := range m.records {
		if !m.isSecret(r.doc.Type) || r.doc.Value == nil {
			continue
		}

		raw, err := json.Marshal(r.doc.Value)
		if err != nil {
			return walleterr.Wrap(walleterr.InternalFailure, err, "seal document %s", id)
		}

		sealed[id] = key.Seal(raw, []byte(id))
	}

	for id, s := range sealed {
		m.records[id].sealed = s
		m.records[id].doc.Value = nil
	}

	m.salt, m.verifier, m.locked = salt, key.Verifier(), true

	logger.Debugf("wallet %s locked", m.walletID)

	return nil
}

// Unlock opens every sealed document value. Unlocking an unlocked wallet is a no-op.
func (m *MemoryStore) Unlock(_ context.Context, password string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.locked {
		return nil
	}

	if password == "" {
		return walleterr.New(walleterr.InvalidPassword, "password is required to unlock the wallet")
	}

	key, err := secretlock.DeriveKey(password, m.salt, m.iterations)
	if err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "derive lock key")
	}

	if !key.Verify(m.verifier) {
		return walleterr.New(walleterr.InvalidPassword, "invalid password for wallet %s", m.walletID)
	}

	values := map[string]interface{}{}

	for id, r := range m.records {
		if r.sealed == "" {
			continue
		}

		raw, err := key.Open(r.sealed, []byte(id))
		if err != nil {
			return walleterr.Wrap(walleterr.InternalFailure, err, "open sealed document %s", id)
		}

		v, err := walletdoc.DecodeValue(raw)
		if err != nil {
			return walleterr.Wrap(walleterr.InternalFailure, err, "decode sealed document %s", id)
		}

		values[id] = v
	}

	for id, v := range values {
		m.records[id].doc.Value = v
		m.records[id].sealed = ""
	}

	m.salt, m.verifier, m.locked = nil, "", false

	logger.Debugf("wallet %s unlocked", m.walletID)

	return nil
}

// checkWritable fails with WalletLocked when a locked wallet would have secret material changed.
func (m *MemoryStore) checkWritable(id, docType string) error {
	if !m.locked {
		return nil
	}

	if m.isSecret(docType) {
		return walleterr.New(walleterr.WalletLocked, "wallet is locked, cannot write %s document %s", docType, id)
	}

	if r, ok := m.records[id]; ok && m.isSecret(r.doc.Type) {
		return walleterr.New(walleterr.WalletLocked, "wallet is locked, cannot change %s document %s",
			r.doc.Type, id)
	}

	return nil
}

// Add stores a copy of doc. An existing document with the same id is replaced in place.
func (m *MemoryStore) Add(_ context.Context, doc *walletdoc.Document) error {
	if err := walletdoc.Validate(doc); err != nil {
		return err
	}

	c, err := doc.Clone()
	if err != nil {
		return walleterr.Wrap(walleterr.ValidationError, err, "")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.checkWritable(c.ID, c.Type); err != nil {
		return err
	}

	m.put(c)

	return nil
}

func (m *MemoryStore) put(doc *walletdoc.Document) {
	if r, ok := m.records[doc.ID]; ok {
		r.doc, r.sealed = doc, ""

		return
	}

	m.records[doc.ID] = &record{doc: doc}
	m.order = append(m.order, doc.ID)
}

// Update replaces an existing document.
func (m *MemoryStore) Update(_ context.Context, doc *walletdoc.Document) error {
	if err := walletdoc.Validate(doc); err != nil {
		return err
	}

	c, err := doc.Clone()
	if err != nil {
		return walleterr.Wrap(walleterr.ValidationError, err, "")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.records[c.ID]; !ok {
		return walleterr.New(walleterr.NotFound, "document %s not found", c.ID)
	}

	if err := m.checkWritable(c.ID, c.Type); err != nil {
		return err
	}

	m.put(c)

	return nil
}

// Remove deletes a document.
func (m *MemoryStore) Remove(_ context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return walleterr.New(walleterr.ValidationError, "document id is required")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.records[id]; !ok {
		return walleterr.New(walleterr.NotFound, "document %s not found", id)
	}

	if err := m.checkWritable(id, ""); err != nil {
		return err
	}

	delete(m.records, id)

	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)

			break
		}
	}

	return nil
}

// RemoveAll deletes every document. A locked wallet holding secrets refuses.
func (m *MemoryStore) RemoveAll(context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, id := range m.order {
		if err := m.checkWritable(id, ""); err != nil {
			return err
		}
	}

	m.records = map[string]*record{}
	m.order = nil

	return nil
}

// Query returns copies of matching documents in insertion order. Secret values of a locked wallet are omitted.
func (m *MemoryStore) Query(_ context.Context, q *walletdoc.Query) ([]*walletdoc.Document, error) {
	match, err := q.Compile()
	if err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := []*walletdoc.Document{}

	for _, id := range m.order {
		doc := m.records[id].doc
		if !match(doc) {
			continue
		}

		c, err := doc.Clone()
		if err != nil {
			return nil, walleterr.Wrap(walleterr.InternalFailure, err, "")
		}

		result = append(result, c)
	}

	return result, nil
}

// GetStorageDocument returns a copy of a document. Secret documents of a locked wallet are refused.
func (m *MemoryStore) GetStorageDocument(_ context.Context, id string) (*backend.StorageDocument, error) {
	if strings.TrimSpace(id) == "" {
		return nil, walleterr.New(walleterr.ValidationError, "document id is required")
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, walleterr.New(walleterr.NotFound, "document %s not found", id)
	}

	if m.locked && m.isSecret(r.doc.Type) {
		return nil, walleterr.New(walleterr.WalletLocked, "wallet is locked, cannot read %s document %s",
			r.doc.Type, id)
	}

	c, err := r.doc.Clone()
	if err != nil {
		return nil, walleterr.Wrap(walleterr.InternalFailure, err, "")
	}

	return &backend.StorageDocument{ID: id, Content: c}, nil
}

// Export seals every document into an encrypted backup. Secrets must be readable, so the wallet must be unlocked.
func (m *MemoryStore) Export(ctx context.Context, password string) (json.RawMessage, error) {
	m.mutex.RLock()
	locked := m.locked
	m.mutex.RUnlock()

	if locked {
		return nil, walleterr.New(walleterr.WalletLocked, "wallet %s must be unlocked to export", m.walletID)
	}

	docs, err := m.Query(ctx, nil)
	if err != nil {
		return nil, err
	}

	return backup.Seal(docs, password, "urn:wallet:"+m.walletID)
}

// Import adds every document of an encrypted backup.
func (m *MemoryStore) Import(_ context.Context, data json.RawMessage, password string) error {
	docs, err := backup.Open(data, password)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, doc := range docs {
		if err := m.checkWritable(doc.ID, doc.Type); err != nil {
			return err
		}
	}

	for _, doc := range docs {
		m.put(doc)
	}

	logger.Infof("imported %d documents into wallet %s", len(docs), m.walletID)

	return nil
}

// Close closes the underlying store.
func (m *MemoryStore) Close() error {
	if m.store == nil {
		return nil
	}

	if err := m.store.Close(); err != nil {
		return fmt.Errorf("close store of wallet %s: %w", m.walletID, err)
	}

	return nil
}
