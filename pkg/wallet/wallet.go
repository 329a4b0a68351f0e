/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet is the wallet document store. A Store owns at most one backend at a time and exposes the
// document lifecycle, correlation resolution and the account workflows built on top of it.
package wallet

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/patrickmn/go-cache"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/component/storageutil/mem"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend/memstore"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

var logger = log.New("wallet/store")

const defaultIdempotencyTTL = 10 * time.Minute

// Opt configures a Store.
type Opt func(opts *storeOpts)

type storeOpts struct {
	keyring        keyring.Provider
	factories      map[backend.Type]backend.Factory
	provider       storage.Provider
	memOpts        []memstore.Opt
	autoSync       time.Duration
	idempotencyTTL time.Duration
}

// WithKeyring sets the keyring used by the account workflows.
func WithKeyring(k keyring.Provider) Opt {
	return func(opts *storeOpts) {
		opts.keyring = k
	}
}

// WithBackendFactory registers the factory creating backends of type t.
func WithBackendFactory(t backend.Type, factory backend.Factory) Opt {
	return func(opts *storeOpts) {
		opts.factories[t] = factory
	}
}

// WithStorageProvider sets the persistence of the default memory backend.
func WithStorageProvider(provider storage.Provider) Opt {
	return func(opts *storeOpts) {
		opts.provider = provider
	}
}

// WithMemoryStoreOptions passes extra options to the default memory backend.
func WithMemoryStoreOptions(memOpts ...memstore.Opt) Opt {
	return func(opts *storeOpts) {
		opts.memOpts = append(opts.memOpts, memOpts...)
	}
}

// WithAutoSync syncs the active backend every interval.
func WithAutoSync(interval time.Duration) Opt {
	return func(opts *storeOpts) {
		opts.autoSync = interval
	}
}

// WithIdempotencyTTL sets how long account creation results are remembered by idempotency key.
func WithIdempotencyTTL(ttl time.Duration) Opt {
	return func(opts *storeOpts) {
		opts.idempotencyTTL = ttl
	}
}

// Store is the wallet document store.
type Store struct {
	// guards walletID and backend.
	mutex    sync.RWMutex
	walletID string
	backend  backend.Backend

	// serializes multi-document writes.
	writeMutex sync.Mutex

	keyring     keyring.Provider
	factories   map[backend.Type]backend.Factory
	idempotency *cache.Cache
	autoSync    time.Duration
	scheduler   *gocron.Scheduler
}

// New returns a Store. The memory backend is always available, backed by an in-memory storage
// provider unless WithStorageProvider is given.
func New(opts ...Opt) *Store {
	o := &storeOpts{
		factories:      map[backend.Type]backend.Factory{},
		idempotencyTTL: defaultIdempotencyTTL,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.provider == nil {
		o.provider = mem.NewProvider()
	}

	if _, ok := o.factories[backend.Memory]; !ok {
		o.factories[backend.Memory] = memstore.NewFactory(
			append([]memstore.Opt{memstore.WithStorageProvider(o.provider)}, o.memOpts...)...)
	}

	if o.keyring == nil {
		o.keyring = keyring.New()
	}

	return &Store{
		keyring:     o.keyring,
		factories:   o.factories,
		idempotency: cache.New(o.idempotencyTTL, 2*o.idempotencyTTL),
		autoSync:    o.autoSync,
	}
}

// Create instantiates the backend of walletID, replacing any prior backend of this store.
func (s *Store) Create(ctx context.Context, walletID string, backendType backend.Type) error {
	if strings.TrimSpace(walletID) == "" {
		return walleterr.New(walleterr.ValidationError, "wallet id is required")
	}

	if _, err := backend.ParseType(string(backendType)); err != nil {
		return err
	}

	factory, ok := s.factories[backendType]
	if !ok {
		return walleterr.New(walleterr.InvalidConfiguration, "no factory registered for backend type '%s'",
			backendType)
	}

	b, err := factory(ctx, walletID)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	prev := s.backend
	s.walletID, s.backend = walletID, b
	s.mutex.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			logger.Warnf("failed to close previous backend: %s", err)
		}
	}

	s.startAutoSync()

	logger.Infof("created %s backend for wallet %s", backendType, walletID)

	return nil
}

// active returns the backend, failing with kind when Create was never called.
func (s *Store) active(kind walleterr.Kind) (backend.Backend, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.backend == nil {
		if kind == walleterr.NoActiveWallet {
			return nil, walleterr.New(kind, "wallet is not created")
		}

		return nil, walleterr.New(kind, "no backend is active, create the wallet first")
	}

	return s.backend, nil
}

// CheckWallet fails with NoActiveWallet until a wallet was created.
func (s *Store) CheckWallet() error {
	_, err := s.active(walleterr.NoActiveWallet)

	return err
}

// CheckBackend fails with BackendUnavailable until a wallet was created.
func (s *Store) CheckBackend() error {
	_, err := s.active(walleterr.BackendUnavailable)

	return err
}

// WalletID returns the id of the active wallet, blank before Create.
func (s *Store) WalletID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.walletID
}

// Load hydrates the backend from persistence.
func (s *Store) Load(ctx context.Context) error {
	b, err := s.active(walleterr.BackendUnavailable)
	if err != nil {
		return err
	}

	return b.Load(ctx)
}

// Sync flushes the backend to persistence.
func (s *Store) Sync(ctx context.Context) error {
	b, err := s.active(walleterr.BackendUnavailable)
	if err != nil {
		return err
	}

	return b.Sync(ctx)
}

// Lock seals the secret-bearing documents of the wallet.
func (s *Store) Lock(ctx context.Context, password string) error {
	b, err := s.active(walleterr.BackendUnavailable)
	if err != nil {
		return err
	}

	return b.Lock(ctx, password)
}

// Unlock opens the sealed documents of the wallet.
func (s *Store) Unlock(ctx context.Context, password string) error {
	b, err := s.active(walleterr.BackendUnavailable)
	if err != nil {
		return err
	}

	return b.Unlock(ctx, password)
}

// Status returns the lock state.
func (s *Store) Status(ctx context.Context) (backend.Status, error) {
	b, err := s.active(walleterr.BackendUnavailable)
	if err != nil {
		return "", err
	}

	return b.Status(ctx)
}

// ToJSON returns every document of the wallet.
func (s *Store) ToJSON(ctx context.Context) ([]*walletdoc.Document, error) {
	return s.Query(ctx, nil)
}

// Add stores doc, replacing the document with the same id.
func (s *Store) Add(ctx context.Context, doc *walletdoc.Document) error {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return err
	}

	if err := walletdoc.Validate(doc); err != nil {
		return err
	}

	return b.Add(ctx, doc)
}

// Update replaces an existing document.
func (s *Store) Update(ctx context.Context, doc *walletdoc.Document) error {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return err
	}

	if err := walletdoc.Validate(doc); err != nil {
		return err
	}

	return b.Update(ctx, doc)
}

// Remove deletes the document with the id of doc.
func (s *Store) Remove(ctx context.Context, doc *walletdoc.Document) error {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return err
	}

	if doc == nil || strings.TrimSpace(doc.ID) == "" {
		return walleterr.New(walleterr.ValidationError, "document id is required")
	}

	return b.Remove(ctx, doc.ID)
}

// RemoveAll deletes every document of the wallet.
func (s *Store) RemoveAll(ctx context.Context) error {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return err
	}

	return b.RemoveAll(ctx)
}

// Query returns the documents matching q in storage order. A nil query matches every document.
func (s *Store) Query(ctx context.Context, q *walletdoc.Query) ([]*walletdoc.Document, error) {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return nil, err
	}

	return b.Query(ctx, q)
}

// Accounts returns the address documents of the wallet.
func (s *Store) Accounts(ctx context.Context) ([]*walletdoc.Document, error) {
	return s.Query(ctx, &walletdoc.Query{Type: walletdoc.TypeAddress})
}

// GetDocumentByID returns the content of a document.
func (s *Store) GetDocumentByID(ctx context.Context, id string) (*walletdoc.Document, error) {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(id) == "" {
		return nil, walleterr.New(walleterr.ValidationError, "document id is required")
	}

	sd, err := b.GetStorageDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return sd.Content, nil
}

// ExportWallet returns an encrypted backup of the wallet.
func (s *Store) ExportWallet(ctx context.Context, password string) (json.RawMessage, error) {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return nil, err
	}

	if password == "" {
		return nil, walleterr.New(walleterr.ValidationError, "password is required to export the wallet")
	}

	return b.Export(ctx, password)
}

// ImportWallet adds every document of an encrypted backup.
func (s *Store) ImportWallet(ctx context.Context, data json.RawMessage, password string) error {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return err
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	return b.Import(ctx, data, password)
}

// Close stops auto-sync and releases the backend.
func (s *Store) Close() error {
	s.mutex.Lock()
	b, scheduler := s.backend, s.scheduler
	s.backend, s.scheduler, s.walletID = nil, nil, ""
	s.mutex.Unlock()

	if scheduler != nil {
		scheduler.Stop()
	}

	if b == nil {
		return nil
	}

	return b.Close()
}
