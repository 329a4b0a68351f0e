/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storage provides a mock storage provider backed by the in-memory provider,
// with the added ability to override return values.
package storage

import (
	"fmt"
	"sync"

	"github.com/hyperledger/aries-wallet-go/component/storageutil/mem"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

// MockStoreProvider mock store provider.
type MockStoreProvider struct {
	mem                *mem.Provider
	Store              *MockStore
	ErrOpenStoreHandle error
	ErrClose           error
	FailNamespace      string
}

// NewMockStoreProvider new store provider instance. Every store name maps to the same MockStore.
func NewMockStoreProvider() *MockStoreProvider {
	p := mem.NewProvider()

	delegate, err := p.OpenStore("mock")
	if err != nil {
		panic(err)
	}

	return &MockStoreProvider{mem: p, Store: &MockStore{delegate: delegate}}
}

// OpenStore opens and returns a store for given name space.
func (s *MockStoreProvider) OpenStore(name string) (storage.Store, error) {
	if name == s.FailNamespace {
		return nil, fmt.Errorf("failed to open store for name space %s", name)
	}

	if s.ErrOpenStoreHandle != nil {
		return nil, s.ErrOpenStoreHandle
	}

	return s.Store, nil
}

// Close returns ErrClose.
func (s *MockStoreProvider) Close() error {
	return s.ErrClose
}

// MockStore mock store.
type MockStore struct {
	delegate  storage.Store
	lock      sync.RWMutex
	ErrPut    error
	ErrGet    error
	ErrQuery  error
	ErrDelete error
	ErrBatch  error
	ErrNext   error
	ErrValue  error
	ErrClose  error
	// BatchCalls counts Batch invocations, failed ones included.
	BatchCalls int
}

// SetErr sets an error field under the store lock so tests can flip failures while workers run.
func (s *MockStore) SetErr(set func(m *MockStore)) {
	s.lock.Lock()
	set(s)
	s.lock.Unlock()
}

// Put stores the key and the record.
func (s *MockStore) Put(k string, v []byte, tags ...storage.Tag) error {
	s.lock.RLock()
	err := s.ErrPut
	s.lock.RUnlock()

	if err != nil {
		return err
	}

	return s.delegate.Put(k, v, tags...)
}

// Get fetches the record based on key.
func (s *MockStore) Get(k string) ([]byte, error) {
	s.lock.RLock()
	err := s.ErrGet
	s.lock.RUnlock()

	if err != nil {
		return nil, err
	}

	return s.delegate.Get(k)
}

// Query returns all data tagged with the expression.
func (s *MockStore) Query(expression string) (storage.Iterator, error) {
	s.lock.RLock()
	errQuery, errNext, errValue := s.ErrQuery, s.ErrNext, s.ErrValue
	s.lock.RUnlock()

	if errQuery != nil {
		return nil, errQuery
	}

	it, err := s.delegate.Query(expression)
	if err != nil {
		return nil, err
	}

	return &iterator{Iterator: it, errNext: errNext, errValue: errValue}, nil
}

// Delete deletes the key + value pair.
func (s *MockStore) Delete(k string) error {
	s.lock.RLock()
	err := s.ErrDelete
	s.lock.RUnlock()

	if err != nil {
		return err
	}

	return s.delegate.Delete(k)
}

// Batch performs multiple Put and/or Delete operations in order.
func (s *MockStore) Batch(operations []storage.Operation) error {
	s.lock.Lock()
	s.BatchCalls++
	err := s.ErrBatch
	s.lock.Unlock()

	if err != nil {
		return err
	}

	return s.delegate.Batch(operations)
}

// Close returns ErrClose.
func (s *MockStore) Close() error {
	return s.ErrClose
}

type iterator struct {
	storage.Iterator
	errNext  error
	errValue error
}

func (i *iterator) Next() (bool, error) {
	if i.errNext != nil {
		return false, i.errNext
	}

	return i.Iterator.Next()
}

func (i *iterator) Value() ([]byte, error) {
	if i.errValue != nil {
		return nil, i.errValue
	}

	return i.Iterator.Value()
}
