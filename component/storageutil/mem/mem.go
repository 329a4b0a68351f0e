/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem is an in-memory implementation of the storage SPI.
// Data outlives store handles and lives as long as the Provider.
package mem

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	spi "github.com/hyperledger/aries-wallet-go/spi/storage"
)

var errEmptyKey = errors.New("key cannot be empty")

// Provider represents an in-memory implementation of the spi.Provider interface.
type Provider struct {
	dbs  map[string]*memStore
	lock sync.Mutex
}

// NewProvider instantiates a new in-memory storage Provider.
func NewProvider() *Provider {
	return &Provider{dbs: make(map[string]*memStore)}
}

// OpenStore opens a store with the given name and returns a handle.
// If the store has never been opened before, then it is created.
func (p *Provider) OpenStore(name string) (spi.Store, error) {
	if name == "" {
		return nil, fmt.Errorf("store name cannot be empty")
	}

	storeName := strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	store := p.dbs[storeName]
	if store == nil {
		store = &memStore{name: storeName, db: make(map[string]dbEntry)}
		p.dbs[storeName] = store
	}

	return store, nil
}

// Close drops every store of the provider.
func (p *Provider) Close() error {
	p.lock.Lock()
	p.dbs = make(map[string]*memStore)
	p.lock.Unlock()

	return nil
}

type dbEntry struct {
	value []byte
	tags  []spi.Tag
}

type memStore struct {
	name string
	db   map[string]dbEntry
	lock sync.RWMutex
}

// Put stores the key + value pair along with the (optional) tags.
func (m *memStore) Put(key string, value []byte, tags ...spi.Tag) error {
	if err := checkPut(key, value, tags); err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.put(key, value, tags)

	return nil
}

func (m *memStore) put(key string, value []byte, tags []spi.Tag) {
	m.db[key] = dbEntry{
		value: append([]byte(nil), value...),
		tags:  append([]spi.Tag(nil), tags...),
	}
}

// Get fetches the value associated with the given key.
func (m *memStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, errEmptyKey
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	entry, ok := m.db[key]
	if !ok {
		return nil, spi.ErrDataNotFound
	}

	return append([]byte(nil), entry.value...), nil
}

// Query returns all data tagged with the expression, ordered by key.
func (m *memStore) Query(expression string) (spi.Iterator, error) {
	tagName, tagValue, err := spi.ParseExpression(expression)
	if err != nil {
		return nil, err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	var keys []string

	for key, entry := range m.db {
		for _, tag := range entry.tags {
			if tag.Name == tagName && (tagValue == "" || tag.Value == tagValue) {
				keys = append(keys, key)

				break
			}
		}
	}

	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = append([]byte(nil), m.db[k].value...)
	}

	return &iterator{keys: keys, values: values, current: -1}, nil
}

// Delete deletes the key + value pair (and all tags) associated with key.
func (m *memStore) Delete(key string) error {
	if key == "" {
		return errEmptyKey
	}

	m.lock.Lock()
	delete(m.db, key)
	m.lock.Unlock()

	return nil
}

// Batch performs multiple Put and/or Delete operations under one lock.
func (m *memStore) Batch(operations []spi.Operation) error {
	if len(operations) == 0 {
		return errors.New("batch requires at least one operation")
	}

	for _, op := range operations {
		if op.Key == "" {
			return errEmptyKey
		}

		if err := spi.CheckTags(op.Tags); err != nil {
			return err
		}
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	for _, op := range operations {
		if op.Value == nil {
			delete(m.db, op.Key)

			continue
		}

		m.put(op.Key, op.Value, op.Tags)
	}

	return nil
}

// Close is a no-op, data stays with the provider.
func (m *memStore) Close() error {
	return nil
}

func checkPut(key string, value []byte, tags []spi.Tag) error {
	if key == "" {
		return errEmptyKey
	}

	if value == nil {
		return errors.New("value cannot be nil")
	}

	return spi.CheckTags(tags)
}

type iterator struct {
	keys    []string
	values  [][]byte
	current int
}

func (i *iterator) Next() (bool, error) {
	if i.current+1 >= len(i.keys) {
		i.current = len(i.keys)

		return false, nil
	}

	i.current++

	return true, nil
}

func (i *iterator) Key() (string, error) {
	if i.current < 0 || i.current >= len(i.keys) {
		return "", errors.New("iterator is exhausted")
	}

	return i.keys[i.current], nil
}

func (i *iterator) Value() ([]byte, error) {
	if i.current < 0 || i.current >= len(i.keys) {
		return nil, errors.New("iterator is exhausted")
	}

	return i.values[i.current], nil
}

func (i *iterator) Close() error {
	return nil
}
