/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package leveldb implements the storage SPI on goleveldb. Each store is its own database directory
// named "<path>-<store>". Values are kept under a value prefix and every tag gets an index entry, so tag
// queries are prefix scans and batches commit atomically.
package leveldb

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	ldbiterator "github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

const (
	pathPattern = "%s-%s"

	valuePrefix = "v\x00"
	tagPrefix   = "t\x00"
	sep         = "\x00"
)

// Provider is a LevelDB implementation of the spi.Provider interface.
type Provider struct {
	dbPath string
	dbs    map[string]*store
	lock   sync.RWMutex
}

type dbEntry struct {
	Value []byte        `json:"value,omitempty"`
	Tags  []storage.Tag `json:"tags,omitempty"`
}

// NewProvider instantiates Provider.
func NewProvider(dbPath string) *Provider {
	return &Provider{dbs: make(map[string]*store), dbPath: dbPath}
}

// OpenStore opens and returns a store for given name space.
func (p *Provider) OpenStore(name string) (storage.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be blank")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	if s, ok := p.dbs[name]; ok {
		return s, nil
	}

	db, err := leveldb.OpenFile(fmt.Sprintf(pathPattern, p.dbPath, name), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb store %s", name)
	}

	s := &store{db: db, name: name, close: p.removeStore}
	p.dbs[name] = s

	return s, nil
}

// Close closes all stores created under this store provider.
func (p *Provider) Close() error {
	p.lock.RLock()

	open := make([]*store, 0, len(p.dbs))
	for _, s := range p.dbs {
		open = append(open, s)
	}
	p.lock.RUnlock()

	for _, s := range open {
		if err := s.Close(); err != nil {
			return errors.Wrapf(err, `failed to close open store with name "%s"`, s.name)
		}
	}

	return nil
}

func (p *Provider) removeStore(name string) {
	p.lock.Lock()
	delete(p.dbs, name)
	p.lock.Unlock()
}

type store struct {
	db    *leveldb.DB
	name  string
	close func(name string)
	// writes read the previous entry to drop its tag index, so they are serialized.
	lock sync.Mutex
}

func valueKey(key string) []byte {
	return []byte(valuePrefix + key)
}

func tagKey(tag storage.Tag, key string) []byte {
	return []byte(tagPrefix + tag.Name + sep + tag.Value + sep + key)
}

// Put stores the key and the record.
func (s *store) Put(key string, value []byte, tags ...storage.Tag) error {
	return s.Batch([]storage.Operation{{Key: key, Value: value, Tags: tags}})
}

// Get fetches the record based on key.
func (s *store) Get(key string) ([]byte, error) {
	entry, err := s.getDBEntry(key)
	if err != nil {
		return nil, err
	}

	return entry.Value, nil
}

func (s *store) getDBEntry(key string) (*dbEntry, error) {
	if key == "" {
		return nil, errors.New("key cannot be blank")
	}

	raw, err := s.db.Get(valueKey(key), nil)
	if err != nil {
		if errors.Is(err, ldberrors.ErrNotFound) {
			return nil, storage.ErrDataNotFound
		}

		return nil, errors.Wrapf(err, "get %s", key)
	}

	var entry dbEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal retrieved DB entry")
	}

	return &entry, nil
}

// Query scans the tag index for the expression.
func (s *store) Query(expression string) (storage.Iterator, error) {
	tagName, tagValue, err := storage.ParseExpression(expression)
	if err != nil {
		return nil, err
	}

	prefix := tagPrefix + tagName + sep
	if tagValue != "" {
		prefix += tagValue + sep
	}

	return &iterator{
		it:     s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil),
		store:  s,
		prefix: prefix,
	}, nil
}

// Delete will delete record with k key.
func (s *store) Delete(key string) error {
	return s.Batch([]storage.Operation{{Key: key}})
}

// Batch commits every operation in a single leveldb write batch.
func (s *store) Batch(operations []storage.Operation) error {
	if len(operations) == 0 {
		return errors.New("batch requires at least one operation")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	batch := new(leveldb.Batch)
	// entries written earlier in this batch, so later operations on the same key see them.
	pending := map[string]*dbEntry{}

	for _, op := range operations {
		if op.Key == "" {
			return errors.New("key cannot be blank")
		}

		if err := storage.CheckTags(op.Tags); err != nil {
			return err
		}

		prev, ok := pending[op.Key]
		if !ok {
			var err error

			prev, err = s.getDBEntry(op.Key)
			if err != nil && !errors.Is(err, storage.ErrDataNotFound) {
				return err
			}
		}

		if prev != nil {
			for _, tag := range prev.Tags {
				batch.Delete(tagKey(tag, op.Key))
			}
		}

		if op.Value == nil {
			batch.Delete(valueKey(op.Key))
			pending[op.Key] = nil

			continue
		}

		entry := &dbEntry{Value: op.Value, Tags: op.Tags}

		raw, err := json.Marshal(entry)
		if err != nil {
			return errors.Wrap(err, "failed to marshal new DB entry")
		}

		batch.Put(valueKey(op.Key), raw)

		for _, tag := range op.Tags {
			batch.Put(tagKey(tag, op.Key), nil)
		}

		pending[op.Key] = entry
	}

	return errors.Wrap(s.db.Write(batch, nil), "write batch")
}

func (s *store) Close() error {
	s.close(s.name)

	err := s.db.Close()
	if err != nil && !errors.Is(err, leveldb.ErrClosed) {
		return err
	}

	return nil
}

type iterator struct {
	it     ldbiterator.Iterator
	store  *store
	prefix string
	key    string
}

func (i *iterator) Next() (bool, error) {
	if !i.it.Next() {
		return false, i.it.Error()
	}

	// index keys end with the data key; a name-only query also spans the tag value segment.
	rest := strings.TrimPrefix(string(i.it.Key()), i.prefix)
	if idx := strings.LastIndex(rest, sep); idx >= 0 {
		rest = rest[idx+1:]
	}

	i.key = rest

	return true, nil
}

func (i *iterator) Key() (string, error) {
	return i.key, nil
}

func (i *iterator) Value() ([]byte, error) {
	return i.store.Get(i.key)
}

func (i *iterator) Close() error {
	i.it.Release()

	return nil
}
