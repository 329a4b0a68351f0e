/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/secretlock"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

const (
	docTag     = "walletdoc"
	metaKey    = "meta"
	docKeyFmt  = "%s_%s"
	docKeyName = "doc"
)

type persistedDoc struct {
	Seq      int                 `json:"seq"`
	Document *walletdoc.Document `json:"document"`
	Sealed   secretlock.Sealed   `json:"sealed,omitempty"`
}

type persistedMeta struct {
	Locked   bool              `json:"locked"`
	Salt     []byte            `json:"salt,omitempty"`
	Verifier secretlock.Sealed `json:"verifier,omitempty"`
}

func docKey(id string) string {
	return fmt.Sprintf(docKeyFmt, docKeyName, id)
}

// Load replaces the in-memory state with the persisted one. Without a storage provider it is a no-op.
func (m *MemoryStore) Load(context.Context) error {
	if m.store == nil {
		return nil
	}

	docs, keys, err := m.readDocs()
	if err != nil {
		return walleterr.Wrap(walleterr.BackendUnavailable, err, "load wallet %s", m.walletID)
	}

	var meta persistedMeta

	raw, err := m.store.Get(metaKey)

	switch {
	case errors.Is(err, storage.ErrDataNotFound):
	case err != nil:
		return walleterr.Wrap(walleterr.BackendUnavailable, err, "load wallet %s metadata", m.walletID)
	default:
		if err := json.Unmarshal(raw, &meta); err != nil {
			return walleterr.Wrap(walleterr.BackendUnavailable, err, "decode wallet %s metadata", m.walletID)
		}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records = make(map[string]*record, len(docs))
	m.order = make([]string, 0, len(docs))

	for _, d := range docs {
		m.records[d.Document.ID] = &record{doc: d.Document, sealed: d.Sealed}
		m.order = append(m.order, d.Document.ID)
	}

	m.persisted = keys
	m.locked, m.salt, m.verifier = meta.Locked, meta.Salt, meta.Verifier

	logger.Debugf("loaded %d documents into wallet %s", len(docs), m.walletID)

	return nil
}

func (m *MemoryStore) readDocs() ([]*persistedDoc, map[string]struct{}, error) {
	it, err := m.store.Query(docTag)
	if err != nil {
		return nil, nil, err
	}

	defer storage.Close(it, logger)

	var docs []*persistedDoc

	keys := map[string]struct{}{}

	for {
		ok, err := it.Next()
		if err != nil {
			return nil, nil, err
		}

		if !ok {
			break
		}

		key, err := it.Key()
		if err != nil {
			return nil, nil, err
		}

		raw, err := it.Value()
		if err != nil {
			return nil, nil, err
		}

		var d persistedDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", key, err)
		}

		if d.Document == nil {
			return nil, nil, fmt.Errorf("%s holds no document", key)
		}

		docs = append(docs, &d)
		keys[key] = struct{}{}
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })

	return docs, keys, nil
}

// Sync writes the in-memory state in one batch. Sealed values stay sealed; other values are written as they are.
func (m *MemoryStore) Sync(context.Context) error {
	if m.store == nil {
		return nil
	}

	m.syncMutex.Lock()
	defer m.syncMutex.Unlock()

	m.mutex.RLock()

	ops := make([]storage.Operation, 0, len(m.order)+len(m.persisted)+1)
	current := make(map[string]struct{}, len(m.order))

	for seq, id := range m.order {
		r := m.records[id]

		raw, err := json.Marshal(&persistedDoc{Seq: seq, Document: r.doc, Sealed: r.sealed})
		if err != nil {
			m.mutex.RUnlock()

			return walleterr.Wrap(walleterr.InternalFailure, err, "encode document %s", id)
		}

		key := docKey(id)
		current[key] = struct{}{}
		ops = append(ops, storage.Operation{Key: key, Value: raw, Tags: []storage.Tag{{Name: docTag}}})
	}

	for key := range m.persisted {
		if _, ok := current[key]; !ok {
			ops = append(ops, storage.Operation{Key: key})
		}
	}

	meta, err := json.Marshal(&persistedMeta{Locked: m.locked, Salt: m.salt, Verifier: m.verifier})

	m.mutex.RUnlock()

	if err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "encode wallet metadata")
	}

	ops = append(ops, storage.Operation{Key: metaKey, Value: meta})

	if err := m.store.Batch(ops); err != nil {
		return walleterr.Wrap(walleterr.BackendUnavailable, err, "sync wallet %s", m.walletID)
	}

	m.mutex.Lock()
	m.persisted = current
	m.mutex.Unlock()

	logger.Debugf("synced %d documents of wallet %s", len(current), m.walletID)

	return nil
}
