/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rpc

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

const (
	requestLogStore = "requestlog"
	requestLogTag   = "requestlog"
)

// RequestLogEntry records the outcome of one dispatched request. Params and results are never recorded.
type RequestLogEntry struct {
	ID         string         `json:"id"`
	Service    string         `json:"service"`
	Method     string         `json:"method"`
	OK         bool           `json:"ok"`
	ErrorKind  walleterr.Kind `json:"errorKind,omitempty"`
	DurationMs int64          `json:"durationMs"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// RequestLog persists request outcomes.
type RequestLog struct {
	store storage.Store
	now   func() time.Time
}

// NewRequestLog opens the request log store of provider.
func NewRequestLog(provider storage.Provider) (*RequestLog, error) {
	store, err := provider.OpenStore(requestLogStore)
	if err != nil {
		return nil, fmt.Errorf("open request log store: %w", err)
	}

	return &RequestLog{store: store, now: time.Now}, nil
}

// Record stores the outcome of req.
func (l *RequestLog) Record(req *Request, resp *Response, started time.Time) error {
	entry := &RequestLogEntry{
		ID:         req.ID,
		Service:    req.Service,
		Method:     req.Method,
		OK:         resp.OK,
		DurationMs: l.now().Sub(started).Milliseconds(),
		CreatedAt:  started.UTC(),
	}

	if resp.Error != nil {
		entry.ErrorKind = resp.Error.Kind
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// sortable by time, unique per request.
	key := fmt.Sprintf("%020d_%s", started.UnixNano(), req.ID)

	return l.store.Put(key, raw, storage.Tag{Name: requestLogTag})
}

// Export returns every recorded entry, oldest first.
func (l *RequestLog) Export() ([]*RequestLogEntry, error) {
	iter, err := l.store.Query(requestLogTag)
	if err != nil {
		return nil, fmt.Errorf("query request log: %w", err)
	}

	defer storage.Close(iter, logger)

	var entries []*RequestLogEntry

	for {
		ok, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate request log: %w", err)
		}

		if !ok {
			break
		}

		raw, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read request log entry: %w", err)
		}

		entry := &RequestLogEntry{}

		if err := json.Unmarshal(raw, entry); err != nil {
			return nil, fmt.Errorf("decode request log entry: %w", err)
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}
