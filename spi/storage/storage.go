/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storage defines the key/value persistence SPI used by wallet backends and the request log.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-wallet-go/spi/log"
)

// ErrDataNotFound is returned when data is not found.
var ErrDataNotFound = errors.New("data not found")

// Tag represents a Name + Value pair that can be associated with a key + value pair for querying later.
// Tag names and values cannot contain any ':' characters.
type Tag struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// Operation represents an operation to be performed in the Batch method.
type Operation struct {
	Key   string `json:"key,omitempty"`
	Value []byte `json:"value,omitempty"` // A nil value will result in a delete operation.
	Tags  []Tag  `json:"tags,omitempty"`
}

// Provider represents a storage provider.
type Provider interface {
	// OpenStore opens a Store with the given name and returns it. Store names are not case-sensitive.
	// If name is blank, then an error will be returned.
	OpenStore(name string) (Store, error)

	// Close closes all open Stores in this Provider.
	// For persistent Store implementations, this does not delete any data in the underlying databases.
	Close() error
}

// Store represents a storage database.
type Store interface {
	// Put stores the key + value pair along with the (optional) tags. If the key already exists in the database,
	// then the value and tags will be overwritten silently.
	Put(key string, value []byte, tags ...Tag) error

	// Get fetches the value associated with the given key.
	// If key cannot be found, then an error wrapping ErrDataNotFound will be returned.
	Get(key string) ([]byte, error)

	// Query returns all data tagged with the expression. Expression format: TagName or TagName:TagValue.
	Query(expression string) (Iterator, error)

	// Delete deletes the key + value pair (and all tags) associated with key.
	Delete(key string) error

	// Batch performs multiple Put and/or Delete operations in order, all or nothing.
	Batch(operations []Operation) error

	// Close closes this store object. It can be called repeatedly.
	Close() error
}

// Iterator allows for iteration over a collection of entries in a store.
type Iterator interface {
	// Next moves the pointer to the next entry in the iterator.
	// Note that it must be called before accessing the first entry.
	// It returns false if the iterator is exhausted - this is not considered an error.
	Next() (bool, error)

	// Key returns the key of the current entry.
	Key() (string, error)

	// Value returns the value of the current entry.
	Value() ([]byte, error)

	// Close closes this iterator object, freeing resources.
	Close() error
}

// ParseExpression splits a query expression into its tag name and optional tag value.
func ParseExpression(expression string) (string, string, error) {
	parts := strings.Split(expression, ":")

	switch {
	case expression == "" || len(parts) > 2: //nolint:gomnd
		return "", "", fmt.Errorf(`"%s" is not in a valid expression format. `+
			"it must be in the following format: TagName:TagValue", expression)
	case len(parts) == 1:
		return parts[0], "", nil
	default:
		return parts[0], parts[1], nil
	}
}

// CheckTags returns an error if any tag name or value contains a ':' character.
func CheckTags(tags []Tag) error {
	for _, tag := range tags {
		if strings.Contains(tag.Name, ":") {
			return fmt.Errorf(`"%s" is an invalid tag name since it contains one or more ':' characters`, tag.Name)
		}

		if strings.Contains(tag.Value, ":") {
			return fmt.Errorf(`"%s" is an invalid tag value since it contains one or more ':' characters`, tag.Value)
		}
	}

	return nil
}

// Close closes iterator and logs any error that occurs.
func Close(iterator Iterator, logger log.Logger) {
	if err := iterator.Close(); err != nil {
		logger.Errorf("failed to close iterator: %s", err.Error())
	}
}
