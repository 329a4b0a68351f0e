/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyring derives, imports and holds wallet key pairs.
package keyring

import (
	"crypto/ed25519"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

var logger = log.New("wallet/keyring")

// KeyType is a key pair algorithm.
type KeyType string

// Key types.
const (
	ED25519 KeyType = "ed25519"
	SR25519 KeyType = "sr25519"
	ECDSA   KeyType = "ecdsa"
)

// ScryptParams are the scrypt cost parameters used when exporting pairs with a password.
type ScryptParams struct {
	N int
	R int
	P int
}

// DefaultScryptParams are the cost parameters of exported pairs.
func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 15, R: 8, P: 1} //nolint:gomnd
}

// Provider derives and imports key pairs.
type Provider interface {
	FromMnemonic(mnemonic, derivePath string, keyType KeyType, meta map[string]interface{}) (*Pair, error)
	FromSeed(seed []byte, derivePath string, keyType KeyType, meta map[string]interface{}) (*Pair, error)
	FromJSON(data []byte, password string) (*Pair, error)
	AddressFromURI(uri string, keyType KeyType) (string, error)
}

// Opt configures a Keyring.
type Opt func(k *Keyring)

// WithSS58Format sets the address format.
func WithSS58Format(format uint16) Opt {
	return func(k *Keyring) {
		k.format = format
	}
}

// WithScryptParams sets the scrypt cost of exported pairs.
func WithScryptParams(params ScryptParams) Opt {
	return func(k *Keyring) {
		k.scrypt = params
	}
}

// Keyring is an ed25519 keyring. Besides deriving pairs it keeps the pairs added to it by address.
type Keyring struct {
	mutex  sync.RWMutex
	format uint16
	scrypt ScryptParams
	pairs  map[string]*Pair
}

// New returns a keyring.
func New(opts ...Opt) *Keyring {
	k := &Keyring{
		format: DefaultSS58Format,
		scrypt: DefaultScryptParams(),
		pairs:  map[string]*Pair{},
	}

	for _, opt := range opts {
		opt(k)
	}

	return k
}

// SetSS58Format changes the address format of pairs created from now on.
func (k *Keyring) SetSS58Format(format uint16) error {
	if format > maxSimpleFormat {
		return walleterr.New(walleterr.ValidationError, "unsupported ss58 format %d", format)
	}

	k.mutex.Lock()
	k.format = format
	k.mutex.Unlock()

	logger.Debugf("ss58 format set to %d", format)

	return nil
}

// SS58Format returns the current address format.
func (k *Keyring) SS58Format() uint16 {
	k.mutex.RLock()
	defer k.mutex.RUnlock()

	return k.format
}

func checkKeyType(keyType KeyType) error {
	if keyType == "" || keyType == ED25519 {
		return nil
	}

	return walleterr.New(walleterr.ValidationError, "unsupported key type '%s', supported types are [%s]",
		keyType, ED25519)
}

// FromMnemonic derives a pair from a mnemonic phrase and an optional derivation path.
func (k *Keyring) FromMnemonic(mnemonic, derivePath string, keyType KeyType,
	meta map[string]interface{}) (*Pair, error) {
	if err := checkKeyType(keyType); err != nil {
		return nil, err
	}

	phrase, err := mnemonicWords(mnemonic)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid mnemonic")
	}

	junctions, password, err := parsePath(derivePath)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "")
	}

	return k.derive(mnemonicSeed(phrase, password), junctions, meta)
}

// FromSeed derives a pair from a 32 byte seed and an optional derivation path.
func (k *Keyring) FromSeed(seed []byte, derivePath string, keyType KeyType,
	meta map[string]interface{}) (*Pair, error) {
	if err := checkKeyType(keyType); err != nil {
		return nil, err
	}

	if len(seed) != ed25519.SeedSize {
		return nil, walleterr.New(walleterr.ValidationError, "seed must be %d bytes", ed25519.SeedSize)
	}

	junctions, password, err := parsePath(derivePath)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "")
	}

	if password != "" {
		return nil, walleterr.New(walleterr.ValidationError, "password junctions only apply to mnemonics")
	}

	return k.derive(seed, junctions, meta)
}

func (k *Keyring) derive(seed []byte, junctions []junction, meta map[string]interface{}) (*Pair, error) {
	for _, j := range junctions {
		if !j.hard {
			return nil, walleterr.New(walleterr.ValidationError, "soft derivation is not supported for %s", ED25519)
		}

		seed = deriveHard(seed, j.chainCode)
	}

	return newPair(ed25519.NewKeyFromSeed(seed), k.SS58Format(), meta, k.scryptParams())
}

func (k *Keyring) scryptParams() ScryptParams {
	k.mutex.RLock()
	defer k.mutex.RUnlock()

	return k.scrypt
}

// FromJSON imports an exported pair. An encrypted export without a password yields a locked pair.
func (k *Keyring) FromJSON(data []byte, password string) (*Pair, error) {
	var j PairJSON

	if err := json.Unmarshal(data, &j); err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid keyring pair JSON")
	}

	if len(j.Encoding.Content) < 2 || KeyType(j.Encoding.Content[1]) != ED25519 { //nolint:gomnd
		return nil, walleterr.New(walleterr.ValidationError, "unsupported keyring pair content %v", j.Encoding.Content)
	}

	pub, _, err := DecodeAddress(j.Address)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "")
	}

	pair := &Pair{
		address:   j.Address,
		keyType:   ED25519,
		publicKey: pub,
		meta:      copyMeta(j.Meta),
		scrypt:    k.scryptParams(),
	}

	if j.Encoding.IsEncrypted() {
		pair.encoded = &j

		if password == "" {
			return pair, nil
		}
	}

	secret, err := decodeSecret(&j, password)
	if err != nil {
		return nil, err
	}

	if !pair.publicKey.Equal(secret.Public()) {
		return nil, walleterr.New(walleterr.ValidationError, "secret key does not match address %s", j.Address)
	}

	pair.secret = secret

	return pair, nil
}

// AddressFromURI returns the address of a secret URI: a mnemonic or 0x hex seed followed by an optional path.
func (k *Keyring) AddressFromURI(uri string, keyType KeyType) (string, error) {
	phrase, path := uri, ""
	if idx := strings.Index(uri, "/"); idx >= 0 {
		phrase, path = uri[:idx], uri[idx:]
	}

	phrase = strings.TrimSpace(phrase)

	var (
		pair *Pair
		err  error
	)

	if strings.HasPrefix(phrase, "0x") {
		seed, e := hexSeed(phrase)
		if e != nil {
			return "", walleterr.Wrap(walleterr.ValidationError, e, "invalid secret uri")
		}

		pair, err = k.FromSeed(seed, path, keyType, nil)
	} else {
		pair, err = k.FromMnemonic(phrase, path, keyType, nil)
	}

	if err != nil {
		return "", err
	}

	pair.Lock()

	return pair.Address(), nil
}

// Add keeps the pair, replacing any pair with the same address.
func (k *Keyring) Add(pair *Pair) {
	k.mutex.Lock()
	k.pairs[pair.Address()] = pair
	k.mutex.Unlock()
}

// GetPair returns a kept pair.
func (k *Keyring) GetPair(address string) (*Pair, error) {
	k.mutex.RLock()
	defer k.mutex.RUnlock()

	pair, ok := k.pairs[address]
	if !ok {
		return nil, walleterr.New(walleterr.NotFound, "unable to retrieve keypair '%s'", address)
	}

	return pair, nil
}

// Addresses lists the kept pairs.
func (k *Keyring) Addresses() []string {
	k.mutex.RLock()
	defer k.mutex.RUnlock()

	addrs := make([]string, 0, len(k.pairs))
	for a := range k.pairs {
		addrs = append(addrs, a)
	}

	sort.Strings(addrs)

	return addrs
}
