/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/tink/go/subtle/random"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

const (
	encodingVersion = "3"
	contentPKCS8    = "pkcs8"
	typeScrypt      = "scrypt"
	typeSecretbox   = "xsalsa20-poly1305"
	typeNone        = "none"

	scryptSaltSize = 32
	nonceSize      = 24
	keySize        = 32
	// salt || N || p || r, each parameter a little endian u32.
	scryptHeaderSize = scryptSaltSize + 12
)

// PairJSON is the exported form of a key pair.
type PairJSON struct {
	Address  string                 `json:"address"`
	Encoded  string                 `json:"encoded"`
	Encoding Encoding               `json:"encoding"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
}

// Encoding describes how PairJSON.Encoded was produced.
type Encoding struct {
	Content []string `json:"content"`
	Type    []string `json:"type"`
	Version string   `json:"version"`
}

// IsEncrypted reports whether the secret is password protected.
func (e Encoding) IsEncrypted() bool {
	return len(e.Type) > 0 && e.Type[0] != typeNone
}

// Pair is a key pair handle. The secret key is only reachable through Sign and ToJSON, and only
// while the pair is unlocked.
type Pair struct {
	mutex     sync.RWMutex
	address   string
	keyType   KeyType
	publicKey ed25519.PublicKey
	secret    ed25519.PrivateKey
	meta      map[string]interface{}
	// encoded is the encrypted export the pair was loaded from, kept so Unlock can reopen it.
	encoded *PairJSON
	scrypt  ScryptParams
}

func newPair(secret ed25519.PrivateKey, format uint16, meta map[string]interface{}, params ScryptParams) (*Pair, error) {
	pub, ok := secret.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type %T", secret.Public())
	}

	address, err := EncodeAddress(pub, format)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "encode address")
	}

	return &Pair{
		address:   address,
		keyType:   ED25519,
		publicKey: pub,
		secret:    secret,
		meta:      copyMeta(meta),
		scrypt:    params,
	}, nil
}

// Address returns the SS58 address.
func (p *Pair) Address() string {
	return p.address
}

// Type returns the key type.
func (p *Pair) Type() KeyType {
	return p.keyType
}

// PublicKey returns a copy of the public key.
func (p *Pair) PublicKey() []byte {
	return append([]byte(nil), p.publicKey...)
}

// Meta returns a copy of the pair metadata.
func (p *Pair) Meta() map[string]interface{} {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return copyMeta(p.meta)
}

// SetMeta merges metadata into the pair.
func (p *Pair) SetMeta(meta map[string]interface{}) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.meta == nil {
		p.meta = map[string]interface{}{}
	}

	for k, v := range meta {
		p.meta[k] = v
	}
}

// IsLocked reports whether the secret key is unavailable.
func (p *Pair) IsLocked() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.secret == nil
}

// Lock drops the secret key. A pair without an encrypted export cannot be unlocked again.
func (p *Pair) Lock() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for i := range p.secret {
		p.secret[i] = 0
	}

	p.secret = nil
}

// Unlock reopens the encrypted export the pair holds. Unlocking an unlocked pair is a no-op.
func (p *Pair) Unlock(password string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.secret != nil {
		return nil
	}

	if p.encoded == nil {
		return walleterr.New(walleterr.ValidationError, "pair %s has no encrypted secret to unlock", p.address)
	}

	secret, err := decodeSecret(p.encoded, password)
	if err != nil {
		return err
	}

	if !p.publicKey.Equal(secret.Public()) {
		return walleterr.New(walleterr.InvalidPassword, "decoded secret does not match address %s", p.address)
	}

	p.secret = secret

	return nil
}

// Sign signs msg with the secret key.
func (p *Pair) Sign(msg []byte) ([]byte, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.secret == nil {
		return nil, walleterr.New(walleterr.WalletLocked, "pair %s is locked", p.address)
	}

	return ed25519.Sign(p.secret, msg), nil
}

// Verify checks a signature made by this pair.
func (p *Pair) Verify(msg, sig []byte) bool {
	return ed25519.Verify(p.publicKey, msg, sig)
}

// ToJSON exports the pair. With a password the secret is sealed with scrypt and xsalsa20-poly1305,
// without one it is only base64 encoded.
func (p *Pair) ToJSON(password string) (*PairJSON, error) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.secret == nil {
		return nil, walleterr.New(walleterr.WalletLocked, "pair %s is locked", p.address)
	}

	out := &PairJSON{
		Address: p.address,
		Meta:    copyMeta(p.meta),
		Encoding: Encoding{
			Content: []string{contentPKCS8, string(p.keyType)},
			Type:    []string{typeNone},
			Version: encodingVersion,
		},
	}

	if password == "" {
		out.Encoded = base64.StdEncoding.EncodeToString(p.secret)

		return out, nil
	}

	sealed, err := sealSecret(p.secret, password, p.scrypt)
	if err != nil {
		return nil, err
	}

	out.Encoded = base64.StdEncoding.EncodeToString(sealed)
	out.Encoding.Type = []string{typeScrypt, typeSecretbox}

	return out, nil
}

// MarshalJSON exports the pair without encryption, the form stored in KeyringPair documents of
// an unlocked wallet.
func (p *Pair) MarshalJSON() ([]byte, error) {
	j, err := p.ToJSON("")
	if err != nil {
		return nil, err
	}

	return json.Marshal(j)
}

func sealSecret(secret []byte, password string, params ScryptParams) ([]byte, error) {
	salt := random.GetRandomBytes(scryptSaltSize)

	key, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive export key: %w", err)
	}

	var (
		k     [keySize]byte
		nonce [nonceSize]byte
	)

	copy(k[:], key)
	copy(nonce[:], random.GetRandomBytes(nonceSize))

	header := make([]byte, scryptHeaderSize, scryptHeaderSize+nonceSize+len(secret)+secretbox.Overhead)
	copy(header, salt)
	binary.LittleEndian.PutUint32(header[scryptSaltSize:], uint32(params.N))
	binary.LittleEndian.PutUint32(header[scryptSaltSize+4:], uint32(params.P))
	binary.LittleEndian.PutUint32(header[scryptSaltSize+8:], uint32(params.R))

	return secretbox.Seal(append(header, nonce[:]...), secret, &nonce, &k), nil
}

func decodeSecret(j *PairJSON, password string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(j.Encoded)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid encoded secret")
	}

	if !j.Encoding.IsEncrypted() {
		if len(raw) != ed25519.PrivateKeySize {
			return nil, walleterr.New(walleterr.ValidationError, "invalid secret key size %d", len(raw))
		}

		return raw, nil
	}

	if password == "" {
		return nil, walleterr.New(walleterr.InvalidPassword, "password required to decode %s", j.Address)
	}

	if len(raw) < scryptHeaderSize+nonceSize+secretbox.Overhead {
		return nil, walleterr.New(walleterr.ValidationError, "encoded secret is too short")
	}

	params := ScryptParams{
		N: int(binary.LittleEndian.Uint32(raw[scryptSaltSize:])),
		P: int(binary.LittleEndian.Uint32(raw[scryptSaltSize+4:])),
		R: int(binary.LittleEndian.Uint32(raw[scryptSaltSize+8:])),
	}

	key, err := scrypt.Key([]byte(password), raw[:scryptSaltSize], params.N, params.R, params.P, keySize)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid scrypt parameters")
	}

	var (
		k     [keySize]byte
		nonce [nonceSize]byte
	)

	copy(k[:], key)
	copy(nonce[:], raw[scryptHeaderSize:])

	secret, ok := secretbox.Open(nil, raw[scryptHeaderSize+nonceSize:], &nonce, &k)
	if !ok {
		return nil, walleterr.New(walleterr.InvalidPassword, "unable to decode %s using the supplied password", j.Address)
	}

	if len(secret) != ed25519.PrivateKeySize {
		return nil, walleterr.New(walleterr.ValidationError, "invalid secret key size %d", len(secret))
	}

	return secret, nil
}

func copyMeta(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}

	c := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		c[k] = v
	}

	return c
}
