/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package secretlock seals wallet secrets with a key expanded from a password using PBKDF2.
//
// The underlying golang.org/x/crypto/pbkdf2 package implements IETF RFC 8018's PBKDF2 specification found at:
// https://tools.ietf.org/html/rfc8018#section-5.2. A Key only exists while the password is at hand:
// callers derive it, seal or open what they need, then drop it.
package secretlock

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/tink/go/subtle/random"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used when none is configured.
	DefaultIterations = 100000
	// SaltSize is the size in bytes of salts returned by NewSalt.
	SaltSize = 16

	verifierPlaintext = "wallet-lock-verifier"
)

// ErrOpen is returned when a sealed value cannot be opened with the given key.
var ErrOpen = errors.New("secretlock: message authentication failed")

// Sealed is a base64url encoded nonce||ciphertext produced by Key.Seal.
type Sealed string

// Key is an AES-GCM key derived from a password.
type Key struct {
	aead cipher.AEAD
}

// NewSalt returns a fresh random salt.
func NewSalt() []byte {
	return random.GetRandomBytes(SaltSize)
}

// DeriveKey expands password into a Key using PBKDF2-SHA256 with the given salt and iterations.
func DeriveKey(password string, salt []byte, iterations int) (*Key, error) {
	if password == "" {
		return nil, fmt.Errorf("secretlock: password is empty")
	}

	if iterations <= 0 {
		iterations = DefaultIterations
	}

	masterKey := pbkdf2.Key([]byte(password), salt, iterations, sha256.Size, sha256.New)

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("secretlock: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secretlock: create gcm: %w", err)
	}

	return &Key{aead: aead}, nil
}

// Seal encrypts plaintext, binding it to aad.
func (k *Key) Seal(plaintext, aad []byte) Sealed {
	nonce := random.GetRandomBytes(uint32(k.aead.NonceSize()))
	ct := k.aead.Seal(nil, nonce, plaintext, aad)

	return Sealed(base64.RawURLEncoding.EncodeToString(append(nonce, ct...)))
}

// Open decrypts a value sealed with the same key and aad.
func (k *Key) Open(s Sealed, aad []byte) ([]byte, error) {
	ct, err := base64.RawURLEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("secretlock: decode sealed value: %w", err)
	}

	nonceSize := k.aead.NonceSize()

	// ensure ciphertext contains more than nonce+ciphertext (result from Seal())
	if len(ct) <= nonceSize {
		return nil, fmt.Errorf("secretlock: sealed value too short")
	}

	pt, err := k.aead.Open(nil, ct[:nonceSize], ct[nonceSize:], aad)
	if err != nil {
		return nil, ErrOpen
	}

	return pt, nil
}

// Verifier returns a sealed marker used to check a password later without holding any secret.
func (k *Key) Verifier() Sealed {
	return k.Seal([]byte(verifierPlaintext), nil)
}

// Verify reports whether v was produced by Verifier of an equal key.
func (k *Key) Verify(v Sealed) bool {
	pt, err := k.Open(v, nil)

	return err == nil && string(pt) == verifierPlaintext
}
