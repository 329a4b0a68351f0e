/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultSS58Format is the address prefix used when none is set.
	DefaultSS58Format = 22
	maxSimpleFormat   = 63
	checksumSize      = 2
	publicKeySize     = 32
)

var ss58Prefix = []byte("SS58PRE") //nolint:gochecknoglobals

func ss58Checksum(data []byte) []byte {
	sum := blake2b.Sum512(append(append([]byte{}, ss58Prefix...), data...))

	return sum[:checksumSize]
}

// EncodeAddress returns the SS58 address of a 32 byte public key.
func EncodeAddress(publicKey []byte, format uint16) (string, error) {
	if len(publicKey) != publicKeySize {
		return "", fmt.Errorf("public key must be %d bytes, got %d", publicKeySize, len(publicKey))
	}

	if format > maxSimpleFormat {
		return "", fmt.Errorf("unsupported ss58 format %d", format)
	}

	data := append([]byte{byte(format)}, publicKey...)

	return base58.Encode(append(data, ss58Checksum(data)...)), nil
}

// DecodeAddress returns the public key and format of an SS58 address.
func DecodeAddress(address string) ([]byte, uint16, error) {
	raw := base58.Decode(address)
	if len(raw) != 1+publicKeySize+checksumSize {
		return nil, 0, fmt.Errorf("invalid address '%s'", address)
	}

	data, sum := raw[:1+publicKeySize], raw[1+publicKeySize:]
	if !bytes.Equal(sum, ss58Checksum(data)) {
		return nil, 0, fmt.Errorf("invalid checksum for address '%s'", address)
	}

	if data[0] > maxSimpleFormat {
		return nil, 0, fmt.Errorf("unsupported ss58 format %d", data[0])
	}

	return data[1:], uint16(data[0]), nil
}
