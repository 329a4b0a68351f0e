/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/pbkdf2"
)

const (
	seedIterations = 2048
	seedSize       = 64
	chainCodeSize  = 32
	hexSeedSize    = 32
)

// junction is one segment of a derivation path, "//name" is hard and "/name" is soft.
type junction struct {
	hard      bool
	chainCode [chainCodeSize]byte
}

// parsePath splits a derivation path such as "//polkadot//0///secret" into its junctions and password.
func parsePath(path string) ([]junction, string, error) {
	var password string

	if idx := strings.Index(path, "///"); idx >= 0 {
		password = path[idx+3:]
		path = path[:idx]
	}

	var junctions []junction

	for path != "" {
		if !strings.HasPrefix(path, "/") {
			return nil, "", fmt.Errorf("invalid derivation path near '%s'", path)
		}

		hard := strings.HasPrefix(path, "//")
		path = strings.TrimLeft(path, "/")

		name := path
		if idx := strings.Index(path, "/"); idx >= 0 {
			name, path = path[:idx], path[idx:]
		} else {
			path = ""
		}

		if name == "" {
			return nil, "", fmt.Errorf("empty junction in derivation path")
		}

		junctions = append(junctions, junction{hard: hard, chainCode: chainCode(name)})
	}

	return junctions, password, nil
}

// chainCode encodes numeric junctions as little endian u64 and others as length prefixed strings,
// hashing anything longer than a chain code.
func chainCode(name string) [chainCodeSize]byte {
	var code [chainCodeSize]byte

	var raw []byte

	if n, err := strconv.ParseUint(name, 10, 64); err == nil {
		raw = make([]byte, 8) //nolint:gomnd
		binary.LittleEndian.PutUint64(raw, n)
	} else {
		raw = scaleString(name)
	}

	if len(raw) > chainCodeSize {
		sum := blake2b.Sum256(raw)

		return sum
	}

	copy(code[:], raw)

	return code
}

// scaleString prefixes s with its compact length, enough for strings shorter than 64 bytes.
func scaleString(s string) []byte {
	if len(s) < 64 { //nolint:gomnd
		return append([]byte{byte(len(s) << 2)}, s...)
	}

	l := uint16(len(s)<<2) | 1 //nolint:gomnd

	return append([]byte{byte(l), byte(l >> 8)}, s...) //nolint:gomnd
}

func deriveHard(seed []byte, code [chainCodeSize]byte) []byte {
	h, _ := blake2b.New256(nil) //nolint:errcheck // only fails for keys over 64 bytes

	h.Write(scaleString("Ed25519HDKD"))
	h.Write(seed)
	h.Write(code[:])

	return h.Sum(nil)
}

// mnemonicWords normalizes a mnemonic phrase and checks its word count.
func mnemonicWords(mnemonic string) (string, error) {
	words := strings.Fields(mnemonic)

	switch len(words) {
	case 12, 15, 18, 21, 24: //nolint:gomnd
		return strings.Join(words, " "), nil
	}

	return "", fmt.Errorf("mnemonic must have 12, 15, 18, 21 or 24 words, got %d", len(words))
}

// mnemonicSeed expands a mnemonic phrase into a 32 byte mini secret.
func mnemonicSeed(phrase, password string) []byte {
	seed := pbkdf2.Key([]byte(phrase), []byte("mnemonic"+password), seedIterations, seedSize, sha512.New)

	return seed[:hexSeedSize]
}

// hexSeed decodes a "0x" prefixed 32 byte seed.
func hexSeed(s string) ([]byte, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(seed) != hexSeedSize {
		return nil, fmt.Errorf("seed must be 0x followed by %d hex encoded bytes", hexSeedSize)
	}

	return seed, nil
}
