/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

const maxSS58Format = 63

func decode(req json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(req)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(trimmed, v); err != nil {
		return walleterr.Wrap(walleterr.ValidationError, err, "invalid request params")
	}

	return nil
}

func checkKeyType(keyType keyring.KeyType) error {
	switch keyType {
	case "", keyring.ED25519, keyring.SR25519, keyring.ECDSA:
		return nil
	}

	return walleterr.New(walleterr.ValidationError, "invalid key type '%s'", keyType)
}

// ValidateInitialize checks initialize params.
func ValidateInitialize(req json.RawMessage) error {
	var r InitializeRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if r.SS58Format != nil && *r.SS58Format > maxSS58Format {
		return walleterr.New(walleterr.ValidationError, "ss58Format must be between 0 and %d", maxSS58Format)
	}

	return nil
}

// ValidateMnemonic checks params deriving a pair from a mnemonic.
func ValidateMnemonic(req json.RawMessage) error {
	var r MnemonicRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if strings.TrimSpace(r.Mnemonic) == "" {
		return walleterr.New(walleterr.ValidationError, "mnemonic is required")
	}

	return checkKeyType(r.Type)
}

// ValidateAddFromJSON checks pair import params.
func ValidateAddFromJSON(req json.RawMessage) error {
	var r AddFromJSONRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(r.JSONData)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return walleterr.New(walleterr.ValidationError, "jsonData must be an exported key pair object")
	}

	return nil
}

// ValidateAddressFromURI checks address lookup params.
func ValidateAddressFromURI(req json.RawMessage) error {
	var r AddressFromURIRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if strings.TrimSpace(r.URI) == "" {
		return walleterr.New(walleterr.ValidationError, "uri is required")
	}

	return checkKeyType(r.Type)
}
