/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"encoding/json"

	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

// InitializeRequest is request model for initializing the keyring.
type InitializeRequest struct {
	// SS58 address format of pairs created from now on.
	SS58Format *uint16 `json:"ss58Format,omitempty"`
}

// MnemonicRequest is request model for deriving a pair from a mnemonic.
type MnemonicRequest struct {
	Mnemonic   string                 `json:"mnemonic"`
	DerivePath string                 `json:"derivePath,omitempty"`
	Type       keyring.KeyType        `json:"type,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// AddFromJSONRequest is request model for importing an exported pair.
type AddFromJSONRequest struct {
	JSONData json.RawMessage `json:"jsonData"`
	Password string          `json:"password,omitempty"`
}

// AddressFromURIRequest is request model for resolving the address of a secret URI.
type AddressFromURIRequest struct {
	URI  string          `json:"uri"`
	Type keyring.KeyType `json:"type,omitempty"`
}

// AddressResponse is response model for address lookups.
type AddressResponse struct {
	Address string `json:"address"`
}

// PairResponse is the public view of a key pair.
type PairResponse struct {
	Address   string                 `json:"address"`
	PublicKey string                 `json:"publicKey"`
	Type      keyring.KeyType        `json:"type"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	IsLocked  bool                   `json:"isLocked"`
}
