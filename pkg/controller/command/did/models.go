/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

// KeypairToDIDKeyDocumentRequest is request model for building a did:key document.
type KeypairToDIDKeyDocumentRequest struct {
	// Verification key document or KeyringPair document.
	KeypairDoc map[string]interface{} `json:"keypairDoc"`
}

// GetDIDResolutionRequest is request model for wrapping a DID document in a resolution result.
type GetDIDResolutionRequest struct {
	DIDDocument map[string]interface{} `json:"didDocument"`

	// Members merged into the DID document.
	DIDDocumentCustomProp map[string]interface{} `json:"didDocumentCustomProp,omitempty"`
}

// GenerateKeyDocRequest is request model for generating a key document.
type GenerateKeyDocRequest struct {
	DerivePath string          `json:"derivePath,omitempty"`
	Type       keyring.KeyType `json:"type,omitempty"`
}

// RegisterDockDIDRequest is request model for registering a dock DID.
type RegisterDockDIDRequest struct {
	Address string `json:"address"`
}

// RegisterDockDIDResponse is response model of a dock DID registration.
type RegisterDockDIDResponse struct {
	DID string `json:"did"`
}
