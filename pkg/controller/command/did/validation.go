/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

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

// ValidateKeypairToDIDKeyDocument checks did:key document params.
func ValidateKeypairToDIDKeyDocument(req json.RawMessage) error {
	var r KeypairToDIDKeyDocumentRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if len(r.KeypairDoc) == 0 {
		return walleterr.New(walleterr.ValidationError, "keypairDoc is required")
	}

	return nil
}

// ValidateGetDIDResolution checks DID resolution params.
func ValidateGetDIDResolution(req json.RawMessage) error {
	var r GetDIDResolutionRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if r.DIDDocument == nil {
		return walleterr.New(walleterr.ValidationError, "didDocument is required")
	}

	if id, _ := r.DIDDocument["id"].(string); strings.TrimSpace(id) == "" { //nolint:errcheck
		return walleterr.New(walleterr.ValidationError, "didDocument id is required")
	}

	return nil
}

// ValidateGenerateKeyDoc checks key document params.
func ValidateGenerateKeyDoc(req json.RawMessage) error {
	var r GenerateKeyDocRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	switch r.Type {
	case "", keyring.ED25519, keyring.SR25519, keyring.ECDSA:
		return nil
	}

	return walleterr.New(walleterr.ValidationError, "invalid key type '%s'", r.Type)
}

// ValidateRegisterDockDID checks dock DID registration params.
func ValidateRegisterDockDID(req json.RawMessage) error {
	var r RegisterDockDIDRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if strings.TrimSpace(r.Address) == "" {
		return walleterr.New(walleterr.ValidationError, "address is required")
	}

	return nil
}
