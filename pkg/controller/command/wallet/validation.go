/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backup"
)

// decode unmarshals params, treating absent params as an empty object.
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

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return walleterr.New(walleterr.ValidationError, "%s is required", name)
	}

	return nil
}

// ValidateCreate checks create params.
func ValidateCreate(req json.RawMessage) error {
	var r CreateRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if err := required("walletId", r.WalletID); err != nil {
		return err
	}

	_, err := backend.ParseType(string(r.Type))

	return err
}

// ValidatePassword checks params carrying a mandatory password.
func ValidatePassword(req json.RawMessage) error {
	var r PasswordRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	return required("password", r.Password)
}

// ValidateUnlock checks unlock params. A blank password is left to the wallet, which reports InvalidPassword.
func ValidateUnlock(req json.RawMessage) error {
	return decode(req, &PasswordRequest{})
}

// ValidateDocument checks add and update params.
func ValidateDocument(req json.RawMessage) error {
	doc := &walletdoc.Document{}

	if err := decode(req, doc); err != nil {
		return err
	}

	return walletdoc.Validate(doc)
}

// ValidateRemove checks remove params, only the document id is needed.
func ValidateRemove(req json.RawMessage) error {
	doc := &walletdoc.Document{}

	if err := decode(req, doc); err != nil {
		return err
	}

	return required("document id", doc.ID)
}

// ValidateQuery checks query params, including the JSONPath expression.
func ValidateQuery(req json.RawMessage) error {
	q := &walletdoc.Query{}

	if err := decode(req, q); err != nil {
		return err
	}

	_, err := q.Compile()

	return err
}

// ValidateDocumentID checks params addressing a document by id.
func ValidateDocumentID(req json.RawMessage) error {
	var r DocumentIDRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	return required("document id", r.ID)
}

// ValidateCreateAccountDocuments checks account creation params.
func ValidateCreateAccountDocuments(req json.RawMessage) error {
	params := &wallet.CreateAccountDocumentsParams{}

	if err := decode(req, params); err != nil {
		return err
	}

	return params.Validate()
}

// ValidateExportAccount checks account export params.
func ValidateExportAccount(req json.RawMessage) error {
	var r ExportAccountRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if err := required("address", r.Address); err != nil {
		return err
	}

	return required("password", r.Password)
}

// ValidateImportWallet checks import params. The backup envelope is untrusted, so it is validated here.
func ValidateImportWallet(req json.RawMessage) error {
	var r ImportWalletRequest

	if err := decode(req, &r); err != nil {
		return err
	}

	if err := backup.Validate(r.Data); err != nil {
		return err
	}

	return required("password", r.Password)
}
