/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package backup seals wallet documents into an encrypted backup envelope and opens it again.
//
// The envelope follows the universal wallet export shape, a credential whose subject carries the
// password encrypted wallet contents as a JWE.
// https://w3c-ccg.github.io/universal-wallet-interop-spec/#encrypted-wallet
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
)

const (
	credentialsContext = "https://www.w3.org/2018/credentials/v1"
	// EncryptedWalletType is the envelope type that marks a wallet backup.
	EncryptedWalletType = "EncryptedWallet"
	credentialType      = "VerifiableCredential"
	contentType         = "application/json"
	pbes2Count          = 100000
)

// Envelope is an encrypted wallet backup.
type Envelope struct {
	Context           []string `json:"@context"`
	ID                string   `json:"id"`
	Type              []string `json:"type"`
	Issuer            string   `json:"issuer,omitempty"`
	IssuanceDate      string   `json:"issuanceDate,omitempty"`
	CredentialSubject *Subject `json:"credentialSubject"`
}

// Subject holds the encrypted wallet contents.
type Subject struct {
	ID                      string          `json:"id,omitempty"`
	EncryptedWalletContents json.RawMessage `json:"encryptedWalletContents"`
}

// Seal encrypts documents with password into a backup envelope issued by issuer.
func Seal(docs []*walletdoc.Document, password, issuer string) (json.RawMessage, error) {
	if password == "" {
		return nil, walleterr.New(walleterr.ValidationError, "backup password is required")
	}

	if docs == nil {
		docs = []*walletdoc.Document{}
	}

	plaintext, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("marshal wallet contents: %w", err)
	}

	encrypter, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{
		Algorithm:  jose.PBES2_HS256_A128KW,
		Key:        []byte(password),
		PBES2Count: pbes2Count,
	}, (&jose.EncrypterOptions{}).WithContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("create backup encrypter: %w", err)
	}

	jwe, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt wallet contents: %w", err)
	}

	id := "urn:uuid:" + uuid.New().String()

	envelope := &Envelope{
		Context:      []string{credentialsContext, walletdoc.ContextV1},
		ID:           id,
		Type:         []string{credentialType, EncryptedWalletType},
		Issuer:       issuer,
		IssuanceDate: time.Now().UTC().Format(time.RFC3339),
		CredentialSubject: &Subject{
			ID:                      id,
			EncryptedWalletContents: json.RawMessage(jwe.FullSerialize()),
		},
	}

	return json.Marshal(envelope)
}

// Open validates the envelope and decrypts its documents.
func Open(data []byte, password string) ([]*walletdoc.Document, error) {
	envelope, err := parse(data)
	if err != nil {
		return nil, err
	}

	if password == "" {
		return nil, walleterr.New(walleterr.ValidationError, "backup password is required")
	}

	jwe, err := jose.ParseEncrypted(string(envelope.CredentialSubject.EncryptedWalletContents))
	if err != nil {
		return nil, walleterr.Wrap(walleterr.InvalidBackup, err, "encryptedWalletContents is not a JWE")
	}

	plaintext, err := jwe.Decrypt([]byte(password))
	if err != nil {
		return nil, walleterr.Wrap(walleterr.InvalidPassword, err, "unable to decrypt wallet backup")
	}

	var docs []*walletdoc.Document
	if err := json.Unmarshal(plaintext, &docs); err != nil {
		return nil, walleterr.Wrap(walleterr.InvalidBackup, err, "wallet backup contents are not wallet documents")
	}

	for _, doc := range docs {
		if err := walletdoc.Validate(doc); err != nil {
			return nil, walleterr.Wrap(walleterr.InvalidBackup, err, "wallet backup holds an invalid document")
		}
	}

	return docs, nil
}

// Validate checks data is a well formed backup envelope without decrypting it.
func Validate(data []byte) error {
	_, err := parse(data)

	return err
}

func parse(data []byte) (*Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, walleterr.Wrap(walleterr.InvalidBackup, err, "wallet backup is not a JSON object")
	}

	if len(raw) == 0 {
		return nil, walleterr.New(walleterr.InvalidBackup, "wallet backup is empty")
	}

	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, walleterr.Wrap(walleterr.InvalidBackup, err, "malformed wallet backup")
	}

	switch {
	case len(envelope.Context) == 0:
		return nil, walleterr.New(walleterr.InvalidBackup, "wallet backup has no @context")
	case envelope.ID == "":
		return nil, walleterr.New(walleterr.InvalidBackup, "wallet backup has no id")
	case !contains(envelope.Type, EncryptedWalletType):
		return nil, walleterr.New(walleterr.InvalidBackup, "wallet backup type must include %s, got %v",
			EncryptedWalletType, envelope.Type)
	case envelope.CredentialSubject == nil:
		return nil, walleterr.New(walleterr.InvalidBackup, "wallet backup has no credentialSubject")
	case len(envelope.CredentialSubject.EncryptedWalletContents) == 0 ||
		string(envelope.CredentialSubject.EncryptedWalletContents) == "null":
		return nil, walleterr.New(walleterr.InvalidBackup, "wallet backup has no encryptedWalletContents")
	}

	return &envelope, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}

	return false
}
