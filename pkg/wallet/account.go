/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

// CurrencySymbol is the symbol of the currency document created with every account.
const CurrencySymbol = "DOCK"

// CreateAccountDocumentsParams are the inputs of CreateAccountDocuments.
// Exactly one of Mnemonic and JSON is required.
type CreateAccountDocumentsParams struct {
	Name           string          `json:"name"`
	KeyType        keyring.KeyType `json:"type,omitempty"`
	DerivePath     string          `json:"derivePath,omitempty"`
	Mnemonic       string          `json:"mnemonic,omitempty"`
	JSON           json.RawMessage `json:"json,omitempty"`
	Password       string          `json:"password,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// Validate checks the params without touching the wallet.
func (p *CreateAccountDocumentsParams) Validate() error {
	if p == nil {
		return walleterr.New(walleterr.ValidationError, "account params are required")
	}

	if strings.TrimSpace(p.Name) == "" {
		return walleterr.New(walleterr.ValidationError, "account name is required")
	}

	hasMnemonic, hasJSON := strings.TrimSpace(p.Mnemonic) != "", len(p.JSON) > 0

	if hasMnemonic == hasJSON {
		return walleterr.New(walleterr.ValidationError, "exactly one of mnemonic or json is required")
	}

	return nil
}

// FailedDocument is a document a multi-document write could not store.
type FailedDocument struct {
	ID   string
	Type string
	Err  error
}

// PartialWriteError reports which documents of a multi-document write were stored and which failed,
// so the caller can clean up.
type PartialWriteError struct {
	Written []string
	Failed  []FailedDocument
}

func (e *PartialWriteError) Error() string {
	failed := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		failed[i] = fmt.Sprintf("%s (%s): %s", f.ID, f.Type, f.Err)
	}

	return fmt.Sprintf("failed documents [%s], written documents %v", strings.Join(failed, "; "), e.Written)
}

func newContextDoc(id, docType string, value interface{}) *walletdoc.Document {
	doc := walletdoc.New(id, docType, value)
	doc.Context = []string{walletdoc.ContextV1}

	return doc
}

// CreateAccountDocuments derives or imports a key pair and stores its address document together with
// keyring pair, currency and (for mnemonics) mnemonic documents. The address document is written first.
// Result order is address, keyring pair, currency, mnemonic.
func (s *Store) CreateAccountDocuments(ctx context.Context,
	params *CreateAccountDocumentsParams) ([]*walletdoc.Document, error) {
	b, err := s.active(walleterr.NoActiveWallet)
	if err != nil {
		return nil, err
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	// held from the idempotency lookup to the cache write.
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	cacheKey := s.WalletID() + "/" + params.IdempotencyKey

	if params.IdempotencyKey != "" {
		if docs, ok := s.idempotency.Get(cacheKey); ok {
			logger.Debugf("account documents for idempotency key %s served from cache", params.IdempotencyKey)

			return docs.([]*walletdoc.Document), nil
		}
	}

	if err := s.requireUnlocked(ctx, b); err != nil {
		return nil, err
	}

	pair, err := s.accountPair(params)
	if err != nil {
		return nil, err
	}

	pairJSON, err := pair.ToJSON("")
	if err != nil {
		return nil, err
	}

	correlations := []*walletdoc.Document{
		newContextDoc(uuid.NewString(), walletdoc.TypeKeyringPair, pairJSON),
		newContextDoc(uuid.NewString(), walletdoc.TypeCurrency, 0).SetProperty("symbol", CurrencySymbol),
	}

	if params.Mnemonic != "" {
		correlations = append(correlations,
			newContextDoc(uuid.NewString(), walletdoc.TypeMnemonic, strings.TrimSpace(params.Mnemonic)))
	}

	address := newContextDoc(pair.Address(), walletdoc.TypeAddress, pair.Address()).
		SetProperty("address", pair.Address()).
		SetProperty("name", params.Name)

	for _, c := range correlations {
		address.Correlation = append(address.Correlation, c.ID)
	}

	if err := writeAccount(ctx, b, address, correlations); err != nil {
		return nil, err
	}

	docs := append([]*walletdoc.Document{address}, correlations...)

	if params.IdempotencyKey != "" {
		s.idempotency.Set(cacheKey, docs, cache.DefaultExpiration)
	}

	logger.Infof("created account %s with %d correlated documents", address.ID, len(correlations))

	return docs, nil
}

func (s *Store) accountPair(params *CreateAccountDocumentsParams) (*keyring.Pair, error) {
	if params.Mnemonic != "" {
		return s.keyring.FromMnemonic(strings.TrimSpace(params.Mnemonic), params.DerivePath, params.KeyType,
			map[string]interface{}{"name": params.Name})
	}

	pair, err := s.keyring.FromJSON(params.JSON, params.Password)
	if err != nil {
		return nil, err
	}

	if pair.IsLocked() {
		return nil, walleterr.New(walleterr.ValidationError, "password is required to import encrypted pair %s",
			pair.Address())
	}

	return pair, nil
}

// requireUnlocked fails before any write when the keyring pair of a new account could not be stored.
func (s *Store) requireUnlocked(ctx context.Context, b backend.Backend) error {
	status, err := b.Status(ctx)
	if err != nil {
		return err
	}

	if status == backend.StatusLocked {
		return walleterr.New(walleterr.WalletLocked, "wallet %s is locked, unlock it to create account documents",
			s.WalletID())
	}

	return nil
}

// writeAccount stores the address document, then the correlation documents concurrently.
// The caller holds writeMutex.
func writeAccount(ctx context.Context, b backend.Backend, address *walletdoc.Document,
	correlations []*walletdoc.Document) error {
	if err := b.Add(ctx, address); err != nil {
		return walleterr.Wrap(walleterr.KindOf(err), &PartialWriteError{
			Failed: []FailedDocument{{ID: address.ID, Type: address.Type, Err: err}},
		}, "create account documents")
	}

	var (
		mutex  sync.Mutex
		failed []FailedDocument
		group  errgroup.Group
	)

	written := make([]bool, len(correlations))

	for i, doc := range correlations {
		i, doc := i, doc

		group.Go(func() error {
			err := b.Add(ctx, doc)
			if err != nil {
				mutex.Lock()
				failed = append(failed, FailedDocument{ID: doc.ID, Type: doc.Type, Err: err})
				mutex.Unlock()

				return err
			}

			written[i] = true

			return nil
		})
	}

	firstErr := group.Wait()
	if firstErr == nil {
		return nil
	}

	partial := &PartialWriteError{Written: []string{address.ID}, Failed: failed}

	for i, ok := range written {
		if ok {
			partial.Written = append(partial.Written, correlations[i].ID)
		}
	}

	logger.Errorf("account %s partially written: %s", address.ID, partial)

	return walleterr.Wrap(walleterr.KindOf(firstErr), partial, "create account documents")
}

// ExportAccount returns the keyring pair of the account at address exported with password.
func (s *Store) ExportAccount(ctx context.Context, address, password string) (*keyring.PairJSON, error) {
	pair, err := s.AccountKeyPair(ctx, address)
	if err != nil {
		return nil, err
	}

	return pair.ToJSON(password)
}

// AccountKeyPair loads the key pair correlated to the account at address.
func (s *Store) AccountKeyPair(ctx context.Context, address string) (*keyring.Pair, error) {
	if _, err := s.active(walleterr.NoActiveWallet); err != nil {
		return nil, err
	}

	if strings.TrimSpace(address) == "" {
		return nil, walleterr.New(walleterr.ValidationError, "account address is required")
	}

	docs, err := s.ResolveCorrelations(ctx, address)
	if err != nil {
		return nil, err
	}

	pairDoc := findType(docs[1:], walletdoc.TypeKeyringPair)
	if pairDoc == nil {
		return nil, walleterr.New(walleterr.NotFound, "keypair document not found for account %s", address)
	}

	raw, err := json.Marshal(pairDoc.Value)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.InternalFailure, err, "encode keypair document %s", pairDoc.ID)
	}

	return s.keyring.FromJSON(raw, "")
}
