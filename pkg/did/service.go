/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did builds DID documents for wallet key pairs.
package did

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bluele/gcache"
	"github.com/btcsuite/btcutil/base58"
	"github.com/google/tink/go/subtle/random"
	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

var logger = log.New("wallet/did")

const (
	// KeyPrefix is the did:key method prefix.
	KeyPrefix = "did:key:"
	// DockPrefix is the prefix of DIDs registered on the dock chain.
	DockPrefix = "did:dock:"

	// Context is the DID core JSON-LD context.
	Context = "https://www.w3.org/ns/did/v1"
	// ResolutionContext is the DID resolution JSON-LD context.
	ResolutionContext = "https://w3id.org/did-resolution/v1"

	ed25519PubMulticodec = 0xed
	ed25519PublicKeySize = 32
	seedSize             = 32
	defaultCacheSize     = 100
)

// VerificationMethod is a DID document public key.
type VerificationMethod struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Controller      string `json:"controller"`
	PublicKeyBase58 string `json:"publicKeyBase58"`
}

// Document is a did:key DID document.
type Document struct {
	Context              []string             `json:"@context"`
	ID                   string               `json:"id"`
	VerificationMethod   []VerificationMethod `json:"verificationMethod"`
	Authentication       []string             `json:"authentication"`
	AssertionMethod      []string             `json:"assertionMethod"`
	CapabilityDelegation []string             `json:"capabilityDelegation"`
	CapabilityInvocation []string             `json:"capabilityInvocation"`
}

// KeyDocument is the result of KeypairToDIDKeyDocument.
type KeyDocument struct {
	DIDDocument *Document `json:"didDocument"`
	KeyID       string    `json:"keyId"`
}

// Resolution is a DID resolution result.
type Resolution struct {
	Context               string                 `json:"@context"`
	DIDDocument           map[string]interface{} `json:"didDocument"`
	DIDDocumentMetadata   map[string]interface{} `json:"didDocumentMetadata"`
	DIDResolutionMetadata map[string]interface{} `json:"didResolutionMetadata"`
}

// KeyDoc is a verification key wallet document carrying the key material of a pair.
type KeyDoc struct {
	Context          []string `json:"@context"`
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Controller       string   `json:"controller"`
	PublicKeyBase58  string   `json:"publicKeyBase58"`
	PrivateKeyBase58 string   `json:"privateKeyBase58"`
}

// AccountStore gives access to the key pairs of wallet accounts.
type AccountStore interface {
	AccountKeyPair(ctx context.Context, address string) (*keyring.Pair, error)
}

// Chain reports whether the chain connection is usable.
type Chain interface {
	EnsureReady(ctx context.Context) error
}

// Submitter writes a DID and its controlling public key to the chain.
type Submitter interface {
	SubmitDID(ctx context.Context, did string, publicKey []byte) error
}

// Opt configures a Service.
type Opt func(s *Service)

// WithKeyring sets the keyring generating key docs.
func WithKeyring(k keyring.Provider) Opt {
	return func(s *Service) {
		s.keyring = k
	}
}

// WithAccountStore sets the wallet holding the accounts of RegisterDockDID.
func WithAccountStore(a AccountStore) Opt {
	return func(s *Service) {
		s.accounts = a
	}
}

// WithChain sets the chain connection of RegisterDockDID.
func WithChain(c Chain) Opt {
	return func(s *Service) {
		s.chain = c
	}
}

// WithSubmitter sets the submitter of RegisterDockDID.
func WithSubmitter(sub Submitter) Opt {
	return func(s *Service) {
		s.submitter = sub
	}
}

// WithCacheSize sets the number of DID documents kept by public key.
func WithCacheSize(size int) Opt {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// Service is the DID service.
type Service struct {
	keyring   keyring.Provider
	accounts  AccountStore
	chain     Chain
	submitter Submitter
	cacheSize int
	docs      gcache.Cache
}

// New returns a DID service.
func New(opts ...Opt) *Service {
	s := &Service{cacheSize: defaultCacheSize}

	for _, opt := range opts {
		opt(s)
	}

	if s.keyring == nil {
		s.keyring = keyring.New()
	}

	s.docs = gcache.New(s.cacheSize).LRU().Build()

	return s
}

// Fingerprint returns the did:key method specific id of an ed25519 public key.
func Fingerprint(publicKey []byte) (string, error) {
	if len(publicKey) != ed25519PublicKeySize {
		return "", walleterr.New(walleterr.ValidationError, "ed25519 public key must be %d bytes, got %d",
			ed25519PublicKeySize, len(publicKey))
	}

	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, ed25519PubMulticodec)

	fp, err := multibase.Encode(multibase.Base58BTC, append(buf[:n], publicKey...))
	if err != nil {
		return "", walleterr.Wrap(walleterr.InternalFailure, err, "encode key fingerprint")
	}

	return fp, nil
}

// PublicKeyFromDIDKey returns the ed25519 public key of a did:key DID.
func PublicKeyFromDIDKey(didKey string) ([]byte, error) {
	if !strings.HasPrefix(didKey, KeyPrefix) {
		return nil, walleterr.New(walleterr.ValidationError, "'%s' is not a did:key", didKey)
	}

	fp := strings.TrimPrefix(didKey, KeyPrefix)
	if i := strings.IndexByte(fp, '#'); i >= 0 {
		fp = fp[:i]
	}

	enc, raw, err := multibase.Decode(fp)
	if err != nil || enc != multibase.Base58BTC {
		return nil, walleterr.New(walleterr.ValidationError, "invalid did:key fingerprint '%s'", fp)
	}

	code, n := binary.Uvarint(raw)
	if n <= 0 || code != ed25519PubMulticodec {
		return nil, walleterr.New(walleterr.ValidationError, "unsupported did:key key type in '%s'", didKey)
	}

	if len(raw[n:]) != ed25519PublicKeySize {
		return nil, walleterr.New(walleterr.ValidationError, "invalid did:key public key length in '%s'", didKey)
	}

	return raw[n:], nil
}

// KeypairToDIDKeyDocument builds the did:key document of a keypair document. The keypair document is
// either a verification key document carrying publicKeyBase58 or a KeyringPair document.
func (s *Service) KeypairToDIDKeyDocument(keypairDoc map[string]interface{}) (*KeyDocument, error) {
	pub, err := publicKeyOf(keypairDoc)
	if err != nil {
		return nil, err
	}

	key := base58.Encode(pub)

	if cached, err := s.docs.Get(key); err == nil {
		return cached.(*KeyDocument), nil
	}

	fp, err := Fingerprint(pub)
	if err != nil {
		return nil, err
	}

	didKey := KeyPrefix + fp
	keyID := didKey + "#" + fp

	result := &KeyDocument{
		KeyID: keyID,
		DIDDocument: &Document{
			Context: []string{Context},
			ID:      didKey,
			VerificationMethod: []VerificationMethod{{
				ID:              keyID,
				Type:            walletdoc.TypeEd25519VerificationKey,
				Controller:      didKey,
				PublicKeyBase58: key,
			}},
			Authentication:       []string{keyID},
			AssertionMethod:      []string{keyID},
			CapabilityDelegation: []string{keyID},
			CapabilityInvocation: []string{keyID},
		},
	}

	if err := s.docs.Set(key, result); err != nil {
		logger.Warnf("failed to cache did document %s: %s", didKey, err)
	}

	return result, nil
}

func publicKeyOf(keypairDoc map[string]interface{}) ([]byte, error) {
	if len(keypairDoc) == 0 {
		return nil, walleterr.New(walleterr.ValidationError, "keypair document is required")
	}

	if pub, ok := keypairDoc["publicKeyBase58"].(string); ok && pub != "" {
		raw := base58.Decode(pub)
		if len(raw) != ed25519PublicKeySize {
			return nil, walleterr.New(walleterr.ValidationError, "invalid publicKeyBase58 '%s'", pub)
		}

		return raw, nil
	}

	// a KeyringPair document, or its value, identifies the key by its address.
	source := keypairDoc
	if value, ok := keypairDoc["value"].(map[string]interface{}); ok {
		source = value
	}

	if address, ok := source["address"].(string); ok && address != "" {
		pub, _, err := keyring.DecodeAddress(address)
		if err != nil {
			return nil, walleterr.Wrap(walleterr.ValidationError, err, "keypair document address")
		}

		return pub, nil
	}

	return nil, walleterr.New(walleterr.ValidationError,
		"keypair document carries neither publicKeyBase58 nor an address")
}

// GetDIDResolution wraps didDocument in a resolution result. customProps are merged into the DID
// document, overriding members of the same name.
func (s *Service) GetDIDResolution(didDocument, customProps map[string]interface{}) (*Resolution, error) {
	id, _ := didDocument["id"].(string) //nolint:errcheck
	if strings.TrimSpace(id) == "" {
		return nil, walleterr.New(walleterr.ValidationError, "did document id is required")
	}

	doc := make(map[string]interface{}, len(didDocument)+len(customProps))

	for k, v := range didDocument {
		doc[k] = v
	}

	for k, v := range customProps {
		doc[k] = v
	}

	return &Resolution{
		Context:               ResolutionContext,
		DIDDocument:           doc,
		DIDDocumentMetadata:   map[string]interface{}{},
		DIDResolutionMetadata: map[string]interface{}{"contentType": "application/did+ld+json"},
	}, nil
}

// GenerateKeyDoc derives a key pair from a fresh random seed and returns it as a key document
// controlled by its did:key.
func (s *Service) GenerateKeyDoc(derivePath string, keyType keyring.KeyType) (*KeyDoc, error) {
	pair, err := s.keyring.FromSeed(random.GetRandomBytes(seedSize), derivePath, keyType, nil)
	if err != nil {
		return nil, err
	}

	exported, err := pair.ToJSON("")
	if err != nil {
		return nil, err
	}

	secret, err := base64.StdEncoding.DecodeString(exported.Encoded)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.InternalFailure, err, "decode generated secret")
	}

	fp, err := Fingerprint(pair.PublicKey())
	if err != nil {
		return nil, err
	}

	controller := KeyPrefix + fp

	return &KeyDoc{
		Context:          []string{walletdoc.ContextV1},
		ID:               controller + "#" + fp,
		Type:             walletdoc.TypeEd25519VerificationKey,
		Controller:       controller,
		PublicKeyBase58:  base58.Encode(pair.PublicKey()),
		PrivateKeyBase58: base58.Encode(secret),
	}, nil
}

// RegisterDockDID registers a new dock DID controlled by the key pair of the account at address and
// returns the DID.
func (s *Service) RegisterDockDID(ctx context.Context, address string) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", walleterr.New(walleterr.ValidationError, "address is required")
	}

	if s.accounts == nil {
		return "", walleterr.New(walleterr.InvalidConfiguration, "did service has no wallet")
	}

	pair, err := s.accounts.AccountKeyPair(ctx, address)
	if err != nil {
		return "", err
	}

	if s.chain == nil || s.submitter == nil {
		return "", walleterr.New(walleterr.BackendUnavailable, "no chain connection configured")
	}

	if err := s.chain.EnsureReady(ctx); err != nil {
		return "", err
	}

	id, err := keyring.EncodeAddress(random.GetRandomBytes(ed25519PublicKeySize), keyring.DefaultSS58Format)
	if err != nil {
		return "", walleterr.Wrap(walleterr.InternalFailure, err, "generate dock did")
	}

	dockDID := DockPrefix + id

	logger.Infof("submitting new DID %s for account %s", dockDID, address)

	if err := s.submitter.SubmitDID(ctx, dockDID, pair.PublicKey()); err != nil {
		return "", fmt.Errorf("submit %s: %w", dockDID, err)
	}

	return dockDID, nil
}

// ToMap converts a typed result to the JSON object form accepted by GetDIDResolution.
func ToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.InternalFailure, err, "encode document")
	}

	m := map[string]interface{}{}

	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, walleterr.Wrap(walleterr.InternalFailure, err, "decode document")
	}

	return m, nil
}
