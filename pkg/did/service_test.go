/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

const (
	sampleMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	// did:key test vector of the w3c-ccg did:key method.
	vectorPublicKey = "B12NYF8RrR3h41TDCTJojY59usg3mbtbjnFs7Eud1Y6u"
	vectorDID       = "did:key:z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH"
)

type mockChain struct {
	err error
}

func (m *mockChain) EnsureReady(context.Context) error {
	return m.err
}

type mockSubmitter struct {
	did       string
	publicKey []byte
	err       error
}

func (m *mockSubmitter) SubmitDID(_ context.Context, did string, publicKey []byte) error {
	m.did, m.publicKey = did, publicKey

	return m.err
}

func TestFingerprint(t *testing.T) {
	fp, err := Fingerprint(base58.Decode(vectorPublicKey))
	require.NoError(t, err)
	require.Equal(t, vectorDID, KeyPrefix+fp)

	pub, err := PublicKeyFromDIDKey(vectorDID + "#" + fp)
	require.NoError(t, err)
	require.Equal(t, vectorPublicKey, base58.Encode(pub))

	_, err = Fingerprint([]byte{1, 2, 3})
	require.True(t, walleterr.IsKind(err, walleterr.ValidationError))

	for _, invalid := range []string{"did:web:example.com", "did:key:abc", "did:key:z111"} {
		_, err = PublicKeyFromDIDKey(invalid)
		require.True(t, walleterr.IsKind(err, walleterr.ValidationError), invalid)
	}
}

func TestService_KeypairToDIDKeyDocument(t *testing.T) {
	s := New()

	t.Run("from public key", func(t *testing.T) {
		result, err := s.KeypairToDIDKeyDocument(map[string]interface{}{
			"type":            walletdoc.TypeEd25519VerificationKey,
			"publicKeyBase58": vectorPublicKey,
		})
		require.NoError(t, err)

		doc := result.DIDDocument
		require.Equal(t, vectorDID, doc.ID)
		require.Equal(t, []string{Context}, doc.Context)
		require.Len(t, doc.VerificationMethod, 1)
		require.Equal(t, result.KeyID, doc.VerificationMethod[0].ID)
		require.True(t, strings.HasPrefix(result.KeyID, vectorDID+"#z"))
		require.Equal(t, vectorPublicKey, doc.VerificationMethod[0].PublicKeyBase58)
		require.Equal(t, []string{result.KeyID}, doc.Authentication)
		require.Equal(t, []string{result.KeyID}, doc.AssertionMethod)
		require.Equal(t, []string{result.KeyID}, doc.CapabilityDelegation)
		require.Equal(t, []string{result.KeyID}, doc.CapabilityInvocation)

		again, err := s.KeypairToDIDKeyDocument(map[string]interface{}{"publicKeyBase58": vectorPublicKey})
		require.NoError(t, err)
		require.Same(t, result, again)
	})

	t.Run("from keyring pair document", func(t *testing.T) {
		pair, err := keyring.New().FromMnemonic(sampleMnemonic, "", keyring.ED25519, nil)
		require.NoError(t, err)

		exported, err := pair.ToJSON("")
		require.NoError(t, err)

		doc, err := ToMap(walletdoc.New("pair-1", walletdoc.TypeKeyringPair, exported))
		require.NoError(t, err)

		result, err := s.KeypairToDIDKeyDocument(doc)
		require.NoError(t, err)
		require.Equal(t, base58.Encode(pair.PublicKey()), result.DIDDocument.VerificationMethod[0].PublicKeyBase58)
	})

	t.Run("invalid documents", func(t *testing.T) {
		for _, doc := range []map[string]interface{}{
			nil,
			{"type": "KeyringPair"},
			{"publicKeyBase58": "abc"},
			{"value": map[string]interface{}{"address": "not-an-address"}},
		} {
			_, err := s.KeypairToDIDKeyDocument(doc)
			require.True(t, walleterr.IsKind(err, walleterr.ValidationError))
		}
	})
}

func TestService_GetDIDResolution(t *testing.T) {
	s := New()

	result, err := s.KeypairToDIDKeyDocument(map[string]interface{}{"publicKeyBase58": vectorPublicKey})
	require.NoError(t, err)

	didDoc, err := ToMap(result.DIDDocument)
	require.NoError(t, err)

	resolution, err := s.GetDIDResolution(didDoc, map[string]interface{}{"created": "2021-01-01T00:00:00Z"})
	require.NoError(t, err)
	require.Equal(t, ResolutionContext, resolution.Context)
	require.Equal(t, vectorDID, resolution.DIDDocument["id"])
	require.Equal(t, "2021-01-01T00:00:00Z", resolution.DIDDocument["created"])
	require.NotContains(t, didDoc, "created")

	raw, err := json.Marshal(resolution)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"didResolutionMetadata"`)

	_, err = s.GetDIDResolution(map[string]interface{}{}, nil)
	require.True(t, walleterr.IsKind(err, walleterr.ValidationError))
}

func TestService_GenerateKeyDoc(t *testing.T) {
	s := New()

	keyDoc, err := s.GenerateKeyDoc("", keyring.ED25519)
	require.NoError(t, err)
	require.Equal(t, walletdoc.TypeEd25519VerificationKey, keyDoc.Type)
	require.Equal(t, []string{walletdoc.ContextV1}, keyDoc.Context)
	require.True(t, strings.HasPrefix(keyDoc.Controller, KeyPrefix))
	require.True(t, strings.HasPrefix(keyDoc.ID, keyDoc.Controller+"#"))
	require.Len(t, base58.Decode(keyDoc.PublicKeyBase58), 32)
	require.Len(t, base58.Decode(keyDoc.PrivateKeyBase58), 64)

	pub, err := PublicKeyFromDIDKey(keyDoc.Controller)
	require.NoError(t, err)
	require.Equal(t, keyDoc.PublicKeyBase58, base58.Encode(pub))

	other, err := s.GenerateKeyDoc("//0", "")
	require.NoError(t, err)
	require.NotEqual(t, keyDoc.PublicKeyBase58, other.PublicKeyBase58)

	_, err = s.GenerateKeyDoc("", keyring.SR25519)
	require.True(t, walleterr.IsKind(err, walleterr.ValidationError))
}

func TestService_RegisterDockDID(t *testing.T) {
	ctx := context.Background()

	store := wallet.New()
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	require.NoError(t, store.Create(ctx, "did-test", backend.Memory))

	docs, err := store.CreateAccountDocuments(ctx, &wallet.CreateAccountDocumentsParams{
		Name: "main", Mnemonic: sampleMnemonic,
	})
	require.NoError(t, err)

	address := docs[0].ID

	t.Run("registers", func(t *testing.T) {
		sub := &mockSubmitter{}
		s := New(WithAccountStore(store), WithChain(&mockChain{}), WithSubmitter(sub))

		dockDID, err := s.RegisterDockDID(ctx, address)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(dockDID, DockPrefix))
		require.Equal(t, dockDID, sub.did)

		pub, _, err := keyring.DecodeAddress(address)
		require.NoError(t, err)
		require.Equal(t, pub, sub.publicKey)
	})

	t.Run("blank address", func(t *testing.T) {
		_, err := New(WithAccountStore(store)).RegisterDockDID(ctx, "")
		require.True(t, walleterr.IsKind(err, walleterr.ValidationError))
	})

	t.Run("unknown account", func(t *testing.T) {
		s := New(WithAccountStore(store), WithChain(&mockChain{}), WithSubmitter(&mockSubmitter{}))

		_, err := s.RegisterDockDID(ctx, "unknown")
		require.True(t, walleterr.IsKind(err, walleterr.NotFound))
	})

	t.Run("chain not ready", func(t *testing.T) {
		s := New(WithAccountStore(store), WithSubmitter(&mockSubmitter{}),
			WithChain(&mockChain{err: walleterr.New(walleterr.BackendUnavailable, "not connected")}))

		_, err := s.RegisterDockDID(ctx, address)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))

		_, err = New(WithAccountStore(store)).RegisterDockDID(ctx, address)
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
	})

	t.Run("submit failure", func(t *testing.T) {
		s := New(WithAccountStore(store), WithChain(&mockChain{}),
			WithSubmitter(&mockSubmitter{err: errors.New("extrinsic rejected")}))

		_, err := s.RegisterDockDID(ctx, address)
		require.EqualError(t, errors.Unwrap(err), "extrinsic rejected")
	})

	t.Run("no wallet", func(t *testing.T) {
		_, err := New().RegisterDockDID(ctx, address)
		require.True(t, walleterr.IsKind(err, walleterr.InvalidConfiguration))
	})
}
