/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

const (
	sampleMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	samplePassword = "sample-pa55word"
)

type mockProvider struct {
	keyring *keyring.Keyring
}

func (m *mockProvider) Keyring() *keyring.Keyring {
	return m.keyring
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		keyring: keyring.New(keyring.WithScryptParams(keyring.ScryptParams{N: 1 << 10, R: 8, P: 1})),
	}
}

func getReader(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(raw)
}

func TestNew(t *testing.T) {
	cmd := New(newMockProvider())
	require.NotNil(t, cmd)
	require.Len(t, cmd.GetHandlers(), 5)
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate command.Validator
		params   string
		valid    bool
	}{
		{"initialize empty", ValidateInitialize, ``, true},
		{"initialize format", ValidateInitialize, `{"ss58Format":42}`, true},
		{"initialize bad format", ValidateInitialize, `{"ss58Format":64}`, false},
		{"mnemonic missing", ValidateMnemonic, `{}`, false},
		{"mnemonic bad type", ValidateMnemonic, `{"mnemonic":"a b c","type":"rsa"}`, false},
		{"mnemonic", ValidateMnemonic, `{"mnemonic":"a b c","type":"ed25519"}`, true},
		{"json missing", ValidateAddFromJSON, `{"password":"p"}`, false},
		{"json not an object", ValidateAddFromJSON, `{"jsonData":"x"}`, false},
		{"json", ValidateAddFromJSON, `{"jsonData":{"address":"a"}}`, true},
		{"uri missing", ValidateAddressFromURI, `{"type":"ed25519"}`, false},
		{"malformed", ValidateAddressFromURI, `{"uri":`, false},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			err := tc.validate(json.RawMessage(tc.params))
			if tc.valid {
				require.NoError(t, err)

				return
			}

			require.True(t, walleterr.IsKind(err, walleterr.ValidationError))
		})
	}
}

func TestCommand_Pairs(t *testing.T) {
	ctx := context.Background()
	p := newMockProvider()
	cmd := New(p)

	t.Run("initialize", func(t *testing.T) {
		var b bytes.Buffer

		format := uint16(42)
		require.NoError(t, cmd.Initialize(ctx, &b, getReader(t, &InitializeRequest{SS58Format: &format})))
		require.Equal(t, format, p.keyring.SS58Format())

		format = 99
		cmdErr := cmd.Initialize(ctx, &b, getReader(t, &InitializeRequest{SS58Format: &format}))
		require.Equal(t, InitializeErrorCode, cmdErr.Code())
		require.Equal(t, walleterr.ValidationError, cmdErr.Kind())
	})

	var added PairResponse

	t.Run("add from mnemonic", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.AddFromMnemonic(ctx, &b, getReader(t, &MnemonicRequest{
			Mnemonic: sampleMnemonic, Meta: map[string]interface{}{"name": "main"},
		})))
		require.NoError(t, json.Unmarshal(b.Bytes(), &added))
		require.NotEmpty(t, added.Address)
		require.NotEmpty(t, added.PublicKey)
		require.Equal(t, keyring.ED25519, added.Type)
		require.False(t, added.IsLocked)

		_, err := p.keyring.GetPair(added.Address)
		require.NoError(t, err)
	})

	t.Run("get keyring pair does not keep the pair", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.GetKeyringPair(ctx, &b, getReader(t, &MnemonicRequest{
			Mnemonic: sampleMnemonic, DerivePath: "//0",
		})))

		var derived PairResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &derived))
		require.NotEqual(t, added.Address, derived.Address)

		_, err := p.keyring.GetPair(derived.Address)
		require.True(t, walleterr.IsKind(err, walleterr.NotFound))
	})

	t.Run("unsupported key type", func(t *testing.T) {
		var b bytes.Buffer

		cmdErr := cmd.AddFromMnemonic(ctx, &b, getReader(t, &MnemonicRequest{
			Mnemonic: sampleMnemonic, Type: keyring.SR25519,
		}))
		require.Equal(t, AddPairErrorCode, cmdErr.Code())
		require.Equal(t, walleterr.ValidationError, cmdErr.Kind())
	})

	t.Run("add from json", func(t *testing.T) {
		pair, err := p.keyring.FromMnemonic(sampleMnemonic, "//json", keyring.ED25519, nil)
		require.NoError(t, err)

		exported, err := pair.ToJSON(samplePassword)
		require.NoError(t, err)

		raw, err := json.Marshal(exported)
		require.NoError(t, err)

		var b bytes.Buffer

		require.NoError(t, cmd.AddFromJSON(ctx, &b, getReader(t, &AddFromJSONRequest{JSONData: raw})))

		var locked PairResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &locked))
		require.Equal(t, pair.Address(), locked.Address)
		require.True(t, locked.IsLocked)

		cmdErr := cmd.AddFromJSON(ctx, &b, getReader(t, &AddFromJSONRequest{JSONData: raw, Password: "wrong"}))
		require.Equal(t, walleterr.InvalidPassword, cmdErr.Kind())
	})

	t.Run("address from uri", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.AddressFromURI(ctx, &b, getReader(t, &AddressFromURIRequest{URI: sampleMnemonic})))

		var resp AddressResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, added.Address, resp.Address)
	})
}
