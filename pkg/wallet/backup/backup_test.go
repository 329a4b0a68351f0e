/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package backup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
)

const samplePassword = "backup-pa55word"

func TestSealOpen(t *testing.T) {
	docs := []*walletdoc.Document{
		walletdoc.New("addr", walletdoc.TypeAddress, "addr").SetProperty("name", "main"),
		walletdoc.New("urn:uuid:1", walletdoc.TypeCurrency, 0).SetProperty("symbol", "DOCK"),
	}

	sealed, err := Seal(docs, samplePassword, "did:example:wallet")
	require.NoError(t, err)
	require.NoError(t, Validate(sealed))
	require.NotContains(t, string(sealed), "DOCK")

	var envelope Envelope
	require.NoError(t, json.Unmarshal(sealed, &envelope))
	require.Contains(t, envelope.Type, EncryptedWalletType)
	require.Equal(t, "did:example:wallet", envelope.Issuer)

	t.Run("open with password", func(t *testing.T) {
		opened, err := Open(sealed, samplePassword)
		require.NoError(t, err)
		require.Len(t, opened, 2)
		require.Equal(t, "main", opened[0].Property("name"))
		require.Equal(t, "DOCK", opened[1].Property("symbol"))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := Open(sealed, "wrong")
		require.Equal(t, walleterr.InvalidPassword, walleterr.KindOf(err))
	})

	t.Run("missing passwords", func(t *testing.T) {
		_, err := Open(sealed, "")
		require.Equal(t, walleterr.ValidationError, walleterr.KindOf(err))

		_, err = Seal(docs, "", "")
		require.Equal(t, walleterr.ValidationError, walleterr.KindOf(err))
	})

	t.Run("empty wallet", func(t *testing.T) {
		empty, err := Seal(nil, samplePassword, "")
		require.NoError(t, err)

		opened, err := Open(empty, samplePassword)
		require.NoError(t, err)
		require.Empty(t, opened)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{name: "empty file", data: ``, msg: "not a JSON object"},
		{name: "empty object", data: `{}`, msg: "wallet backup is empty"},
		{name: "array", data: `[]`, msg: "not a JSON object"},
		{name: "no context", data: `{"id":"x"}`, msg: "no @context"},
		{name: "no id", data: `{"@context":["c"]}`, msg: "no id"},
		{name: "wrong type", data: `{"@context":["c"],"id":"x","type":["VerifiableCredential"]}`, msg: "must include"},
		{name: "no subject", data: `{"@context":["c"],"id":"x","type":["EncryptedWallet"]}`, msg: "no credentialSubject"},
		{
			name: "no contents",
			data: `{"@context":["c"],"id":"x","type":["EncryptedWallet"],"credentialSubject":{"id":"x"}}`,
			msg:  "no encryptedWalletContents",
		},
		{name: "malformed type", data: `{"@context":["c"],"type":7}`, msg: "malformed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate([]byte(tc.data))
			require.Error(t, err)
			require.Equal(t, walleterr.InvalidBackup, walleterr.KindOf(err))
			require.Contains(t, err.Error(), tc.msg)
			require.NotEmpty(t, walleterr.MessageOf(err))
		})
	}

	t.Run("contents not a JWE", func(t *testing.T) {
		data := `{"@context":["c"],"id":"x","type":["EncryptedWallet"],` +
			`"credentialSubject":{"encryptedWalletContents":"not-a-jwe"}}`

		require.NoError(t, Validate([]byte(data)))

		_, err := Open([]byte(data), samplePassword)
		require.Equal(t, walleterr.InvalidBackup, walleterr.KindOf(err))
	})
}
