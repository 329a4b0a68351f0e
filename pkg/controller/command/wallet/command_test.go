/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend/memstore"
)

const (
	sampleWalletID = "sample-wallet"
	samplePassword = "sample-pa55word"
	sampleMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

type mockProvider struct {
	store *wallet.Store
}

func (m *mockProvider) WalletStore() *wallet.Store {
	return m.store
}

func newMockProvider(t *testing.T) *mockProvider {
	t.Helper()

	store := wallet.New(
		wallet.WithKeyring(keyring.New(keyring.WithScryptParams(keyring.ScryptParams{N: 1 << 10, R: 8, P: 1}))),
		wallet.WithMemoryStoreOptions(memstore.WithKDFIterations(1000)),
	)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return &mockProvider{store: store}
}

func getReader(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(raw)
}

func handlerFor(t *testing.T, cmd *Command, method string) command.Handler {
	t.Helper()

	for _, h := range cmd.GetHandlers() {
		if h.Method() == method {
			return h
		}
	}

	require.FailNow(t, "handler not found", method)

	return nil
}

func createWallet(t *testing.T, cmd *Command) {
	t.Helper()

	var b bytes.Buffer

	cmdErr := cmd.Create(context.Background(), &b,
		getReader(t, &CreateRequest{WalletID: sampleWalletID, Type: backend.Memory}))
	require.NoError(t, cmdErr)
}

func TestNew(t *testing.T) {
	cmd := New(newMockProvider(t))
	require.NotNil(t, cmd)

	handlers := cmd.GetHandlers()
	require.Len(t, handlers, 18)

	seen := map[string]bool{}

	for _, h := range handlers {
		require.Equal(t, CommandName, h.Name())
		require.False(t, seen[h.Method()], h.Method())
		require.NotNil(t, h.Handle())

		seen[h.Method()] = true
	}
}

func TestCommand_Validators(t *testing.T) {
	cmd := New(newMockProvider(t))

	t.Run("mutating methods report a missing wallet first", func(t *testing.T) {
		for _, method := range []string{AddMethod, UpdateMethod, RemoveMethod, QueryMethod, ImportWalletMethod} {
			err := handlerFor(t, cmd, method).Validator()(json.RawMessage(`{}`))
			require.True(t, walleterr.IsKind(err, walleterr.NoActiveWallet), method)
		}

		err := handlerFor(t, cmd, LockMethod).Validator()(json.RawMessage(`{}`))
		require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
	})

	createWallet(t, cmd)

	tests := []struct {
		method string
		params string
		kind   walleterr.Kind
	}{
		{CreateMethod, `{"walletId":"w"}`, walleterr.InvalidConfiguration},
		{CreateMethod, `{"type":"memory"}`, walleterr.ValidationError},
		{LockMethod, `{}`, walleterr.ValidationError},
		{AddMethod, `{"id":"x"}`, walleterr.ValidationError},
		{AddMethod, `[1,2]`, walleterr.ValidationError},
		{UpdateMethod, `{"id":"x","type":"Address","correlation":["x"]}`, walleterr.ValidationError},
		{RemoveMethod, `{}`, walleterr.ValidationError},
		{QueryMethod, `{"jsonPath":"$.correlation["}`, walleterr.ValidationError},
		{GetDocumentByIDMethod, `{}`, walleterr.ValidationError},
		{ResolveCorrelationsMethod, `{"id":" "}`, walleterr.ValidationError},
		{CreateAccountDocumentsMethod, `{"name":"a"}`, walleterr.ValidationError},
		{ExportAccountMethod, `{"address":"a"}`, walleterr.ValidationError},
		{ExportWalletMethod, `{}`, walleterr.ValidationError},
		{ImportWalletMethod, `{"data":{},"password":"p"}`, walleterr.InvalidBackup},
		{ImportWalletMethod, `{"password":"p"}`, walleterr.InvalidBackup},
	}

	for _, tc := range tests {
		err := handlerFor(t, cmd, tc.method).Validator()(json.RawMessage(tc.params))
		require.True(t, walleterr.IsKind(err, tc.kind), "%s %s: %v", tc.method, tc.params, err)
	}

	require.NoError(t, handlerFor(t, cmd, UnlockMethod).Validator()(nil))
	require.NoError(t, handlerFor(t, cmd, QueryMethod).Validator()(json.RawMessage(`{"type":"Address"}`)))
}

func TestCommand_Documents(t *testing.T) {
	ctx := context.Background()
	cmd := New(newMockProvider(t))

	t.Run("add before create", func(t *testing.T) {
		var b bytes.Buffer

		cmdErr := cmd.Add(ctx, &b, getReader(t, walletdoc.New("doc-1", walletdoc.TypeCurrency, 0)))
		require.Error(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Equal(t, AddErrorCode, cmdErr.Code())
		require.Equal(t, walleterr.NoActiveWallet, cmdErr.Kind())
	})

	createWallet(t, cmd)

	root := walletdoc.New("root", walletdoc.TypeAddress, "root")
	root.Correlation = []string{"leaf"}

	for _, doc := range []*walletdoc.Document{root, walletdoc.New("leaf", walletdoc.TypeCurrency, 0)} {
		var b bytes.Buffer

		require.NoError(t, cmd.Add(ctx, &b, getReader(t, doc)))
		require.Equal(t, "{}\n", b.String())
	}

	t.Run("get by id", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.GetDocumentByID(ctx, &b, getReader(t, &DocumentIDRequest{ID: "root"})))

		doc := &walletdoc.Document{}
		require.NoError(t, json.Unmarshal(b.Bytes(), doc))
		require.Equal(t, "root", doc.Value)
	})

	t.Run("get missing document", func(t *testing.T) {
		var b bytes.Buffer

		cmdErr := cmd.GetDocumentByID(ctx, &b, getReader(t, &DocumentIDRequest{ID: "nope"}))
		require.Equal(t, walleterr.NotFound, cmdErr.Kind())
	})

	t.Run("resolve correlations", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.ResolveCorrelations(ctx, &b, getReader(t, &DocumentIDRequest{ID: "root"})))

		var docs []*walletdoc.Document
		require.NoError(t, json.Unmarshal(b.Bytes(), &docs))
		require.Len(t, docs, 2)
		require.Equal(t, "leaf", docs[1].ID)
	})

	t.Run("query and toJSON", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.Query(ctx, &b, getReader(t, &walletdoc.Query{Type: walletdoc.TypeCurrency})))

		var docs []*walletdoc.Document
		require.NoError(t, json.Unmarshal(b.Bytes(), &docs))
		require.Len(t, docs, 1)

		b.Reset()
		require.NoError(t, cmd.ToJSON(ctx, &b, nil))
		require.NoError(t, json.Unmarshal(b.Bytes(), &docs))
		require.Len(t, docs, 2)
	})

	t.Run("update and remove", func(t *testing.T) {
		var b bytes.Buffer

		require.NoError(t, cmd.Update(ctx, &b, getReader(t, walletdoc.New("leaf", walletdoc.TypeCurrency, 10))))
		require.NoError(t, cmd.Remove(ctx, &b, getReader(t, &walletdoc.Document{ID: "leaf"})))

		cmdErr := cmd.Remove(ctx, &b, getReader(t, &walletdoc.Document{ID: "leaf"}))
		require.Equal(t, walleterr.NotFound, cmdErr.Kind())

		require.NoError(t, cmd.RemoveAll(ctx, &b, nil))
	})

	t.Run("invalid request", func(t *testing.T) {
		var b bytes.Buffer

		cmdErr := cmd.Add(ctx, &b, bytes.NewBufferString("--"))
		require.Equal(t, command.ValidationError, cmdErr.Type())
		require.Equal(t, InvalidRequestErrorCode, cmdErr.Code())
		require.Equal(t, walleterr.ValidationError, cmdErr.Kind())
	})
}

func TestCommand_Lifecycle(t *testing.T) {
	ctx := context.Background()
	cmd := New(newMockProvider(t))

	var b bytes.Buffer

	cmdErr := cmd.Status(ctx, &b, nil)
	require.Equal(t, walleterr.BackendUnavailable, cmdErr.Kind())

	createWallet(t, cmd)

	require.NoError(t, cmd.Load(ctx, &b, nil))
	require.NoError(t, cmd.Sync(ctx, &b, nil))

	b.Reset()
	require.NoError(t, cmd.CreateAccountDocuments(ctx, &b, getReader(t, &wallet.CreateAccountDocumentsParams{
		Name: "main", Mnemonic: sampleMnemonic,
	})))

	var docs []*walletdoc.Document
	require.NoError(t, json.Unmarshal(b.Bytes(), &docs))
	require.Len(t, docs, 4)

	require.NoError(t, cmd.Lock(ctx, &b, getReader(t, &PasswordRequest{Password: samplePassword})))

	b.Reset()
	require.NoError(t, cmd.Status(ctx, &b, nil))

	status := &StatusResponse{}
	require.NoError(t, json.Unmarshal(b.Bytes(), status))
	require.Equal(t, backend.StatusLocked, status.Status)

	cmdErr = cmd.Unlock(ctx, &b, getReader(t, &PasswordRequest{Password: "wrong"}))
	require.Equal(t, walleterr.InvalidPassword, cmdErr.Kind())
	require.Equal(t, LockErrorCode, cmdErr.Code())

	require.NoError(t, cmd.Unlock(ctx, &b, getReader(t, &PasswordRequest{Password: samplePassword})))

	t.Run("export account", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, cmd.ExportAccount(ctx, &out, getReader(t, &ExportAccountRequest{
			Address: docs[0].ID, Password: samplePassword,
		})))

		exported := &keyring.PairJSON{}
		require.NoError(t, json.Unmarshal(out.Bytes(), exported))
		require.Equal(t, docs[0].ID, exported.Address)
	})

	t.Run("export and import wallet", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, cmd.ExportWallet(ctx, &out, getReader(t, &PasswordRequest{Password: samplePassword})))

		data := json.RawMessage(bytes.TrimSpace(out.Bytes()))

		other := New(newMockProvider(t))
		createWallet(t, other)

		var b bytes.Buffer

		cmdErr := other.ImportWallet(ctx, &b, getReader(t, &ImportWalletRequest{Data: data, Password: "wrong"}))
		require.Equal(t, walleterr.InvalidPassword, cmdErr.Kind())
		require.Equal(t, ImportErrorCode, cmdErr.Code())

		require.NoError(t, other.ImportWallet(ctx, &b, getReader(t, &ImportWalletRequest{
			Data: data, Password: samplePassword,
		})))

		b.Reset()
		require.NoError(t, other.ToJSON(ctx, &b, nil))

		var restored []*walletdoc.Document
		require.NoError(t, json.Unmarshal(b.Bytes(), &restored))
		require.Len(t, restored, 4)
	})
}
