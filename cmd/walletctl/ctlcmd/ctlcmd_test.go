/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ctlcmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command/dock"
	keyringcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rest"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/framework/context"
)

const (
	sampleToken    = "sample-token"
	sampleMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
)

func newAgent(t *testing.T) string {
	t.Helper()

	ctx, err := context.New()
	require.NoError(t, err)

	handlers, err := controller.GetRESTHandlers(ctx)
	require.NoError(t, err)

	srv := httptest.NewServer(rest.NewRouter(sampleToken, handlers...))

	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, ctx.Close())
	})

	return srv.URL
}

// walletctl runs one command and returns what it printed.
func walletctl(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := Cmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func writeJSON(t *testing.T, v interface{}) string {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	return path
}

func TestWalletCommands(t *testing.T) {
	for _, transport := range []string{httpTransport, wsTransport} {
		transport := transport

		t.Run(transport, func(t *testing.T) {
			url := newAgent(t)

			run := func(stdin string, args ...string) (string, error) {
				return walletctl(t, stdin, append([]string{"--url", url, "--token", sampleToken,
					"--transport", transport}, args...)...)
			}

			_, err := run("", "wallet", "add", "-")
			require.Error(t, err)
			require.Contains(t, err.Error(), "decode -")

			raw, err := json.Marshal(walletdoc.New("a", walletdoc.TypeCurrency, 0))
			require.NoError(t, err)

			_, err = run(string(raw), "wallet", "add", "-")
			require.True(t, walleterr.IsKind(err, walleterr.NoActiveWallet))

			_, err = run("", "wallet", "create")
			require.Error(t, err)
			require.Contains(t, err.Error(), "--wallet-id is required")

			_, err = run("", "--wallet-id", "w1", "wallet", "create")
			require.NoError(t, err)

			out, err := run("", "wallet", "status")
			require.NoError(t, err)
			require.JSONEq(t, `{"status":"unlocked"}`, out)

			doc := walletdoc.New("a", walletdoc.TypeCurrency, 0)
			doc.Correlation = []string{"b"}

			_, err = run("", "wallet", "add", writeJSON(t, walletdoc.New("b", walletdoc.TypeAddress, "5Grw")))
			require.NoError(t, err)

			_, err = run("", "wallet", "add", writeJSON(t, doc))
			require.NoError(t, err)

			out, err = run("", "wallet", "resolve", "a")
			require.NoError(t, err)

			var resolved []*walletdoc.Document
			require.NoError(t, json.Unmarshal([]byte(out), &resolved))
			require.Len(t, resolved, 2)
			require.Equal(t, "b", resolved[1].ID)

			out, err = run("", "wallet", "query", "--type", walletdoc.TypeAddress)
			require.NoError(t, err)

			var found []*walletdoc.Document
			require.NoError(t, json.Unmarshal([]byte(out), &found))
			require.Len(t, found, 1)

			_, err = run("", "wallet", "get", "missing")
			require.True(t, walleterr.IsKind(err, walleterr.NotFound))

			out, err = run("", "wallet", "export", "--password", "backup-pass")
			require.NoError(t, err)

			_, err = run("", "wallet", "remove-all")
			require.NoError(t, err)

			_, err = run(out, "wallet", "import", "-", "--password", "backup-pass")
			require.NoError(t, err)

			out, err = run("", "wallet", "to-json")
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal([]byte(out), &found))
			require.Len(t, found, 2)
		})
	}
}

func TestAccountCommands(t *testing.T) {
	url := newAgent(t)

	run := func(stdin string, args ...string) (string, error) {
		return walletctl(t, stdin, append([]string{"--url", url, "--token", sampleToken}, args...)...)
	}

	_, err := run("", "--wallet-id", "w1", "wallet", "create")
	require.NoError(t, err)

	out, err := run("", "wallet", "create-accounts", writeJSON(t, map[string]string{
		"name": "savings", "mnemonic": sampleMnemonic,
	}))
	require.NoError(t, err)

	var docs []*walletdoc.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 4)

	address := docs[0].ID

	out, err = run("", "wallet", "export-account", address, "--password", "pair-pass")
	require.NoError(t, err)

	_, err = run("", "keyring", "initialize", "--ss58-format", "42")
	require.NoError(t, err)

	imported, err := run(out, "keyring", "add-json", "-", "--password", "pair-pass")
	require.NoError(t, err)

	pair := &keyringcmd.PairResponse{}
	require.NoError(t, json.Unmarshal([]byte(imported), pair))
	require.Equal(t, address, pair.Address)

	out, err = run("", "keyring", "address", sampleMnemonic+"//hard")
	require.NoError(t, err)
	require.Contains(t, out, `"address"`)

	_, err = run("", "keyring", "add-mnemonic", "not a mnemonic at all")
	require.True(t, walleterr.IsKind(err, walleterr.ValidationError))

	out, err = run("", "did", "generate-key-doc", "--key-type", "ed25519")
	require.NoError(t, err)
	require.Contains(t, out, "did:key:")
}

func TestServiceCommands(t *testing.T) {
	url := newAgent(t)

	run := func(args ...string) (string, error) {
		return walletctl(t, "", append([]string{"--url", url, "--token", sampleToken}, args...)...)
	}

	out, err := run("dock", "connected")
	require.NoError(t, err)

	state := &dock.ConnectedResponse{}
	require.NoError(t, json.Unmarshal([]byte(out), state))
	require.False(t, state.Connected)

	_, err = run("dock", "ready")
	require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))

	_, err = run("dock", "init", "ftp://node")
	require.True(t, walleterr.IsKind(err, walleterr.ValidationError))

	_, err = run("call", "did", "registerDidDock")
	require.True(t, walleterr.IsKind(err, walleterr.UnknownMethod))

	_, err = run("call", "vault", "open")
	require.True(t, walleterr.IsKind(err, walleterr.UnknownService))

	out, err = run("call", "wallet", "status")
	require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))
	require.Empty(t, out)
}

func TestConnectionFailures(t *testing.T) {
	url := newAgent(t)

	_, err := walletctl(t, "", "--url", url, "--transport", "grpc", "wallet", "status")
	require.Error(t, err)
	require.Contains(t, err.Error(), "transport [grpc] not supported")

	_, err = walletctl(t, "", "--url", url, "--transport", wsTransport, "--timeout", "1s", "wallet", "status")
	require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))

	t.Setenv("WALLETCTL_TOKEN", sampleToken)

	_, err = walletctl(t, "", "--url", url, "dock", "disconnect")
	require.NoError(t, err)
}
