/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/client/walletrpc"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	spi "github.com/hyperledger/aries-wallet-go/spi/log"
)

const sampleToken = "sample-token"

// mockServer runs serve against the router instead of listening.
type mockServer struct {
	host  string
	serve func(router http.Handler)
	err   error
}

func (s *mockServer) ListenAndServe(host string, router http.Handler, _, _ string) error {
	s.host = host

	if s.serve != nil {
		s.serve(router)
	}

	return s.err
}

func execute(t *testing.T, server server, args ...string) error {
	t.Helper()

	startCmd, err := Cmd(server)
	require.NoError(t, err)

	startCmd.SetArgs(args)

	return startCmd.Execute()
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start a wallet agent", startCmd.Short)

	checkFlagPropertiesCorrect(t, startCmd, agentHostFlagName, agentHostFlagShorthand, agentHostFlagUsage, "")
	checkFlagPropertiesCorrect(t, startCmd, databaseTypeFlagName, databaseTypeFlagShorthand, databaseTypeFlagUsage,
		databaseTypeMemOption)
	checkFlagPropertiesCorrect(t, startCmd, originPatternsFlagName, "", originPatternsFlagUsage, "[]")
	checkFlagPropertiesCorrect(t, startCmd, unlockBurstFlagName, "", unlockBurstFlagUsage, "5")
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName,
	flagShorthand, flagUsage, expectedVal string) {
	t.Helper()

	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)
	require.Equal(t, expectedVal, flag.Value.String())
}

func TestStartCmdInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{name: "missing host", err: "Neither api-host (command line flag) nor WALLETD_API_HOST"},
		{name: "unsupported database", args: []string{"-a", "localhost:8080", "-q", "couchdb"},
			err: "database type [couchdb] not supported"},
		{name: "leveldb without path", args: []string{"-a", "localhost:8080", "-q", "leveldb"},
			err: "database-path is required for leveldb"},
		{name: "invalid log level", args: []string{"-a", "localhost:8080", "--log-level", "loud"},
			err: "failed to parse log level 'loud'"},
		{name: "negative auto sync", args: []string{"-a", "localhost:8080", "--auto-sync-interval", "-1s"},
			err: "auto-sync-interval must not be negative"},
		{name: "no unlock rate", args: []string{"-a", "localhost:8080", "--unlock-rate", "0"},
			err: "unlock-rate and unlock-burst must be positive"},
		{name: "tls key without cert", args: []string{"-a", "localhost:8080", "-k", "key.pem"},
			err: "tls-cert-file and tls-key-file must be set together"},
		{name: "missing config file", args: []string{"--config", filepath.Join(os.TempDir(), "missing.yaml")},
			err: "read configuration file"},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			err := execute(t, &mockServer{}, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}

	t.Run("blank host", func(t *testing.T) {
		require.ErrorIs(t, startAgent(&agentParameters{}), errMissingHost)
	})
}

func TestStartCmdEnvironment(t *testing.T) {
	t.Setenv("WALLETD_API_HOST", "localhost:8090")
	t.Setenv("WALLETD_LOG_LEVEL", "DEBUG")
	t.Setenv("WALLETD_ORIGIN_PATTERNS", "a.example.com,b.example.com")

	defer log.SetLevel("", spi.INFO)

	srv := &mockServer{}
	require.NoError(t, execute(t, srv))
	require.Equal(t, "localhost:8090", srv.host)
	require.Equal(t, spi.DEBUG, log.GetLevel(""))

	t.Run("flag overrides environment", func(t *testing.T) {
		srv := &mockServer{}
		require.NoError(t, execute(t, srv, "-a", "localhost:8091"))
		require.Equal(t, "localhost:8091", srv.host)
	})
}

func TestStartCmdConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "walletd.yaml")

	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(
		"api-host: localhost:8092\ndatabase-type: leveldb\ndatabase-path: %s\nrequest-log: true\n",
		filepath.Join(dir, "db", "wallet"))), 0o600))

	srv := &mockServer{serve: func(router http.Handler) {
		ts := httptest.NewServer(router)
		defer ts.Close()

		client := walletrpc.New(rpc.NewHTTPCaller(ts.URL))
		require.NoError(t, client.Create(context.Background(), "w1", backend.Memory))
	}}

	require.NoError(t, execute(t, srv, "--config", config))
	require.Equal(t, "localhost:8092", srv.host)

	_, err := os.Stat(filepath.Join(dir, "db"))
	require.NoError(t, err)
}

func TestStartAgentRequests(t *testing.T) {
	ctx := context.Background()

	srv := &mockServer{serve: func(router http.Handler) {
		ts := httptest.NewServer(router)
		defer ts.Close()

		t.Run("unauthorized", func(t *testing.T) {
			err := walletrpc.New(rpc.NewHTTPCaller(ts.URL)).Create(ctx, "w1", backend.Memory)
			require.Error(t, err)
			require.Contains(t, err.Error(), "401")
		})

		client := walletrpc.New(rpc.NewHTTPCaller(ts.URL, rpc.WithHTTPToken(sampleToken)))

		t.Run("wallet", func(t *testing.T) {
			_, err := client.Status(ctx)
			require.True(t, walleterr.IsKind(err, walleterr.BackendUnavailable))

			require.NoError(t, client.Create(ctx, "w1", backend.Memory))

			status, err := client.Status(ctx)
			require.NoError(t, err)
			require.Equal(t, backend.StatusUnlocked, status)
		})

		t.Run("unlock rate limit", func(t *testing.T) {
			_ = client.Unlock(ctx, "pass") //nolint:errcheck

			err := client.Unlock(ctx, "pass")
			require.True(t, walleterr.IsKind(err, walleterr.RateLimited))
		})

		t.Run("websocket", func(t *testing.T) {
			caller, err := rpc.DialWS(ctx, ts.URL, rpc.WithWSToken(sampleToken))
			require.NoError(t, err)

			defer func() { require.NoError(t, caller.Close()) }()

			status, err := walletrpc.New(caller).Status(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, status)
		})
	}}

	require.NoError(t, execute(t, srv, "-a", "localhost:8093", "-t", sampleToken, "--unlock-burst", "1",
		"--unlock-rate", "0.001", "--workers", "4", "--auto-sync-interval", "1m"))
}

func TestStartAgentRemoteWallet(t *testing.T) {
	ctx := context.Background()

	const remoteToken = "remote-token"

	remote := &mockServer{serve: func(router http.Handler) {
		remoteSrv := httptest.NewServer(router)
		defer remoteSrv.Close()

		remoteClient := walletrpc.New(rpc.NewHTTPCaller(remoteSrv.URL, rpc.WithHTTPToken(remoteToken)))

		local := &mockServer{serve: func(router http.Handler) {
			localSrv := httptest.NewServer(router)
			defer localSrv.Close()

			client := walletrpc.New(rpc.NewHTTPCaller(localSrv.URL))

			require.NoError(t, client.Create(ctx, "w1", backend.Proxy))
			require.NoError(t, client.Add(ctx, walletdoc.New("doc-1", walletdoc.TypeCurrency, 5)))

			got, err := remoteClient.GetDocumentByID(ctx, "doc-1")
			require.NoError(t, err)
			require.Equal(t, walletdoc.TypeCurrency, got.Type)
		}}

		require.NoError(t, execute(t, local, "-a", "localhost:8096",
			"--remote-wallet-url", remoteSrv.URL, "--remote-wallet-token", remoteToken))
	}}

	require.NoError(t, execute(t, remote, "-a", "localhost:8095", "-t", remoteToken))

	t.Run("proxy unavailable without a remote wallet", func(t *testing.T) {
		srv := &mockServer{serve: func(router http.Handler) {
			ts := httptest.NewServer(router)
			defer ts.Close()

			err := walletrpc.New(rpc.NewHTTPCaller(ts.URL)).Create(ctx, "w1", backend.Proxy)
			require.True(t, walleterr.IsKind(err, walleterr.InvalidConfiguration))
		}}

		require.NoError(t, execute(t, srv, "-a", "localhost:8097"))
	})
}

func TestStartAgentServerFailure(t *testing.T) {
	err := execute(t, &mockServer{err: errors.New("address in use")}, "-a", "localhost:8094")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to start wallet agent on port [localhost:8094]")
	require.Contains(t, err.Error(), "address in use")
}
