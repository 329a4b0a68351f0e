/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ctlcmd implements the walletctl commands. Every command issues its calls through one
// connection to the agent, opened for the command and closed afterwards.
package ctlcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
)

const (
	envPrefix = "WALLETCTL"

	urlFlagName       = "url"
	tokenFlagName     = "token"
	transportFlagName = "transport"
	walletIDFlagName  = "wallet-id"
	timeoutFlagName   = "timeout"

	httpTransport = "http"
	wsTransport   = "ws"

	defaultURL     = "http://localhost:8080"
	defaultTimeout = 30 * time.Second
)

type rootFlags struct {
	v *viper.Viper
}

func (f *rootFlags) url() string       { return f.v.GetString(urlFlagName) }
func (f *rootFlags) token() string     { return f.v.GetString(tokenFlagName) }
func (f *rootFlags) transport() string { return f.v.GetString(transportFlagName) }
func (f *rootFlags) walletID() string  { return f.v.GetString(walletIDFlagName) }

func (f *rootFlags) timeout() time.Duration {
	if d := f.v.GetDuration(timeoutFlagName); d > 0 {
		return d
	}

	return defaultTimeout
}

// session is the connection of one command.
type session struct {
	caller rpc.Caller
	close  func() error
}

func (s *session) Close() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}

func (f *rootFlags) connect(ctx context.Context) (s *session, err error) {
	defer err2.Handle(&err, "connect to %s", f.url())

	switch f.transport() {
	case httpTransport:
		return &session{caller: rpc.NewHTTPCaller(f.url(), rpc.WithHTTPToken(f.token()))}, nil
	case wsTransport:
		caller := try.To1(rpc.DialWS(ctx, f.url(), rpc.WithWSToken(f.token())))

		return &session{caller: caller, close: caller.Close}, nil
	default:
		return nil, fmt.Errorf("transport [%s] not supported, use %s or %s", f.transport(), httpTransport,
			wsTransport)
	}
}

// invocation is one run of a command.
type invocation struct {
	ctx    context.Context
	cmd    *cobra.Command
	caller rpc.Caller
	args   []string
}

// decode reads the JSON file named by argument i into v.
func (in *invocation) decode(i int, v interface{}) error {
	return decodeInput(in.cmd, in.args[i], v)
}

// callFunc issues the calls of a command and returns what the command prints, nil prints nothing.
type callFunc func(in *invocation) (interface{}, error)

func (f *rootFlags) run(call callFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err, "%s", cmd.CommandPath())

		ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout())
		defer cancel()

		s := try.To1(f.connect(ctx))

		defer func() {
			if closeErr := s.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		result := try.To1(call(&invocation{ctx: ctx, cmd: cmd, caller: s.caller, args: args}))
		if result == nil {
			return nil
		}

		return printJSON(cmd.OutOrStdout(), result)
	}
}

func printJSON(w io.Writer, v interface{}) (err error) {
	defer err2.Handle(&err, "print result")

	out := try.To1(json.MarshalIndent(v, "", "  "))
	try.To1(fmt.Fprintln(w, string(out)))

	return nil
}

// readInput reads a file, "-" reads stdin.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	return os.ReadFile(name) //nolint:gosec
}

func decodeInput(cmd *cobra.Command, name string, v interface{}) (err error) {
	defer err2.Handle(&err, "decode %s", name)

	try.To(json.Unmarshal(try.To1(readInput(cmd, name)), v))

	return nil
}

// Cmd returns the walletctl root command.
func Cmd() *cobra.Command {
	flags := &rootFlags{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "Call the services of a wallet agent",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.String(urlFlagName, defaultURL, flagInfo("base URL of the wallet agent", urlFlagName))
	pf.String(tokenFlagName, "", flagInfo("bearer token of the wallet agent", tokenFlagName))
	pf.String(transportFlagName, httpTransport, flagInfo("transport, http or ws", transportFlagName))
	pf.String(walletIDFlagName, "", flagInfo("wallet id used by wallet create", walletIDFlagName))
	pf.Duration(timeoutFlagName, defaultTimeout, flagInfo("timeout of one command", timeoutFlagName))

	flags.v.SetEnvPrefix(envPrefix)
	flags.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	flags.v.AutomaticEnv()
	try.To(flags.v.BindPFlags(pf))

	rootCmd.AddCommand(
		walletCmd(flags),
		keyringCmd(flags),
		didCmd(flags),
		dockCmd(flags),
		callCmd(flags),
	)

	return rootCmd
}

func flagInfo(info, flagName string) string {
	return info + ", " + envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func callCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "call <service> <method> [params-file|-]",
		Short: "Call any method with JSON params and print the raw result",
		Args:  cobra.RangeArgs(2, 3), //nolint:gomnd
		RunE: flags.run(func(in *invocation) (interface{}, error) {
			var params json.RawMessage

			if len(in.args) == 3 { //nolint:gomnd
				if err := in.decode(2, &params); err != nil { //nolint:gomnd
					return nil, err
				}
			}

			var result json.RawMessage

			if err := in.caller.Call(in.ctx, in.args[0], in.args[1], params, &result); err != nil {
				return nil, err
			}

			return result, nil
		}),
	}
}
