/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
)

const (
	failedOnlyFlagName  = "failed"
	failedOnlyFlagUsage = "Print only the requests that failed." +
		" Alternatively, this can be set with the following environment variable: WALLETD_FAILED"
)

// RequestLogCmd returns the Cobra command printing the requests recorded by an agent started with
// --request-log on a leveldb database.
func RequestLogCmd() (*cobra.Command, error) {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "request-log",
		Short: "Print the recorded request log",
		Long: `Print the outcome of every request recorded by an agent started with --request-log, oldest first,` +
			` one JSON object per line. The agent must be stopped: leveldb is opened by a single process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfigFile(v); err != nil {
				return err
			}

			path := v.GetString(databasePathFlagName)
			if path == "" {
				return fmt.Errorf("%s is required", databasePathFlagName)
			}

			return printRequestLog(cmd.OutOrStdout(), &dbParam{
				dbType:  databaseTypeLevelDBOption,
				path:    path,
				timeout: v.GetUint64(databaseTimeoutFlagName),
			}, v.GetBool(failedOnlyFlagName))
		},
	}

	cmd.Flags().String(configFlagName, "", configFlagUsage)
	cmd.Flags().StringP(databasePathFlagName, databasePathFlagShorthand, "", databasePathFlagUsage)
	cmd.Flags().Uint64(databaseTimeoutFlagName, databaseTimeoutDefault, databaseTimeoutFlagUsage)
	cmd.Flags().Bool(failedOnlyFlagName, false, failedOnlyFlagUsage)

	if err := bindFlags(cmd.Flags(), v); err != nil {
		return nil, err
	}

	return cmd, nil
}

func printRequestLog(w io.Writer, param *dbParam, failedOnly bool) error {
	provider, err := createStoreProvider(param)
	if err != nil {
		return err
	}

	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warnf("failed to close storage at %s: %s", param.path, err)
		}
	}()

	requestLog, err := rpc.NewRequestLog(provider)
	if err != nil {
		return err
	}

	entries, err := requestLog.Export()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)

	for _, entry := range entries {
		if failedOnly && entry.OK {
			continue
		}

		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("write request log entry %s: %w", entry.ID, err)
		}
	}

	return nil
}
