/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet-agent serves the wallet, keyring, did and dock services over HTTP and websocket RPC.
package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-wallet-go/cmd/wallet-agent/startcmd"
	"github.com/hyperledger/aries-wallet-go/component/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "wallet-agent",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("wallet/agent")

	startCmd, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Fatalf(err.Error())
	}

	requestLogCmd, err := startcmd.RequestLogCmd()
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(startCmd, requestLogCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run wallet-agent: %s", err)
	}
}
