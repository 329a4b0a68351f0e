/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package walletctl calls the services of a wallet agent over HTTP or websocket.
package main

import (
	"os"

	"github.com/hyperledger/aries-wallet-go/cmd/walletctl/ctlcmd"
)

func main() {
	if err := ctlcmd.Cmd().Execute(); err != nil {
		os.Exit(1)
	}
}
