/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"encoding/json"

	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
)

// CreateRequest is request model for creating the backend of a wallet.
type CreateRequest struct {
	// Wallet ID.
	WalletID string `json:"walletId"`

	// Backend type, memory or proxy.
	Type backend.Type `json:"type"`
}

// PasswordRequest is request model for locking, unlocking and exporting a wallet.
type PasswordRequest struct {
	Password string `json:"password"`
}

// DocumentIDRequest is request model for operations addressing a single document.
type DocumentIDRequest struct {
	ID string `json:"id"`
}

// StatusResponse is response model for the wallet status.
type StatusResponse struct {
	Status backend.Status `json:"status"`
}

// ExportAccountRequest is request model for exporting an account key pair.
type ExportAccountRequest struct {
	// Address of the account.
	Address string `json:"address"`

	// Password encrypting the export.
	Password string `json:"password"`
}

// ImportWalletRequest is request model for importing a wallet backup.
type ImportWalletRequest struct {
	Data     json.RawMessage `json:"data"`
	Password string          `json:"password"`
}
