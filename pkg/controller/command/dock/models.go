/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dock

// InitRequest is request model for connecting to a chain node.
type InitRequest struct {
	// websocket address of the node, ws:// or wss://.
	Address string `json:"address"`
}

// ConnectedResponse is response model of the connection state.
type ConnectedResponse struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}
