/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ariesgowallet is a document wallet reachable over RPC.
//
// # Packages for end developer usage
//
// pkg/framework/context: Builds the context holding the active wallet, the keyring, the did and dock
// services and the RPC dispatcher.
//
// pkg/wallet: The wallet store. Holds typed JSON documents, seals their secrets with a password and
// persists them to a backend.
//
// pkg/client/walletrpc, pkg/client/keyringrpc, pkg/client/didrpc, pkg/client/dockrpc: Typed clients
// calling the services through any rpc.Caller, in process or remote over HTTP and websocket.
//
// pkg/controller: Registers the services with the dispatcher and exposes them as REST handlers.
//
// Basic workflow
//
//  1. Create a context, choosing the storage provider.
//  2. Get the REST handlers and serve them, or use the dispatcher of the context directly.
//  3. Create a client with a Caller and create the active wallet.
//  4. Add, query and resolve documents, then sync and lock the wallet.
//  5. Call Close on the context to release resources.
package ariesgowallet
