/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context creates a framework Provider context owning the wallet store, the services built on
// it and the dispatcher serving them, and provides simple accessor methods to those same services.
package context

import (
	"context"
	"fmt"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/component/storageutil/mem"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rpc"
	"github.com/hyperledger/aries-wallet-go/pkg/did"
	"github.com/hyperledger/aries-wallet-go/pkg/dock"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet/backend/proxystore"
	"github.com/hyperledger/aries-wallet-go/spi/storage"
)

var logger = log.New("wallet/framework/context")

// Provider supplies the framework configuration to client objects.
type Provider struct {
	storeProvider  storage.Provider
	keyring        *keyring.Keyring
	walletOpts     []wallet.Opt
	didOpts        []did.Opt
	dockOpts       []dock.Opt
	dispatcherOpts []rpc.Opt
	remoteWallet   rpc.Caller
	requestLog     bool

	walletStore *wallet.Store
	didService  *did.Service
	dockService *dock.Service
	dispatcher  *rpc.Dispatcher
}

// ProviderOption configures the framework.
type ProviderOption func(opts *Provider) error

// New instantiates a new context provider.
func New(opts ...ProviderOption) (*Provider, error) {
	ctxProvider := Provider{}

	for _, opt := range opts {
		err := opt(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("option failed: %w", err)
		}
	}

	if ctxProvider.storeProvider == nil {
		ctxProvider.storeProvider = mem.NewProvider()
	}

	if ctxProvider.keyring == nil {
		ctxProvider.keyring = keyring.New()
	}

	walletOpts := []wallet.Opt{
		wallet.WithKeyring(ctxProvider.keyring),
		wallet.WithStorageProvider(ctxProvider.storeProvider),
	}

	if ctxProvider.remoteWallet != nil {
		walletOpts = append(walletOpts, wallet.WithBackendFactory(backend.Proxy,
			proxystore.NewFactory(ctxProvider.remoteWallet)))
	}

	ctxProvider.walletStore = wallet.New(append(walletOpts, ctxProvider.walletOpts...)...)
	ctxProvider.dockService = dock.New(ctxProvider.dockOpts...)
	ctxProvider.didService = did.New(append([]did.Opt{
		did.WithKeyring(ctxProvider.keyring),
		did.WithAccountStore(ctxProvider.walletStore),
		did.WithChain(ctxProvider.dockService),
	}, ctxProvider.didOpts...)...)

	dispatcherOpts := ctxProvider.dispatcherOpts

	if ctxProvider.requestLog {
		requestLog, err := rpc.NewRequestLog(ctxProvider.storeProvider)
		if err != nil {
			return nil, fmt.Errorf("initialize context request log: %w", err)
		}

		dispatcherOpts = append(dispatcherOpts, rpc.WithRequestLog(requestLog))
	}

	ctxProvider.dispatcher = rpc.New(dispatcherOpts...)

	return &ctxProvider, nil
}

// StorageProvider return a storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.storeProvider
}

// Keyring returns the keyring shared by the wallet store and the services.
func (p *Provider) Keyring() *keyring.Keyring {
	return p.keyring
}

// WalletStore returns the wallet store.
func (p *Provider) WalletStore() *wallet.Store {
	return p.walletStore
}

// DIDService returns the DID service.
func (p *Provider) DIDService() *did.Service {
	return p.didService
}

// DockService returns the chain connection service.
func (p *Provider) DockService() *dock.Service {
	return p.dockService
}

// Dispatcher returns the dispatcher. Service handlers are registered by the controller.
func (p *Provider) Dispatcher() *rpc.Dispatcher {
	return p.dispatcher
}

// Close releases the wallet store, the chain connection and the storage provider.
func (p *Provider) Close() error {
	if err := p.walletStore.Close(); err != nil {
		return fmt.Errorf("close wallet store: %w", err)
	}

	if err := p.dockService.Disconnect(context.Background()); err != nil {
		logger.Warnf("failed to disconnect from node: %s", err)
	}

	if err := p.storeProvider.Close(); err != nil {
		return fmt.Errorf("close storage provider: %w", err)
	}

	return nil
}

// WithStorageProvider injects a storage provider into the context.
func WithStorageProvider(s storage.Provider) ProviderOption {
	return func(opts *Provider) error {
		opts.storeProvider = s
		return nil
	}
}

// WithKeyring injects a keyring into the context.
func WithKeyring(k *keyring.Keyring) ProviderOption {
	return func(opts *Provider) error {
		opts.keyring = k
		return nil
	}
}

// WithWalletOptions adds wallet store options, applied after the options of the context.
func WithWalletOptions(walletOpts ...wallet.Opt) ProviderOption {
	return func(opts *Provider) error {
		opts.walletOpts = append(opts.walletOpts, walletOpts...)
		return nil
	}
}

// WithDIDOptions adds DID service options, ex: did.WithSubmitter.
func WithDIDOptions(didOpts ...did.Opt) ProviderOption {
	return func(opts *Provider) error {
		opts.didOpts = append(opts.didOpts, didOpts...)
		return nil
	}
}

// WithDockOptions adds chain connection service options.
func WithDockOptions(dockOpts ...dock.Opt) ProviderOption {
	return func(opts *Provider) error {
		opts.dockOpts = append(opts.dockOpts, dockOpts...)
		return nil
	}
}

// WithDispatcherOptions adds dispatcher options.
func WithDispatcherOptions(dispatcherOpts ...rpc.Opt) ProviderOption {
	return func(opts *Provider) error {
		opts.dispatcherOpts = append(opts.dispatcherOpts, dispatcherOpts...)
		return nil
	}
}

// WithRemoteWallet enables the proxy backend type, forwarding to the wallet service reached by caller.
func WithRemoteWallet(caller rpc.Caller) ProviderOption {
	return func(opts *Provider) error {
		if caller == nil {
			return fmt.Errorf("remote wallet caller is required")
		}

		opts.remoteWallet = caller

		return nil
	}
}

// WithRequestLog records the outcome of dispatched requests in the storage provider.
func WithRequestLog() ProviderOption {
	return func(opts *Provider) error {
		opts.requestLog = true
		return nil
	}
}
