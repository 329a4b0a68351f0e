/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	didcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/did"
	dockcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/dock"
	keyringcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/keyring"
	walletcmd "github.com/hyperledger/aries-wallet-go/pkg/controller/command/wallet"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/rest"
	"github.com/hyperledger/aries-wallet-go/pkg/framework/context"
)

type allOpts struct {
	originPatterns []string
}

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithOriginPatterns sets the browser origins allowed to open websocket connections.
func WithOriginPatterns(patterns ...string) Opt {
	return func(opts *allOpts) {
		opts.originPatterns = patterns
	}
}

// GetCommandHandlers returns the handler tables of the wallet, keyring, did and dock services.
func GetCommandHandlers(ctx *context.Provider) []command.Handler {
	var allHandlers []command.Handler
	allHandlers = append(allHandlers, walletcmd.New(ctx).GetHandlers()...)
	allHandlers = append(allHandlers, keyringcmd.New(ctx).GetHandlers()...)
	allHandlers = append(allHandlers, didcmd.New(ctx).GetHandlers()...)
	allHandlers = append(allHandlers, dockcmd.New(ctx).GetHandlers()...)

	return allHandlers
}

// RegisterCommandHandlers registers every service handler in the dispatcher of ctx. Registering twice is
// an error.
func RegisterCommandHandlers(ctx *context.Provider) error {
	if err := ctx.Dispatcher().Register(GetCommandHandlers(ctx)...); err != nil {
		return fmt.Errorf("register command handlers: %w", err)
	}

	return nil
}

// GetRESTHandlers registers the service handlers in the dispatcher of ctx and returns the HTTP and
// websocket endpoints serving it.
func GetRESTHandlers(ctx *context.Provider, opts ...Opt) ([]rest.Handler, error) {
	restAPIOpts := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(restAPIOpts)
	}

	if err := RegisterCommandHandlers(ctx); err != nil {
		return nil, err
	}

	return rest.New(ctx.Dispatcher(), rest.WithOriginPatterns(restAPIOpts.originPatterns...)).GetRESTHandlers(), nil
}
