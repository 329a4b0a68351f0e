/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyring

import (
	"context"
	"io"

	"github.com/btcsuite/btcutil/base58"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-wallet-go/pkg/internal/logutil"
	"github.com/hyperledger/aries-wallet-go/pkg/keyring"
)

var logger = log.New("wallet/command/keyring")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Keyring)

	// InitializeErrorCode for errors while initializing the keyring.
	InitializeErrorCode

	// AddPairErrorCode for errors while deriving or importing pairs.
	AddPairErrorCode

	// AddressFromURIErrorCode for errors while resolving addresses.
	AddressFromURIErrorCode
)

// All command operations.
const (
	CommandName = "keyring"

	// command methods.
	InitializeMethod      = "initialize"
	AddFromMnemonicMethod = "addFromMnemonic"
	AddFromJSONMethod     = "addFromJson"
	GetKeyringPairMethod  = "getKeyringPair"
	AddressFromURIMethod  = "addressFromUri"
)

const logAddressKey = "address"

// provider contains dependencies for the keyring command.
type provider interface {
	Keyring() *keyring.Keyring
}

// Command contains operations provided by the keyring service.
type Command struct {
	keyring *keyring.Keyring
}

// New returns new keyring command instance.
func New(p provider) *Command {
	return &Command{keyring: p.Keyring()}
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, InitializeMethod, ValidateInitialize, o.Initialize),
		cmdutil.NewCommandHandler(CommandName, AddFromMnemonicMethod, ValidateMnemonic, o.AddFromMnemonic),
		cmdutil.NewCommandHandler(CommandName, AddFromJSONMethod, ValidateAddFromJSON, o.AddFromJSON),
		cmdutil.NewCommandHandler(CommandName, GetKeyringPairMethod, ValidateMnemonic, o.GetKeyringPair),
		cmdutil.NewCommandHandler(CommandName, AddressFromURIMethod, ValidateAddressFromURI, o.AddressFromURI),
	}
}

func toPairResponse(pair *keyring.Pair) *PairResponse {
	return &PairResponse{
		Address:   pair.Address(),
		PublicKey: base58.Encode(pair.PublicKey()),
		Type:      pair.Type(),
		Meta:      pair.Meta(),
		IsLocked:  pair.IsLocked(),
	}
}

// Initialize sets up the keyring.
func (o *Command) Initialize(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &InitializeRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, InitializeMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if request.SS58Format != nil {
		if err := o.keyring.SetSS58Format(*request.SS58Format); err != nil {
			logutil.LogFailure(logger, CommandName, InitializeMethod, err)

			return command.NewExecuteError(InitializeErrorCode, err)
		}
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, InitializeMethod)

	return nil
}

// AddFromMnemonic derives a pair from a mnemonic and keeps it in the keyring.
func (o *Command) AddFromMnemonic(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &MnemonicRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, AddFromMnemonicMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	pair, err := o.keyring.FromMnemonic(request.Mnemonic, request.DerivePath, request.Type, request.Meta)
	if err != nil {
		logutil.LogFailure(logger, CommandName, AddFromMnemonicMethod, err)

		return command.NewExecuteError(AddPairErrorCode, err)
	}

	o.keyring.Add(pair)

	command.WriteNillableResponse(rw, toPairResponse(pair), logger)

	logutil.LogSuccess(logger, CommandName, AddFromMnemonicMethod,
		logutil.KeyValue(logAddressKey, pair.Address()))

	return nil
}

// AddFromJSON imports an exported pair and keeps it in the keyring.
func (o *Command) AddFromJSON(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &AddFromJSONRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, AddFromJSONMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	pair, err := o.keyring.FromJSON(request.JSONData, request.Password)
	if err != nil {
		logutil.LogFailure(logger, CommandName, AddFromJSONMethod, err)

		return command.NewExecuteError(AddPairErrorCode, err)
	}

	o.keyring.Add(pair)

	command.WriteNillableResponse(rw, toPairResponse(pair), logger)

	logutil.LogSuccess(logger, CommandName, AddFromJSONMethod,
		logutil.KeyValue(logAddressKey, pair.Address()))

	return nil
}

// GetKeyringPair derives a pair from a mnemonic without keeping it.
func (o *Command) GetKeyringPair(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &MnemonicRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, GetKeyringPairMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	pair, err := o.keyring.FromMnemonic(request.Mnemonic, request.DerivePath, request.Type, request.Meta)
	if err != nil {
		logutil.LogFailure(logger, CommandName, GetKeyringPairMethod, err)

		return command.NewExecuteError(AddPairErrorCode, err)
	}

	command.WriteNillableResponse(rw, toPairResponse(pair), logger)

	logutil.LogSuccess(logger, CommandName, GetKeyringPairMethod,
		logutil.KeyValue(logAddressKey, pair.Address()))

	return nil
}

// AddressFromURI returns the address of a secret URI.
func (o *Command) AddressFromURI(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &AddressFromURIRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, AddressFromURIMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	address, err := o.keyring.AddressFromURI(request.URI, request.Type)
	if err != nil {
		logutil.LogFailure(logger, CommandName, AddressFromURIMethod, err)

		return command.NewExecuteError(AddressFromURIErrorCode, err)
	}

	command.WriteNillableResponse(rw, &AddressResponse{Address: address}, logger)

	logutil.LogSuccess(logger, CommandName, AddressFromURIMethod,
		logutil.KeyValue(logAddressKey, address))

	return nil
}
