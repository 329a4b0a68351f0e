/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"context"
	"io"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-wallet-go/pkg/did"
	"github.com/hyperledger/aries-wallet-go/pkg/internal/logutil"
)

var logger = log.New("wallet/command/did")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.DID)

	// DIDKeyDocumentErrorCode for errors while building did:key documents.
	DIDKeyDocumentErrorCode

	// ResolutionErrorCode for errors while building resolution results.
	ResolutionErrorCode

	// GenerateKeyDocErrorCode for errors while generating key documents.
	GenerateKeyDocErrorCode

	// RegisterDockDIDErrorCode for errors while registering dock DIDs.
	RegisterDockDIDErrorCode
)

// All command operations.
const (
	CommandName = "did"

	// command methods.
	KeypairToDIDKeyDocumentMethod = "keypairToDIDKeyDocument"
	GetDIDResolutionMethod        = "getDIDResolution"
	GenerateKeyDocMethod          = "generateKeyDoc"
	RegisterDockDIDMethod         = "registerDidDock"
)

const logDIDKey = "did"

// provider contains dependencies for the DID command.
type provider interface {
	DIDService() *did.Service
}

// Command contains operations provided by the DID service.
type Command struct {
	service *did.Service
}

// New returns new DID command instance.
func New(p provider) *Command {
	return &Command{service: p.DIDService()}
}

// GetHandlers returns list of all commands supported by this controller command.
// RegisterDockDID is reachable in-process only.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, KeypairToDIDKeyDocumentMethod, ValidateKeypairToDIDKeyDocument,
			o.KeypairToDIDKeyDocument),
		cmdutil.NewCommandHandler(CommandName, GetDIDResolutionMethod, ValidateGetDIDResolution, o.GetDIDResolution),
		cmdutil.NewCommandHandler(CommandName, GenerateKeyDocMethod, ValidateGenerateKeyDoc, o.GenerateKeyDoc),
	}
}

// KeypairToDIDKeyDocument builds the did:key document of a keypair document.
func (o *Command) KeypairToDIDKeyDocument(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &KeypairToDIDKeyDocumentRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, KeypairToDIDKeyDocumentMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	result, err := o.service.KeypairToDIDKeyDocument(request.KeypairDoc)
	if err != nil {
		logutil.LogFailure(logger, CommandName, KeypairToDIDKeyDocumentMethod, err)

		return command.NewExecuteError(DIDKeyDocumentErrorCode, err)
	}

	command.WriteNillableResponse(rw, result, logger)

	logutil.LogSuccess(logger, CommandName, KeypairToDIDKeyDocumentMethod,
		logutil.KeyValue(logDIDKey, result.DIDDocument.ID))

	return nil
}

// GetDIDResolution wraps a DID document in a resolution result.
func (o *Command) GetDIDResolution(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &GetDIDResolutionRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, GetDIDResolutionMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	result, err := o.service.GetDIDResolution(request.DIDDocument, request.DIDDocumentCustomProp)
	if err != nil {
		logutil.LogFailure(logger, CommandName, GetDIDResolutionMethod, err)

		return command.NewExecuteError(ResolutionErrorCode, err)
	}

	command.WriteNillableResponse(rw, result, logger)

	logutil.LogSuccess(logger, CommandName, GetDIDResolutionMethod)

	return nil
}

// GenerateKeyDoc generates a new key document.
func (o *Command) GenerateKeyDoc(_ context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &GenerateKeyDocRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, GenerateKeyDocMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	keyDoc, err := o.service.GenerateKeyDoc(request.DerivePath, request.Type)
	if err != nil {
		logutil.LogFailure(logger, CommandName, GenerateKeyDocMethod, err)

		return command.NewExecuteError(GenerateKeyDocErrorCode, err)
	}

	command.WriteNillableResponse(rw, keyDoc, logger)

	logutil.LogSuccess(logger, CommandName, GenerateKeyDocMethod,
		logutil.KeyValue(logDIDKey, keyDoc.Controller))

	return nil
}

// RegisterDockDID registers a dock DID for the account at the requested address.
func (o *Command) RegisterDockDID(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &RegisterDockDIDRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, RegisterDockDIDMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	dockDID, err := o.service.RegisterDockDID(ctx, request.Address)
	if err != nil {
		logutil.LogFailure(logger, CommandName, RegisterDockDIDMethod, err)

		return command.NewExecuteError(RegisterDockDIDErrorCode, err)
	}

	command.WriteNillableResponse(rw, &RegisterDockDIDResponse{DID: dockDID}, logger)

	logutil.LogInfo(logger, CommandName, RegisterDockDIDMethod, "registered",
		logutil.KeyValue(logDIDKey, dockDID))

	return nil
}
