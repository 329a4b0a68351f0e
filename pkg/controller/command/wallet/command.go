/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"encoding/json"
	"io"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-wallet-go/pkg/doc/walletdoc"
	"github.com/hyperledger/aries-wallet-go/pkg/internal/logutil"
	"github.com/hyperledger/aries-wallet-go/pkg/wallet"
)

var logger = log.New("wallet/command/wallet")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Wallet)

	// CreateErrorCode for errors while creating the wallet backend.
	CreateErrorCode

	// LifecycleErrorCode for errors while loading, syncing or reading the status of a wallet.
	LifecycleErrorCode

	// LockErrorCode for errors while locking or unlocking a wallet.
	LockErrorCode

	// AddErrorCode for errors while adding or updating documents.
	AddErrorCode

	// RemoveErrorCode for errors while removing documents.
	RemoveErrorCode

	// QueryErrorCode for errors while querying or reading documents.
	QueryErrorCode

	// ResolveCorrelationsErrorCode for errors while resolving document correlations.
	ResolveCorrelationsErrorCode

	// CreateAccountErrorCode for errors while creating account documents.
	CreateAccountErrorCode

	// ExportErrorCode for errors while exporting accounts or wallets.
	ExportErrorCode

	// ImportErrorCode for errors while importing wallet backups.
	ImportErrorCode
)

// All command operations.
const (
	CommandName = "wallet"

	// command methods.
	CreateMethod                 = "create"
	LoadMethod                   = "load"
	SyncMethod                   = "sync"
	LockMethod                   = "lock"
	UnlockMethod                 = "unlock"
	StatusMethod                 = "status"
	ToJSONMethod                 = "toJSON"
	AddMethod                    = "add"
	UpdateMethod                 = "update"
	RemoveMethod                 = "remove"
	RemoveAllMethod              = "removeAll"
	QueryMethod                  = "query"
	GetDocumentByIDMethod        = "getDocumentById"
	ResolveCorrelationsMethod    = "resolveCorrelations"
	CreateAccountDocumentsMethod = "createAccountDocuments"
	ExportAccountMethod          = "exportAccount"
	ExportWalletMethod           = "exportWallet"
	ImportWalletMethod           = "importWallet"
)

const (
	logWalletIDKey = "walletID"
	logDocIDKey    = "documentID"
)

// provider contains dependencies for the wallet command.
type provider interface {
	WalletStore() *wallet.Store
}

// Command contains operations provided by the wallet service.
type Command struct {
	store *wallet.Store
}

// New returns new wallet command instance.
func New(p provider) *Command {
	return &Command{store: p.WalletStore()}
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, CreateMethod, ValidateCreate, o.Create),
		cmdutil.NewCommandHandler(CommandName, LoadMethod, nil, o.Load),
		cmdutil.NewCommandHandler(CommandName, SyncMethod, nil, o.Sync),
		cmdutil.NewCommandHandler(CommandName, LockMethod, o.requireBackend(ValidatePassword), o.Lock),
		cmdutil.NewCommandHandler(CommandName, UnlockMethod, o.requireBackend(ValidateUnlock), o.Unlock),
		cmdutil.NewCommandHandler(CommandName, StatusMethod, nil, o.Status),
		cmdutil.NewCommandHandler(CommandName, ToJSONMethod, nil, o.ToJSON),
		cmdutil.NewCommandHandler(CommandName, AddMethod, o.requireWallet(ValidateDocument), o.Add),
		cmdutil.NewCommandHandler(CommandName, UpdateMethod, o.requireWallet(ValidateDocument), o.Update),
		cmdutil.NewCommandHandler(CommandName, RemoveMethod, o.requireWallet(ValidateRemove), o.Remove),
		cmdutil.NewCommandHandler(CommandName, RemoveAllMethod, nil, o.RemoveAll),
		cmdutil.NewCommandHandler(CommandName, QueryMethod, o.requireWallet(ValidateQuery), o.Query),
		cmdutil.NewCommandHandler(CommandName, GetDocumentByIDMethod, o.requireWallet(ValidateDocumentID),
			o.GetDocumentByID),
		cmdutil.NewCommandHandler(CommandName, ResolveCorrelationsMethod, o.requireWallet(ValidateDocumentID),
			o.ResolveCorrelations),
		cmdutil.NewCommandHandler(CommandName, CreateAccountDocumentsMethod,
			o.requireWallet(ValidateCreateAccountDocuments), o.CreateAccountDocuments),
		cmdutil.NewCommandHandler(CommandName, ExportAccountMethod, o.requireWallet(ValidateExportAccount),
			o.ExportAccount),
		cmdutil.NewCommandHandler(CommandName, ExportWalletMethod, o.requireWallet(ValidatePassword),
			o.ExportWallet),
		cmdutil.NewCommandHandler(CommandName, ImportWalletMethod, o.requireWallet(ValidateImportWallet),
			o.ImportWallet),
	}
}

// requireWallet reports a missing wallet ahead of malformed params, as the store does.
func (o *Command) requireWallet(validate command.Validator) command.Validator {
	return func(req json.RawMessage) error {
		if err := o.store.CheckWallet(); err != nil {
			return err
		}

		return validate(req)
	}
}

func (o *Command) requireBackend(validate command.Validator) command.Validator {
	return func(req json.RawMessage) error {
		if err := o.store.CheckBackend(); err != nil {
			return err
		}

		return validate(req)
	}
}

// Create creates the backend of a wallet.
func (o *Command) Create(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &CreateRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, CreateMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.Create(ctx, request.WalletID, request.Type); err != nil {
		logutil.LogFailure(logger, CommandName, CreateMethod, err)

		return command.NewExecuteError(CreateErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, CreateMethod,
		logutil.KeyValue(logWalletIDKey, request.WalletID))

	return nil
}

// Load hydrates the wallet from persistence.
func (o *Command) Load(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	if err := o.store.Load(ctx); err != nil {
		logutil.LogFailure(logger, CommandName, LoadMethod, err)

		return command.NewExecuteError(LifecycleErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, LoadMethod)

	return nil
}

// Sync flushes the wallet to persistence.
func (o *Command) Sync(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	if err := o.store.Sync(ctx); err != nil {
		logutil.LogFailure(logger, CommandName, SyncMethod, err)

		return command.NewExecuteError(LifecycleErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, SyncMethod)

	return nil
}

// Lock locks the wallet with a password.
func (o *Command) Lock(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &PasswordRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, LockMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.Lock(ctx, request.Password); err != nil {
		logutil.LogFailure(logger, CommandName, LockMethod, err)

		return command.NewExecuteError(LockErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, LockMethod)

	return nil
}

// Unlock unlocks the wallet.
func (o *Command) Unlock(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &PasswordRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, UnlockMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.Unlock(ctx, request.Password); err != nil {
		logutil.LogFailure(logger, CommandName, UnlockMethod, err)

		return command.NewExecuteError(LockErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, UnlockMethod)

	return nil
}

// Status returns the lock state of the wallet.
func (o *Command) Status(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	status, err := o.store.Status(ctx)
	if err != nil {
		logutil.LogFailure(logger, CommandName, StatusMethod, err)

		return command.NewExecuteError(LifecycleErrorCode, err)
	}

	command.WriteNillableResponse(rw, &StatusResponse{Status: status}, logger)

	logutil.LogSuccess(logger, CommandName, StatusMethod)

	return nil
}

// ToJSON returns every document of the wallet.
func (o *Command) ToJSON(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	docs, err := o.store.ToJSON(ctx)
	if err != nil {
		logutil.LogFailure(logger, CommandName, ToJSONMethod, err)

		return command.NewExecuteError(QueryErrorCode, err)
	}

	command.WriteNillableResponse(rw, docs, logger)

	logutil.LogSuccess(logger, CommandName, ToJSONMethod)

	return nil
}

// Add adds a document to the wallet.
func (o *Command) Add(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	doc := &walletdoc.Document{}

	if err := command.DecodeRequest(req, doc); err != nil {
		logutil.LogFailure(logger, CommandName, AddMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.Add(ctx, doc); err != nil {
		logutil.LogFailure(logger, CommandName, AddMethod, err)

		return command.NewExecuteError(AddErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, AddMethod,
		logutil.KeyValue(logDocIDKey, doc.ID))

	return nil
}

// Update replaces an existing document.
func (o *Command) Update(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	doc := &walletdoc.Document{}

	if err := command.DecodeRequest(req, doc); err != nil {
		logutil.LogFailure(logger, CommandName, UpdateMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.Update(ctx, doc); err != nil {
		logutil.LogFailure(logger, CommandName, UpdateMethod, err)

		return command.NewExecuteError(AddErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, UpdateMethod,
		logutil.KeyValue(logDocIDKey, doc.ID))

	return nil
}

// Remove removes a document from the wallet.
func (o *Command) Remove(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	doc := &walletdoc.Document{}

	if err := command.DecodeRequest(req, doc); err != nil {
		logutil.LogFailure(logger, CommandName, RemoveMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.Remove(ctx, doc); err != nil {
		logutil.LogFailure(logger, CommandName, RemoveMethod, err)

		return command.NewExecuteError(RemoveErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, RemoveMethod,
		logutil.KeyValue(logDocIDKey, doc.ID))

	return nil
}

// RemoveAll removes every document of the wallet.
func (o *Command) RemoveAll(ctx context.Context, rw io.Writer, _ io.Reader) command.Error {
	if err := o.store.RemoveAll(ctx); err != nil {
		logutil.LogFailure(logger, CommandName, RemoveAllMethod, err)

		return command.NewExecuteError(RemoveErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, RemoveAllMethod)

	return nil
}

// Query returns the documents matching a query.
func (o *Command) Query(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	q := &walletdoc.Query{}

	if err := command.DecodeRequest(req, q); err != nil {
		logutil.LogFailure(logger, CommandName, QueryMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	docs, err := o.store.Query(ctx, q)
	if err != nil {
		logutil.LogFailure(logger, CommandName, QueryMethod, err)

		return command.NewExecuteError(QueryErrorCode, err)
	}

	command.WriteNillableResponse(rw, docs, logger)

	logutil.LogSuccess(logger, CommandName, QueryMethod)

	return nil
}

// GetDocumentByID returns a document.
func (o *Command) GetDocumentByID(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &DocumentIDRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, GetDocumentByIDMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	doc, err := o.store.GetDocumentByID(ctx, request.ID)
	if err != nil {
		logutil.LogFailure(logger, CommandName, GetDocumentByIDMethod, err,
			logutil.KeyValue(logDocIDKey, request.ID))

		return command.NewExecuteError(QueryErrorCode, err)
	}

	command.WriteNillableResponse(rw, doc, logger)

	logutil.LogSuccess(logger, CommandName, GetDocumentByIDMethod,
		logutil.KeyValue(logDocIDKey, request.ID))

	return nil
}

// ResolveCorrelations returns a document followed by its correlated documents.
func (o *Command) ResolveCorrelations(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &DocumentIDRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, ResolveCorrelationsMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	docs, err := o.store.ResolveCorrelations(ctx, request.ID)
	if err != nil {
		logutil.LogFailure(logger, CommandName, ResolveCorrelationsMethod, err,
			logutil.KeyValue(logDocIDKey, request.ID))

		return command.NewExecuteError(ResolveCorrelationsErrorCode, err)
	}

	command.WriteNillableResponse(rw, docs, logger)

	logutil.LogSuccess(logger, CommandName, ResolveCorrelationsMethod,
		logutil.KeyValue(logDocIDKey, request.ID))

	return nil
}

// CreateAccountDocuments creates the documents of a new account.
func (o *Command) CreateAccountDocuments(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	params := &wallet.CreateAccountDocumentsParams{}

	if err := command.DecodeRequest(req, params); err != nil {
		logutil.LogFailure(logger, CommandName, CreateAccountDocumentsMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	docs, err := o.store.CreateAccountDocuments(ctx, params)
	if err != nil {
		logutil.LogFailure(logger, CommandName, CreateAccountDocumentsMethod, err)

		return command.NewExecuteError(CreateAccountErrorCode, err)
	}

	command.WriteNillableResponse(rw, docs, logger)

	logutil.LogSuccess(logger, CommandName, CreateAccountDocumentsMethod,
		logutil.KeyValue(logDocIDKey, docs[0].ID))

	return nil
}

// ExportAccount exports the key pair of an account.
func (o *Command) ExportAccount(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &ExportAccountRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, ExportAccountMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	exported, err := o.store.ExportAccount(ctx, request.Address, request.Password)
	if err != nil {
		logutil.LogFailure(logger, CommandName, ExportAccountMethod, err)

		return command.NewExecuteError(ExportErrorCode, err)
	}

	command.WriteNillableResponse(rw, exported, logger)

	logutil.LogSuccess(logger, CommandName, ExportAccountMethod)

	return nil
}

// ExportWallet exports an encrypted backup of the wallet.
func (o *Command) ExportWallet(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &PasswordRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, ExportWalletMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	data, err := o.store.ExportWallet(ctx, request.Password)
	if err != nil {
		logutil.LogFailure(logger, CommandName, ExportWalletMethod, err)

		return command.NewExecuteError(ExportErrorCode, err)
	}

	command.WriteNillableResponse(rw, data, logger)

	logutil.LogSuccess(logger, CommandName, ExportWalletMethod)

	return nil
}

// ImportWallet imports an encrypted wallet backup.
func (o *Command) ImportWallet(ctx context.Context, rw io.Writer, req io.Reader) command.Error {
	request := &ImportWalletRequest{}

	if err := command.DecodeRequest(req, request); err != nil {
		logutil.LogFailure(logger, CommandName, ImportWalletMethod, err)

		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if err := o.store.ImportWallet(ctx, request.Data, request.Password); err != nil {
		logutil.LogFailure(logger, CommandName, ImportWalletMethod, err)

		return command.NewExecuteError(ImportErrorCode, err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogSuccess(logger, CommandName, ImportWalletMethod,
		logutil.KeyValue(logWalletIDKey, o.store.WalletID()))

	return nil
}
