/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

// Type tells whether a call failed on its params or while running.
type Type int32

const (
	// ValidationError marks params rejected before the method ran.
	ValidationError Type = iota
	// ExecuteError marks a method that failed while running.
	ExecuteError
)

// Code numbers a failure within its Group.
type Code int32

// UnknownStatus is the code of failures no service claims.
const UnknownStatus Code = 0

// Group is the first Code of a service, services are 1000 apart.
type Group int32

const (
	// Wallet error group for wallet store command errors.
	Wallet Group = 1000
	// Keyring error group for keyring command errors.
	Keyring Group = 2000
	// DID error group for DID command errors.
	DID Group = 3000
	// Dock error group for chain connection command errors.
	Dock Group = 4000
	// Dispatcher error group for request routing errors.
	Dispatcher Group = 5000
)

// Error is the failure of a service method, nil when the method succeeded.
type Error interface {
	error
	Code() Code
	Type() Type
	// Kind returns the wallet error kind reported across the RPC boundary.
	Kind() walleterr.Kind
}

// NewValidationError reports params rejected by a validator. Errors without a wallet error kind
// are reported as ValidationError.
func NewValidationError(code Code, err error) Error {
	kind := walleterr.KindOf(err)
	if kind == walleterr.InternalFailure {
		kind = walleterr.ValidationError
	}

	return &commandError{err, code, ValidationError, kind}
}

// NewExecuteError reports a method that failed while running, keeping the kind of err.
func NewExecuteError(code Code, err error) Error {
	return &commandError{err, code, ExecuteError, walleterr.KindOf(err)}
}

type commandError struct {
	error
	code    Code
	errType Type
	kind    walleterr.Kind
}

func (c *commandError) Code() Code {
	return c.code
}

func (c *commandError) Type() Type {
	return c.errType
}

func (c *commandError) Kind() walleterr.Kind {
	return c.kind
}

func (c *commandError) Unwrap() error {
	return c.error
}
