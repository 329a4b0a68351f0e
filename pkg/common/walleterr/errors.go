/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package walleterr defines the error kinds shared by wallet components and carried across the
// RPC boundary. A kind is a stable identifier callers can branch on; the message is for humans.
package walleterr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of wallet failure.
type Kind string

// Error kinds.
const (
	NoActiveWallet       Kind = "NoActiveWallet"
	BackendUnavailable   Kind = "BackendUnavailable"
	ValidationError      Kind = "ValidationError"
	NotFound             Kind = "NotFound"
	InvalidPassword      Kind = "InvalidPassword"
	WalletLocked         Kind = "WalletLocked"
	InvalidBackup        Kind = "InvalidBackup"
	UnknownService       Kind = "UnknownService"
	UnknownMethod        Kind = "UnknownMethod"
	InternalFailure      Kind = "InternalFailure"
	InvalidConfiguration Kind = "InvalidConfiguration"
	RateLimited          Kind = "RateLimited"
	// Timeout means the caller stopped waiting; the remote operation may or may not have run.
	Timeout Kind = "Timeout"
)

// Error is a wallet error of a given kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind caused by err.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}

	if e.Message == "" {
		return e.Err.Error()
	}

	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, walleterr.New(walleterr.NotFound, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, InternalFailure for foreign errors
// and the empty kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return InternalFailure
}

// IsKind reports whether err is of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the message of the outermost *Error in the chain, or err.Error() for foreign errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}

	return err.Error()
}
