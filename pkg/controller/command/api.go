/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package command defines the contract of service method handlers: a named method of a named
// service, an optional request validator and an execution function.
package command

import (
	"context"
	"encoding/json"
	"io"
)

// Exec runs a method, reading JSON params from req and writing the JSON result to rw.
type Exec func(ctx context.Context, rw io.Writer, req io.Reader) Error

// Validator checks a raw request before it reaches Exec. Validators never mutate state.
type Validator func(req json.RawMessage) error

// Handler is a method of a service as registered with the dispatcher.
type Handler interface {
	Name() string
	Method() string
	// Validator may return nil.
	Validator() Validator
	Handle() Exec
}
