/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"net/http"

	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
)

// NewHTTPHandler binds handle to an HTTP method on path.
func NewHTTPHandler(path, method string, handle http.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{path: path, method: method, handle: handle}
}

// HTTPHandler is one route of the REST router.
type HTTPHandler struct {
	path   string
	method string
	handle http.HandlerFunc
}

// Path of the route.
func (h *HTTPHandler) Path() string { return h.path }

// Method is the HTTP method of the route.
func (h *HTTPHandler) Method() string { return h.method }

// Handle serves the route.
func (h *HTTPHandler) Handle() http.HandlerFunc { return h.handle }

// NewCommandHandler binds exec to method of service. validate may be nil.
func NewCommandHandler(service, method string, validate command.Validator, exec command.Exec) *CommandHandler {
	return &CommandHandler{service: service, method: method, validate: validate, exec: exec}
}

// CommandHandler is one method registered with the dispatcher.
type CommandHandler struct {
	service  string
	method   string
	validate command.Validator
	exec     command.Exec
}

// Name of the service owning the method.
func (c *CommandHandler) Name() string { return c.service }

// Method name as called over RPC.
func (c *CommandHandler) Method() string { return c.method }

// Validator of the params, nil when the method takes any.
func (c *CommandHandler) Validator() command.Validator { return c.validate }

// Handle runs the method.
func (c *CommandHandler) Handle() command.Exec { return c.exec }
