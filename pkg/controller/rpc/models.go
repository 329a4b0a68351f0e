/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rpc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
	"github.com/hyperledger/aries-wallet-go/pkg/controller/command"
)

// Request is a call of a service method.
type Request struct {
	ID      string          `json:"id"`
	Service string          `json:"service"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the outcome of a Request. Exactly one of Result and Error is meaningful, as told by OK.
type Response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is a failed Response payload.
type ErrorBody struct {
	Kind    walleterr.Kind `json:"kind"`
	Message string         `json:"message"`
	Code    command.Code   `json:"code,omitempty"`
}

// Err returns the response error as a wallet error, nil for successful responses.
func (r *Response) Err() error {
	if r.OK {
		return nil
	}

	if r.Error == nil {
		return walleterr.New(walleterr.InternalFailure, "response %s failed without error details", r.ID)
	}

	return walleterr.New(r.Error.Kind, "%s", r.Error.Message)
}

// NewRequest builds a request with a fresh id. params is JSON encoded unless it already is raw JSON.
func NewRequest(service, method string, params interface{}) (*Request, error) {
	raw, err := encodeParams(params)
	if err != nil {
		return nil, err
	}

	return &Request{ID: uuid.New().String(), Service: service, Method: method, Params: raw}, nil
}

func encodeParams(params interface{}) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return p, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "encode params")
	}

	return raw, nil
}

// mapRequest is the loosely typed form of a Request sent by bridge callers.
type mapRequest struct {
	ID      string      `mapstructure:"id"`
	Service string      `mapstructure:"service"`
	Method  string      `mapstructure:"method"`
	Params  interface{} `mapstructure:"params"`
}

// ReadRequest decodes one request from r. Numeric request ids are accepted and kept as their decimal
// text, numbers in params keep their exact literal.
func ReadRequest(r io.Reader) (*Request, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var m map[string]interface{}

	if err := dec.Decode(&m); err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid request")
	}

	if m == nil {
		return nil, walleterr.New(walleterr.ValidationError, "invalid request: request is required")
	}

	return DecodeMapRequest(m)
}

// DecodeMapRequest converts a request received as a generic map into a Request.
func DecodeMapRequest(m map[string]interface{}) (*Request, error) {
	var mr mapRequest

	if err := mapstructure.Decode(m, &mr); err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationError, err, "invalid request")
	}

	raw, err := encodeParams(mr.Params)
	if err != nil {
		return nil, err
	}

	return &Request{ID: mr.ID, Service: mr.Service, Method: mr.Method, Params: raw}, nil
}

// DecodeResult returns the error of a failed response, or decodes the result into v.
func DecodeResult(resp *Response, v interface{}) error {
	if err := resp.Err(); err != nil {
		return err
	}

	if v == nil || len(resp.Result) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Result, v); err != nil {
		return walleterr.Wrap(walleterr.InternalFailure, err, "decode result of %s", resp.ID)
	}

	return nil
}

func errorResponse(id string, err error) *Response {
	body := &ErrorBody{Kind: walleterr.KindOf(err), Message: walleterr.MessageOf(err)}

	if cmdErr, ok := err.(command.Error); ok { //nolint:errorlint
		body.Kind = cmdErr.Kind()
		body.Code = cmdErr.Code()
	}

	if body.Kind == "" {
		body.Kind = walleterr.InternalFailure
	}

	return &Response{ID: id, Error: body}
}

func (r *Request) String() string {
	return fmt.Sprintf("%s.%s#%s", r.Service, r.Method, r.ID)
}
