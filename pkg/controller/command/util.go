/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/hyperledger/aries-wallet-go/spi/log"
)

// WriteNillableResponse encodes v to w as JSON, a nil v is written as an empty object.
func WriteNillableResponse(w io.Writer, v interface{}, l log.Logger) {
	if v == nil {
		v = struct{}{}
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Errorf("write result: %s", err)
	}
}

// DecodeRequest decodes a JSON request into v, an empty request leaves v untouched.
func DecodeRequest(req io.Reader, v interface{}) error {
	err := json.NewDecoder(req).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}
