/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-wallet-go/component/log"
	"github.com/hyperledger/aries-wallet-go/pkg/common/walleterr"
)

func TestErrors(t *testing.T) {
	t.Run("validation error defaults to ValidationError kind", func(t *testing.T) {
		err := NewValidationError(Code(Wallet), errors.New("bad request"))
		require.Equal(t, ValidationError, err.Type())
		require.Equal(t, Code(Wallet), err.Code())
		require.Equal(t, walleterr.ValidationError, err.Kind())
		require.EqualError(t, err, "bad request")
	})

	t.Run("kinds are preserved", func(t *testing.T) {
		err := NewExecuteError(Code(Wallet)+1, walleterr.New(walleterr.NotFound, "missing"))
		require.Equal(t, ExecuteError, err.Type())
		require.Equal(t, walleterr.NotFound, err.Kind())
		require.Equal(t, walleterr.NotFound, walleterr.KindOf(err))

		err = NewValidationError(Code(Wallet), walleterr.New(walleterr.NoActiveWallet, "no wallet"))
		require.Equal(t, walleterr.NoActiveWallet, err.Kind())

		err = NewExecuteError(Code(Wallet), errors.New("boom"))
		require.Equal(t, walleterr.InternalFailure, err.Kind())
	})
}

func TestWriteNillableResponse(t *testing.T) {
	var b bytes.Buffer

	WriteNillableResponse(&b, nil, log.New("test"))
	require.Equal(t, "{}\n", b.String())

	b.Reset()
	WriteNillableResponse(&b, map[string]int{"a": 1}, log.New("test"))
	require.JSONEq(t, `{"a":1}`, b.String())
}

func TestDecodeRequest(t *testing.T) {
	var v struct{ ID string }

	require.NoError(t, DecodeRequest(strings.NewReader(""), &v))
	require.NoError(t, DecodeRequest(strings.NewReader(`{"id":"x"}`), &v))
	require.Equal(t, "x", v.ID)
	require.Error(t, DecodeRequest(strings.NewReader(`{`), &v))
}
