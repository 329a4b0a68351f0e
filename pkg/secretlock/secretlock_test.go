/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package secretlock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testIterations = 1000

func TestKey(t *testing.T) {
	salt := NewSalt()
	require.Len(t, salt, SaltSize)

	t.Run("empty password", func(t *testing.T) {
		_, err := DeriveKey("", salt, testIterations)
		require.EqualError(t, err, "secretlock: password is empty")
	})

	t.Run("seal and open", func(t *testing.T) {
		key, err := DeriveKey("pa55word", salt, testIterations)
		require.NoError(t, err)

		sealed := key.Seal([]byte("secret seed"), []byte("doc-1"))
		require.NotContains(t, string(sealed), "secret seed")

		pt, err := key.Open(sealed, []byte("doc-1"))
		require.NoError(t, err)
		require.Equal(t, "secret seed", string(pt))

		_, err = key.Open(sealed, []byte("doc-2"))
		require.ErrorIs(t, err, ErrOpen)

		_, err = key.Open("%%%", nil)
		require.Error(t, err)

		_, err = key.Open("AAAA", nil)
		require.EqualError(t, err, "secretlock: sealed value too short")
	})

	t.Run("verifier", func(t *testing.T) {
		key, err := DeriveKey("pa55word", salt, testIterations)
		require.NoError(t, err)

		other, err := DeriveKey("wrong", salt, testIterations)
		require.NoError(t, err)

		same, err := DeriveKey("pa55word", salt, testIterations)
		require.NoError(t, err)

		v := key.Verifier()
		require.True(t, same.Verify(v))
		require.False(t, other.Verify(v))

		otherSalt, err := DeriveKey("pa55word", NewSalt(), testIterations)
		require.NoError(t, err)
		require.False(t, otherSalt.Verify(v))
	})
}
