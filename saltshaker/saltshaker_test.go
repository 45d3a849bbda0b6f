/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package saltshaker

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

func TestNew(t *testing.T) {
	_, err := New(make([]byte, 16))
	require.True(t, errors.Is(err, common.ErrInvalidInput))

	s, err := New(NewPepper())
	require.NoError(t, err)
	require.EqualValues(t, 0, s.Count())
}

func TestNext(t *testing.T) {
	pepper := NewPepper()

	first, err := New(pepper)
	require.NoError(t, err)

	second, err := New(pepper)
	require.NoError(t, err)

	seen := make(map[string]bool)

	for i := 0; i < 64; i++ {
		a, err := first.Next()
		require.NoError(t, err)
		require.Len(t, a, SaltSize)

		b, err := second.Next()
		require.NoError(t, err)

		require.Equal(t, a, b, "salt %d must be reproducible", i)
		require.False(t, seen[hex.EncodeToString(a)], "salt %d collides", i)
		seen[hex.EncodeToString(a)] = true
	}

	require.EqualValues(t, 64, first.Count())
}

func TestNextMatchesHKDFExpand(t *testing.T) {
	pepper := ZeroPepper()
	pepper[0] = 1

	s, err := New(pepper)
	require.NoError(t, err)

	salt, err := s.Next()
	require.NoError(t, err)

	// a 32 byte HKDF-Expand output is the first HMAC block: HMAC(prk, info || 0x01)
	mac := hmac.New(sha256.New, pepper)
	mac.Write(append([]byte("salt\x00\x00\x00\x00\x00\x00\x00\x00"), 1))
	require.Equal(t, mac.Sum(nil), salt)
}

func TestPeppers(t *testing.T) {
	require.Len(t, NewPepper(), PepperSize)
	require.False(t, bytes.Equal(NewPepper(), NewPepper()))
	require.True(t, common.IsNullHash(ZeroPepper()))

	a, err := New(NewPepper())
	require.NoError(t, err)

	b, err := New(NewPepper())
	require.NoError(t, err)

	sa, err := a.Next()
	require.NoError(t, err)

	sb, err := b.Next()
	require.NoError(t, err)

	require.NotEqual(t, sa, sb)
}
