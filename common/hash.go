/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package common holds the hashing helpers and error taxonomy shared by the record, merkle, onchain and
// proof packages.
package common

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/codec"
)

// HashSize is the size in bytes of every hash, salt and pepper handled by this component.
const HashSize = sha256.Size

// NullHash returns the all-zero hash used as the root of public channels.
func NullHash() []byte {
	return make([]byte, HashSize)
}

// IsNullHash reports whether h is the all-zero hash.
func IsNullHash(h []byte) bool {
	return len(h) == HashSize && bytes.Equal(h, NullHash())
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)

	return sum[:]
}

// HashCanonical returns the SHA-256 digest of the canonical CBOR encoding of v.
func HashCanonical(v interface{}) ([]byte, error) {
	encoded, err := codec.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical encoding: %w", err)
	}

	return SHA256(encoded), nil
}

// DecodeHash decodes a hex encoded hash and checks its size.
func DecodeHash(s string) ([]byte, error) {
	h, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode hex hash: %s", ErrIntegrity, err.Error())
	}

	if len(h) != HashSize {
		return nil, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrIntegrity, HashSize, len(h))
	}

	return h, nil
}
