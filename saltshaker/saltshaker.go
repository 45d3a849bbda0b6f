/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package saltshaker derives the per-leaf salts of a channel from the channel pepper.
//
// Salt n is HKDF-Expand(SHA-256, pepper, "salt" || uint64be(n)) truncated to 32 bytes. Rebuilding the leaves of
// a channel from the same pepper, in the same order, therefore reproduces the same salts, while the pepper cannot
// be recovered from any set of salts.
package saltshaker

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/tink/go/subtle/random"
	"golang.org/x/crypto/hkdf"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

const (
	// PepperSize is the size of a channel pepper in bytes.
	PepperSize = common.HashSize

	// SaltSize is the size of a derived salt in bytes.
	SaltSize = common.HashSize

	saltLabel = "salt"
)

// NewPepper returns a fresh pepper drawn from a cryptographically secure random source.
func NewPepper() []byte {
	return random.GetRandomBytes(PepperSize)
}

// ZeroPepper returns the pepper used by public channels.
func ZeroPepper() []byte {
	return make([]byte, PepperSize)
}

// SaltShaker is a deterministic salt stream. It is not safe for concurrent use.
type SaltShaker struct {
	pepper  []byte
	counter uint64
}

// New returns a salt stream seeded with pepper.
func New(pepper []byte) (*SaltShaker, error) {
	if len(pepper) != PepperSize {
		return nil, fmt.Errorf("%w: pepper must be %d bytes, got %d", common.ErrInvalidInput, PepperSize, len(pepper))
	}

	return &SaltShaker{pepper: append([]byte(nil), pepper...)}, nil
}

// Next returns the next salt of the stream.
func (s *SaltShaker) Next() ([]byte, error) {
	info := make([]byte, len(saltLabel)+8)
	copy(info, saltLabel)
	binary.BigEndian.PutUint64(info[len(saltLabel):], s.counter)

	salt := make([]byte, SaltSize)

	if _, err := io.ReadFull(hkdf.Expand(sha256.New, s.pepper, info), salt); err != nil {
		return nil, fmt.Errorf("derive salt %d: %w", s.counter, err)
	}

	s.counter++

	return salt, nil
}

// Count returns the number of salts drawn so far.
func (s *SaltShaker) Count() uint64 {
	return s.counter
}
