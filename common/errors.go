/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import "errors"

var (
	// ErrInvalidInput is returned for caller errors: malformed path patterns, unresolved channels,
	// invalid masks, transformations applied to unsupported fields, missing peppers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrity is returned when data is inconsistent: a recomputed Merkle root differs from the
	// published one, an encoding is malformed, or a channel is referenced twice.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrNotFound is returned when a channel or a path does not exist.
	ErrNotFound = errors.New("not found")
)
