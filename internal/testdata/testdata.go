/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package testdata

import _ "embed" // required for tests only

// Sample testdata files to be used for tests only.
// nolint:gochecknoglobals
var (
	// SampleDocument has 17 scalar leaves, including a null, nested arrays and an object.
	//go:embed samples/document.json
	SampleDocument []byte
	//go:embed samples/document_public_only.json
	SamplePublicDocument []byte
)
