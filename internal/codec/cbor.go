/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package codec wraps the canonical CBOR encoding used for every committed or persisted structure.
//
// Encoding follows RFC 8949 core deterministic encoding: sorted map keys, smallest integer
// and float encodings, no indefinite-length items. Re-encoding the same logical value always
// yields the same bytes, which is what commitment hashes are computed over.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode       cbor.EncMode
	decMode       cbor.DecMode
	strictDecMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// nil and empty slices must commit to the same bytes
	encOptions.NilContainers = cbor.NilContainerAsEmpty

	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	// Decoding into interface{} must yield map[string]interface{} so that decoded payloads can be
	// handed to JSON based tooling (schema validation, mapstructure).
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	strictDecMode, err = cbor.DecOptions{
		DefaultMapType:    reflect.TypeOf(map[string]interface{}(nil)),
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("codec: strict CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v using core deterministic encoding.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalStrict decodes CBOR data into v, rejecting duplicate map keys, indefinite-length
// items and fields unknown to the target struct. Used for data received from untrusted sources.
func UnmarshalStrict(data []byte, v interface{}) error {
	return strictDecMode.Unmarshal(data, v)
}

// Valid reports whether data holds exactly one well-formed CBOR data item.
func Valid(data []byte) error {
	return decMode.Wellformed(data)
}

// RawMessage is a raw encoded CBOR value.
type RawMessage = cbor.RawMessage
