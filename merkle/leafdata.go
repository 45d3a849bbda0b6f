/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package merkle

// LeafData is the commitment state of one leaf. It is implemented by PublicData, PlainData,
// HashableFromValueData, HashableData, MaskableFromAllPartsData, MaskableFromVisiblePartsData and MaskableData,
// and by nothing else.
type LeafData interface {
	leafData()
}

// PublicData is a leaf of a public channel: the value is committed without salt.
type PublicData struct {
	Value interface{}
}

// PlainData is a salted, fully disclosed leaf.
type PlainData struct {
	Salt  []byte
	Value interface{}
}

// HashableFromValueData is a hashable leaf whose value is still known. It commits like HashableData.
type HashableFromValueData struct {
	Salt  []byte
	Value string
}

// HashableData is a hashable leaf reduced to the SHA-256 hash of its value.
type HashableData struct {
	Salt []byte
	Hash []byte
}

// PartsData is one side (visible or hidden) of a maskable leaf.
type PartsData struct {
	Salt  []byte
	Parts []string
}

// MaskableFromAllPartsData is a maskable leaf with both sides known.
type MaskableFromAllPartsData struct {
	Visible PartsData
	Hidden  PartsData
}

// MaskableFromVisiblePartsData is a maskable leaf whose hidden side is reduced to its hash.
type MaskableFromVisiblePartsData struct {
	Visible    PartsData
	HiddenHash []byte
}

// MaskableData is the commitment form of a maskable leaf: both sides reduced to their hashes.
type MaskableData struct {
	VisibleHash []byte
	HiddenHash  []byte
}

func (PublicData) leafData()                   {}
func (PlainData) leafData()                    {}
func (HashableFromValueData) leafData()        {}
func (HashableData) leafData()                 {}
func (MaskableFromAllPartsData) leafData()     {}
func (MaskableFromVisiblePartsData) leafData() {}
func (MaskableData) leafData()                 {}

// committed structures, hashed over their canonical CBOR encoding.
type (
	publicCommitment struct {
		Value interface{} `cbor:"value"`
	}

	plainCommitment struct {
		Salt  []byte      `cbor:"salt"`
		Value interface{} `cbor:"value"`
	}

	hashableCommitment struct {
		Salt []byte `cbor:"salt"`
		Hash []byte `cbor:"hash"`
	}

	partsCommitment struct {
		Salt  []byte   `cbor:"salt"`
		Parts []string `cbor:"parts"`
	}

	maskableCommitment struct {
		VisibleHash []byte `cbor:"visibleHash"`
		HiddenHash  []byte `cbor:"hiddenHash"`
	}
)
