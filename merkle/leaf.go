/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package merkle

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/saltshaker"
)

// Leaf is the commitment of one scalar field. A Leaf is immutable: narrowing returns a new Leaf.
type Leaf struct {
	data LeafData
}

// NewLeaf wraps leaf data. The data is validated when the leaf is hashed.
func NewLeaf(data LeafData) *Leaf {
	return &Leaf{data: data}
}

// NewPublicLeaf builds the unsalted leaf of a public channel item.
func NewPublicLeaf(item record.Item) (*Leaf, error) {
	if item.TransformationKind() != record.None {
		return nil, fmt.Errorf("%w: %s transformation is not allowed on a public channel",
			common.ErrInvalidInput, item.TransformationKind())
	}

	return &Leaf{data: PublicData{Value: item.Value}}, nil
}

// NewPlainLeaf builds a salted, fully disclosed leaf.
func NewPlainLeaf(item record.Item, shaker *saltshaker.SaltShaker) (*Leaf, error) {
	salt, err := shaker.Next()
	if err != nil {
		return nil, err
	}

	return &Leaf{data: PlainData{Salt: salt, Value: item.Value}}, nil
}

// NewHashedLeaf builds a hashable leaf from a string item.
func NewHashedLeaf(item record.Item, shaker *saltshaker.SaltShaker) (*Leaf, error) {
	value, ok := item.Value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: hashable leaf requires a string, got %s", common.ErrInvalidInput, item.Type)
	}

	salt, err := shaker.Next()
	if err != nil {
		return nil, err
	}

	return &Leaf{data: HashableFromValueData{Salt: salt, Value: value}}, nil
}

// NewMaskedLeaf builds a maskable leaf from a string item carrying a maskable transformation.
// The visible side draws its salt first.
func NewMaskedLeaf(item record.Item, shaker *saltshaker.SaltShaker) (*Leaf, error) {
	t := item.Transformation
	if t == nil || t.Kind != record.Maskable {
		return nil, fmt.Errorf("%w: maskable leaf requires a maskable transformation", common.ErrInvalidInput)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if value, ok := item.Value.(string); !ok || t.Reconstruct() != value {
		return nil, fmt.Errorf("%w: mask parts do not reconstruct the value", common.ErrInvalidInput)
	}

	visibleSalt, err := shaker.Next()
	if err != nil {
		return nil, err
	}

	hiddenSalt, err := shaker.Next()
	if err != nil {
		return nil, err
	}

	return &Leaf{data: MaskableFromAllPartsData{
		Visible: PartsData{Salt: visibleSalt, Parts: copyStrings(t.VisibleParts)},
		Hidden:  PartsData{Salt: hiddenSalt, Parts: copyStrings(t.HiddenParts)},
	}}, nil
}

// LeafFromItem builds the construction-time leaf matching the transformation of item.
func LeafFromItem(item record.Item, isPublic bool, shaker *saltshaker.SaltShaker) (*Leaf, error) {
	if isPublic {
		return NewPublicLeaf(item)
	}

	switch item.TransformationKind() {
	case record.None:
		return NewPlainLeaf(item, shaker)
	case record.Hashable:
		return NewHashedLeaf(item, shaker)
	case record.Maskable:
		return NewMaskedLeaf(item, shaker)
	}

	return nil, fmt.Errorf("%w: unknown transformation %s", common.ErrInvalidInput, item.TransformationKind())
}

// Data returns the leaf data.
func (l *Leaf) Data() LeafData {
	return l.data
}

// Hash returns the commitment hash of the leaf. Every state of a leaf commits to the same hash.
func (l *Leaf) Hash() ([]byte, error) {
	switch d := l.data.(type) {
	case PublicData:
		return common.HashCanonical(publicCommitment{Value: d.Value})
	case PlainData:
		return common.HashCanonical(plainCommitment{Salt: d.Salt, Value: d.Value})
	case HashableFromValueData:
		return common.HashCanonical(hashableCommitment{Salt: d.Salt, Hash: common.SHA256([]byte(d.Value))})
	case HashableData:
		return common.HashCanonical(hashableCommitment{Salt: d.Salt, Hash: d.Hash})
	case MaskableFromAllPartsData:
		visibleHash, err := hashParts(d.Visible)
		if err != nil {
			return nil, err
		}

		hiddenHash, err := hashParts(d.Hidden)
		if err != nil {
			return nil, err
		}

		return common.HashCanonical(maskableCommitment{VisibleHash: visibleHash, HiddenHash: hiddenHash})
	case MaskableFromVisiblePartsData:
		visibleHash, err := hashParts(d.Visible)
		if err != nil {
			return nil, err
		}

		return common.HashCanonical(maskableCommitment{VisibleHash: visibleHash, HiddenHash: d.HiddenHash})
	case MaskableData:
		return common.HashCanonical(maskableCommitment{VisibleHash: d.VisibleHash, HiddenHash: d.HiddenHash})
	}

	return nil, fmt.Errorf("%w: unknown leaf data %T", common.ErrInvalidInput, l.data)
}

func hashParts(p PartsData) ([]byte, error) {
	return common.HashCanonical(partsCommitment{Salt: p.Salt, Parts: p.Parts})
}

// Hashed returns the leaf with its value replaced by the value hash. It is a no-op on an already hashed leaf
// and fails on leaves that were not built as hashable.
func (l *Leaf) Hashed() (*Leaf, error) {
	switch d := l.data.(type) {
	case HashableFromValueData:
		return &Leaf{data: HashableData{Salt: d.Salt, Hash: common.SHA256([]byte(d.Value))}}, nil
	case HashableData:
		return l, nil
	case PublicData, PlainData, MaskableFromAllPartsData, MaskableFromVisiblePartsData, MaskableData:
	}

	return nil, fmt.Errorf("%w: %s leaf cannot be hashed", common.ErrInvalidInput, l.Kind())
}

// Masked returns the leaf with its hidden parts replaced by their hash. It is a no-op on an already masked leaf
// and fails on leaves that were not built as maskable.
func (l *Leaf) Masked() (*Leaf, error) {
	switch d := l.data.(type) {
	case MaskableFromAllPartsData:
		hiddenHash, err := hashParts(d.Hidden)
		if err != nil {
			return nil, err
		}

		return &Leaf{data: MaskableFromVisiblePartsData{Visible: d.Visible, HiddenHash: hiddenHash}}, nil
	case MaskableFromVisiblePartsData, MaskableData:
		return l, nil
	case PublicData, PlainData, HashableFromValueData, HashableData:
	}

	return nil, fmt.Errorf("%w: %s leaf cannot be masked", common.ErrInvalidInput, l.Kind())
}

// Kind returns the proof field type naming the leaf state.
func (l *Leaf) Kind() FieldType {
	switch l.data.(type) {
	case PublicData:
		return PublicField
	case PlainData:
		return PlainField
	case HashableFromValueData:
		return HashableFromValueField
	case HashableData:
		return HashableField
	case MaskableFromAllPartsData:
		return MaskableFromAllPartsField
	case MaskableFromVisiblePartsData:
		return MaskableFromVisiblePartsField
	case MaskableData:
		return maskableCommitmentField
	}

	return FieldType(fmt.Sprintf("%T", l.data))
}

// IsHashable reports whether the leaf was built as hashable.
func (l *Leaf) IsHashable() bool {
	switch l.data.(type) {
	case HashableFromValueData, HashableData:
		return true
	case PublicData, PlainData, MaskableFromAllPartsData, MaskableFromVisiblePartsData, MaskableData:
	}

	return false
}

// IsMaskable reports whether the leaf was built as maskable.
func (l *Leaf) IsMaskable() bool {
	switch l.data.(type) {
	case MaskableFromAllPartsData, MaskableFromVisiblePartsData, MaskableData:
		return true
	case PublicData, PlainData, HashableFromValueData, HashableData:
	}

	return false
}

// RawValue returns the human readable value of the leaf: the value itself when known, the hex encoded value hash
// of a hashed leaf, the masked text of a masked leaf. ok is false for the pure commitment form of a maskable leaf.
func (l *Leaf) RawValue() (value interface{}, ok bool) {
	switch d := l.data.(type) {
	case PublicData:
		return d.Value, true
	case PlainData:
		return d.Value, true
	case HashableFromValueData:
		return d.Value, true
	case HashableData:
		return hex.EncodeToString(d.Hash), true
	case MaskableFromAllPartsData:
		t := record.Transformation{Kind: record.Maskable, VisibleParts: d.Visible.Parts, HiddenParts: d.Hidden.Parts}

		return t.Reconstruct(), true
	case MaskableFromVisiblePartsData:
		return strings.Join(d.Visible.Parts, ""), true
	case MaskableData:
	}

	return nil, false
}

// ValueType returns the scalar type of the leaf value. Hashable and maskable leaves are always strings.
func (l *Leaf) ValueType() record.ValueType {
	switch d := l.data.(type) {
	case PublicData:
		t, _, err := record.TypeOf(d.Value)
		if err == nil {
			return t
		}
	case PlainData:
		t, _, err := record.TypeOf(d.Value)
		if err == nil {
			return t
		}
	case HashableFromValueData, HashableData, MaskableFromAllPartsData, MaskableFromVisiblePartsData, MaskableData:
	}

	return record.StringType
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)

	return out
}
