/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package merkle

import (
	"encoding/hex"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
)

// FieldType names the disclosure state of a proof field.
type FieldType string

const (
	// PublicField is a field of a public channel.
	PublicField FieldType = "public"
	// PlainField is a salted, fully disclosed field.
	PlainField FieldType = "plain"
	// HashableFromValueField is a hashable field disclosed with its value.
	HashableFromValueField FieldType = "hashableFromValue"
	// HashableField is a hashable field disclosed as the hash of its value.
	HashableField FieldType = "hashable"
	// MaskableFromAllPartsField is a maskable field disclosed with its hidden parts.
	MaskableFromAllPartsField FieldType = "maskableFromAllParts"
	// MaskableFromVisiblePartsField is a maskable field disclosed with its visible parts only.
	MaskableFromVisiblePartsField FieldType = "maskableFromVisibleParts"

	maskableCommitmentField FieldType = "maskable"
)

// ProofField is the verifier facing form of a disclosed leaf. Salts and hashes are hex encoded.
type ProofField struct {
	Type         FieldType   `json:"type"`
	Path         record.Path `json:"path"`
	Index        int         `json:"index"`
	Salt         string      `json:"salt,omitempty"`
	Value        interface{} `json:"value,omitempty"`
	Hash         string      `json:"hash,omitempty"`
	VisibleSalt  string      `json:"visible_salt,omitempty"`
	VisibleParts []string    `json:"visible_parts,omitempty"`
	HiddenSalt   string      `json:"hidden_salt,omitempty"`
	HiddenParts  []string    `json:"hidden_parts,omitempty"`
	HiddenHash   string      `json:"hidden_hash,omitempty"`
}

// ToProofField exports the current state of the leaf, at position index of its channel.
func (l *Leaf) ToProofField(path record.Path, index int) (*ProofField, error) {
	f := &ProofField{Type: l.Kind(), Path: path, Index: index}

	switch d := l.data.(type) {
	case PublicData:
		f.Value = d.Value
	case PlainData:
		f.Salt = hex.EncodeToString(d.Salt)
		f.Value = d.Value
	case HashableFromValueData:
		f.Salt = hex.EncodeToString(d.Salt)
		f.Value = d.Value
	case HashableData:
		f.Salt = hex.EncodeToString(d.Salt)
		f.Hash = hex.EncodeToString(d.Hash)
	case MaskableFromAllPartsData:
		f.VisibleSalt = hex.EncodeToString(d.Visible.Salt)
		f.VisibleParts = copyStrings(d.Visible.Parts)
		f.HiddenSalt = hex.EncodeToString(d.Hidden.Salt)
		f.HiddenParts = copyStrings(d.Hidden.Parts)
	case MaskableFromVisiblePartsData:
		f.VisibleSalt = hex.EncodeToString(d.Visible.Salt)
		f.VisibleParts = copyStrings(d.Visible.Parts)
		f.HiddenHash = hex.EncodeToString(d.HiddenHash)
	case MaskableData:
		return nil, fmt.Errorf("%w: a maskable commitment carries no disclosed data", common.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown leaf data %T", common.ErrInvalidInput, l.data)
	}

	return f, nil
}

// LeafFromProofField rebuilds a leaf from its proof form.
func LeafFromProofField(f *ProofField) (*Leaf, error) {
	switch f.Type {
	case PublicField:
		value, err := scalar(f.Value)
		if err != nil {
			return nil, err
		}

		return &Leaf{data: PublicData{Value: value}}, nil
	case PlainField:
		salt, value, err := saltAndValue(f)
		if err != nil {
			return nil, err
		}

		return &Leaf{data: PlainData{Salt: salt, Value: value}}, nil
	case HashableFromValueField:
		salt, value, err := saltAndValue(f)
		if err != nil {
			return nil, err
		}

		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: hashable field %s must hold a string", common.ErrIntegrity, f.Path)
		}

		return &Leaf{data: HashableFromValueData{Salt: salt, Value: s}}, nil
	case HashableField:
		salt, err := decodeSalt(f.Salt)
		if err != nil {
			return nil, err
		}

		hash, err := common.DecodeHash(f.Hash)
		if err != nil {
			return nil, err
		}

		return &Leaf{data: HashableData{Salt: salt, Hash: hash}}, nil
	case MaskableFromAllPartsField:
		return maskableFromAllParts(f)
	case MaskableFromVisiblePartsField:
		visibleSalt, err := decodeSalt(f.VisibleSalt)
		if err != nil {
			return nil, err
		}

		if len(f.VisibleParts)%2 != 1 {
			return nil, fmt.Errorf("%w: maskable field %s has %d visible parts", common.ErrIntegrity, f.Path,
				len(f.VisibleParts))
		}

		hiddenHash, err := common.DecodeHash(f.HiddenHash)
		if err != nil {
			return nil, err
		}

		return &Leaf{data: MaskableFromVisiblePartsData{
			Visible:    PartsData{Salt: visibleSalt, Parts: copyStrings(f.VisibleParts)},
			HiddenHash: hiddenHash,
		}}, nil
	case maskableCommitmentField:
	}

	return nil, fmt.Errorf("%w: unknown proof field type %q", common.ErrIntegrity, f.Type)
}

func maskableFromAllParts(f *ProofField) (*Leaf, error) {
	visibleSalt, err := decodeSalt(f.VisibleSalt)
	if err != nil {
		return nil, err
	}

	hiddenSalt, err := decodeSalt(f.HiddenSalt)
	if err != nil {
		return nil, err
	}

	if len(f.VisibleParts) != 2*len(f.HiddenParts)+1 {
		return nil, fmt.Errorf("%w: maskable field %s has %d visible parts for %d hidden parts",
			common.ErrIntegrity, f.Path, len(f.VisibleParts), len(f.HiddenParts))
	}

	return &Leaf{data: MaskableFromAllPartsData{
		Visible: PartsData{Salt: visibleSalt, Parts: copyStrings(f.VisibleParts)},
		Hidden:  PartsData{Salt: hiddenSalt, Parts: copyStrings(f.HiddenParts)},
	}}, nil
}

func saltAndValue(f *ProofField) ([]byte, interface{}, error) {
	salt, err := decodeSalt(f.Salt)
	if err != nil {
		return nil, nil, err
	}

	value, err := scalar(f.Value)
	if err != nil {
		return nil, nil, err
	}

	return salt, value, nil
}

func scalar(v interface{}) (interface{}, error) {
	_, normalized, err := record.TypeOf(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrIntegrity, err.Error())
	}

	return normalized, nil
}

func decodeSalt(s string) ([]byte, error) {
	salt, err := common.DecodeHash(s)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}

	return salt, nil
}
