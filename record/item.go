/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

// UnassignedChannel is the channel id of a leaf that has not been assigned to a channel yet.
const UnassignedChannel = -1

// ValueType is the scalar type of a leaf value.
type ValueType int

const (
	// NullType is the type of a JSON null.
	NullType ValueType = iota
	// BooleanType is the type of a JSON boolean.
	BooleanType
	// NumberType is the type of a JSON number (int64 or float64).
	NumberType
	// StringType is the type of a JSON string.
	StringType
)

func (t ValueType) String() string {
	switch t {
	case NullType:
		return "null"
	case BooleanType:
		return "boolean"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	}

	return fmt.Sprintf("ValueType(%d)", int(t))
}

// TypeOf infers the scalar type of v and returns v normalized to one of nil, bool, int64, float64, string.
// Numbers with an integral value that fits int64 are always returned as int64, so that a number commits to the
// same bytes whether it was read from JSON, decoded from CBOR or decoded from a proof.
func TypeOf(v interface{}) (ValueType, interface{}, error) {
	switch val := v.(type) {
	case nil:
		return NullType, nil, nil
	case bool:
		return BooleanType, val, nil
	case string:
		return StringType, val, nil
	case int:
		return NumberType, int64(val), nil
	case int8:
		return NumberType, int64(val), nil
	case int16:
		return NumberType, int64(val), nil
	case int32:
		return NumberType, int64(val), nil
	case int64:
		return NumberType, val, nil
	case uint:
		return unsignedNumber(uint64(val))
	case uint8:
		return NumberType, int64(val), nil
	case uint16:
		return NumberType, int64(val), nil
	case uint32:
		return NumberType, int64(val), nil
	case uint64:
		return unsignedNumber(val)
	case float32:
		return floatNumber(float64(val))
	case float64:
		return floatNumber(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return NumberType, i, nil
		}

		f, err := val.Float64()
		if err != nil {
			return 0, nil, fmt.Errorf("%w: invalid number %s", common.ErrInvalidInput, val)
		}

		return floatNumber(f)
	}

	return 0, nil, fmt.Errorf("%w: unsupported scalar type %T", common.ErrInvalidInput, v)
}

func floatNumber(v float64) (ValueType, interface{}, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil, fmt.Errorf("%w: non finite number", common.ErrInvalidInput)
	}

	if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
		return NumberType, int64(v), nil
	}

	return NumberType, v, nil
}

func unsignedNumber(v uint64) (ValueType, interface{}, error) {
	if v > math.MaxInt64 {
		return NumberType, float64(v), nil
	}

	return NumberType, int64(v), nil
}

// TransformationKind selects how a string leaf is committed.
type TransformationKind int

const (
	// None commits the plain value.
	None TransformationKind = iota
	// Hashable commits the SHA-256 hash of the value, so that the value can later be replaced by its hash.
	Hashable
	// Maskable commits the visible and hidden parts separately, so that the hidden parts can be redacted.
	Maskable
)

func (k TransformationKind) String() string {
	switch k {
	case None:
		return "none"
	case Hashable:
		return "hashable"
	case Maskable:
		return "maskable"
	}

	return fmt.Sprintf("TransformationKind(%d)", int(k))
}

// Transformation is the disclosure transformation attached to a string leaf.
//
// For Maskable, VisibleParts alternates kept text (even indices) and the replacement text shown in place of
// the matching hidden part (odd indices), so len(VisibleParts) == 2*len(HiddenParts)+1.
type Transformation struct {
	Kind         TransformationKind
	VisibleParts []string
	HiddenParts  []string
}

// Reconstruct returns the original string of a maskable transformation.
func (t *Transformation) Reconstruct() string {
	var sb strings.Builder

	for i, part := range t.VisibleParts {
		if i%2 == 0 {
			sb.WriteString(part)

			continue
		}

		if i/2 < len(t.HiddenParts) {
			sb.WriteString(t.HiddenParts[i/2])
		}
	}

	return sb.String()
}

// Masked returns the string with each hidden part replaced by its replacement text.
func (t *Transformation) Masked() string {
	return strings.Join(t.VisibleParts, "")
}

// Validate checks the shape of a transformation.
func (t *Transformation) Validate() error {
	switch t.Kind {
	case None, Hashable:
		if len(t.VisibleParts) != 0 || len(t.HiddenParts) != 0 {
			return fmt.Errorf("%w: %s transformation must not carry parts", common.ErrInvalidInput, t.Kind)
		}
	case Maskable:
		if len(t.VisibleParts) != 2*len(t.HiddenParts)+1 {
			return fmt.Errorf("%w: maskable transformation has %d visible parts for %d hidden parts",
				common.ErrInvalidInput, len(t.VisibleParts), len(t.HiddenParts))
		}
	default:
		return fmt.Errorf("%w: unknown transformation %s", common.ErrInvalidInput, t.Kind)
	}

	return nil
}

// Item is a scalar leaf value with its channel assignment.
type Item struct {
	Type      ValueType
	Value     interface{}
	ChannelID int
	// Transformation is nil for non-string values.
	Transformation *Transformation
}

// NewItem builds an unassigned item from a scalar value.
func NewItem(v interface{}) (Item, error) {
	t, normalized, err := TypeOf(v)
	if err != nil {
		return Item{}, err
	}

	item := Item{Type: t, Value: normalized, ChannelID: UnassignedChannel}
	if t == StringType {
		item.Transformation = &Transformation{Kind: None}
	}

	return item, nil
}

// TransformationKind returns the kind of the item transformation, None when the item carries none.
func (i *Item) TransformationKind() TransformationKind {
	if i.Transformation == nil {
		return None
	}

	return i.Transformation.Kind
}

// FlatItem is a leaf item together with its path in the document.
type FlatItem struct {
	Path Path
	Item Item
}
