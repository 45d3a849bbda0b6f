/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package record flattens a JSON document into addressable leaf items and lets the document producer decide,
field by field, how each leaf is published.

Every scalar of the document becomes a FlatItem addressed by its Path. Items are assigned to channels with
path patterns rooted at "this":

	this.firstname        a single leaf
	this.object.bar[1]    an array element
	this["key.with.dot"]  a quoted key
	this.object.*         a prefix and every leaf under it

String leaves may further be marked as hashable (the value can later be replaced by its SHA-256 hash) or
maskable (parts of the value can later be hidden behind replacement text).
*/
package record

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

var logger = log.New("aries-framework/merklerecord/record")

// Record is a flattened document.
type Record struct {
	items          []FlatItem
	publicChannels map[int]bool
}

// FromJSON flattens a JSON document depth-first, in document order.
func FromJSON(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON document", common.ErrInvalidInput)
	}

	r := &Record{publicChannels: make(map[int]bool)}
	seen := make(map[string]bool)

	if err := r.flatten(nil, gjson.ParseBytes(data), seen); err != nil {
		return nil, err
	}

	logger.Debugf("flattened document into %d items", len(r.items))

	return r, nil
}

// FromValue flattens an in-memory value (maps, slices and scalars). Map keys are visited in sorted order.
func FromValue(v interface{}) (*Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal value: %s", common.ErrInvalidInput, err.Error())
	}

	return FromJSON(data)
}

func (r *Record) flatten(path Path, v gjson.Result, seen map[string]bool) error {
	var err error

	switch {
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			err = r.flatten(path.Append(KeySegment(key.String())), value, seen)

			return err == nil
		})
	case v.IsArray():
		index := 0

		v.ForEach(func(_, value gjson.Result) bool {
			err = r.flatten(path.Append(IndexSegment(index)), value, seen)
			index++

			return err == nil
		})
	default:
		var scalar interface{}

		scalar, err = scalarValue(v)
		if err != nil {
			return err
		}

		key := path.String()
		if seen[key] {
			return fmt.Errorf("%w: duplicate path %s", common.ErrInvalidInput, key)
		}

		seen[key] = true

		var item Item

		item, err = NewItem(scalar)
		if err != nil {
			return err
		}

		r.items = append(r.items, FlatItem{Path: path, Item: item})
	}

	return err
}

func scalarValue(v gjson.Result) (interface{}, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		return v.String(), nil
	case gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return i, nil
		}

		return v.Num, nil
	case gjson.JSON:
	}

	return nil, fmt.Errorf("%w: unexpected JSON value %s", common.ErrInvalidInput, v.Raw)
}

// Items returns a copy of the flattened items, in flattening order.
func (r *Record) Items() []FlatItem {
	out := make([]FlatItem, len(r.items))
	copy(out, r.items)

	return out
}

// SetChannel assigns every leaf matched by pattern to channel id.
func (r *Record) SetChannel(pattern string, id int) error {
	if id < 0 {
		return fmt.Errorf("%w: invalid channel id %d", common.ErrInvalidInput, id)
	}

	return r.apply(pattern, func(fi *FlatItem) error {
		fi.Item.ChannelID = id

		return nil
	})
}

// SetPublicChannel declares channel id as public: its values are never hidden and its root is the null hash.
func (r *Record) SetPublicChannel(id int) error {
	if id < 0 {
		return fmt.Errorf("%w: invalid channel id %d", common.ErrInvalidInput, id)
	}

	r.publicChannels[id] = true

	return nil
}

// IsPublicChannel reports whether channel id has been declared public.
func (r *Record) IsPublicChannel(id int) bool {
	return r.publicChannels[id]
}

// PublicChannels returns the public channel ids in ascending order.
func (r *Record) PublicChannels() []int {
	ids := make([]int, 0, len(r.publicChannels))
	for id := range r.publicChannels {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

// SetAsHashable marks every string leaf matched by pattern as hashable.
func (r *Record) SetAsHashable(pattern string) error {
	return r.apply(pattern, func(fi *FlatItem) error {
		if fi.Item.Type != StringType {
			return fmt.Errorf("%w: %s is a %s, only strings can be hashable", common.ErrInvalidInput, fi.Path, fi.Item.Type)
		}

		fi.Item.Transformation = &Transformation{Kind: Hashable}

		return nil
	})
}

// SetMaskByPositions masks the given byte intervals of every string leaf matched by pattern.
func (r *Record) SetMaskByPositions(pattern string, parts []MaskPart) error {
	return r.apply(pattern, func(fi *FlatItem) error {
		value, err := maskTarget(fi)
		if err != nil {
			return err
		}

		t, err := NewMaskableTransformation(value, parts)
		if err != nil {
			return fmt.Errorf("mask %s: %w", fi.Path, err)
		}

		fi.Item.Transformation = t

		return nil
	})
}

// SetMaskByRegex masks every string leaf matched by pattern, deriving the intervals from the capture groups of re.
// See MaskPartsFromRegex for the substitution rules.
func (r *Record) SetMaskByRegex(pattern string, re *regexp.Regexp, substitution string) error {
	return r.apply(pattern, func(fi *FlatItem) error {
		value, err := maskTarget(fi)
		if err != nil {
			return err
		}

		parts, err := MaskPartsFromRegex(value, re, substitution)
		if err != nil {
			return fmt.Errorf("mask %s: %w", fi.Path, err)
		}

		t, err := NewMaskableTransformation(value, parts)
		if err != nil {
			return fmt.Errorf("mask %s: %w", fi.Path, err)
		}

		fi.Item.Transformation = t

		return nil
	})
}

func maskTarget(fi *FlatItem) (string, error) {
	value, ok := fi.Item.Value.(string)
	if fi.Item.Type != StringType || !ok {
		return "", fmt.Errorf("%w: %s is a %s, only strings can be masked", common.ErrInvalidInput, fi.Path, fi.Item.Type)
	}

	return value, nil
}

// apply runs fn on a copy of every item matched by pattern and commits the copies only when all succeed.
func (r *Record) apply(pattern string, fn func(*FlatItem) error) error {
	p, err := ParsePattern(pattern)
	if err != nil {
		return err
	}

	updated := r.Items()
	matched := 0

	for i := range updated {
		if !p.Match(updated[i].Path) {
			continue
		}

		if err := fn(&updated[i]); err != nil {
			return err
		}

		matched++
	}

	if matched == 0 {
		return fmt.Errorf("%w: no field matches %s", common.ErrNotFound, pattern)
	}

	r.items = updated

	return nil
}
