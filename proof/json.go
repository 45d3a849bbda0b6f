/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
)

// ToJSON rebuilds the document from the disclosed leaves of every channel. Removed object members are omitted
// and removed array elements are null. Hashed leaves show the hex encoded hash of their value, masked leaves
// their visible text. An array index not below the number of leaves of the record is an integrity error.
func (r *Record) ToJSON() ([]byte, error) {
	doc, err := r.toValue()
	if err != nil {
		return nil, err
	}

	return json.Marshal(doc)
}

func (r *Record) toValue() (interface{}, error) {
	var doc interface{}

	nLeaves := 0
	for _, ch := range r.channels {
		nLeaves += len(ch.slots)
	}

	for _, id := range r.ChannelIDs() {
		for _, s := range r.channels[id].slots {
			if s.leaf == nil {
				continue
			}

			value, ok := s.leaf.RawValue()
			if !ok {
				continue
			}

			var err error

			doc, err = insert(doc, s.path, value, nLeaves)
			if err != nil {
				return nil, err
			}
		}
	}

	if doc == nil {
		doc = map[string]interface{}{}
	}

	return doc, nil
}

// insert sets value at path inside node, creating the intermediate containers, and returns the updated node.
// Array indexes must be below maxLen.
func insert(node interface{}, path record.Path, value interface{}, maxLen int) (interface{}, error) {
	if len(path) == 0 {
		if node != nil {
			return nil, fmt.Errorf("%w: conflicting values at the same path", common.ErrIntegrity)
		}

		return value, nil
	}

	seg := path[0]

	if seg.IsIndex() {
		arr, ok := node.([]interface{})
		if node != nil && !ok {
			return nil, fmt.Errorf("%w: index %s used on an object", common.ErrIntegrity, path)
		}

		if seg.Index() < 0 || seg.Index() >= maxLen {
			return nil, fmt.Errorf("%w: index %s out of range for %d leaves", common.ErrIntegrity, path, maxLen)
		}

		for len(arr) <= seg.Index() {
			arr = append(arr, nil)
		}

		child, err := insert(arr[seg.Index()], path[1:], value, maxLen)
		if err != nil {
			return nil, err
		}

		arr[seg.Index()] = child

		return arr, nil
	}

	obj, ok := node.(map[string]interface{})
	if node != nil && !ok {
		return nil, fmt.Errorf("%w: key %s used on an array", common.ErrIntegrity, path)
	}

	if obj == nil {
		obj = make(map[string]interface{})
	}

	child, err := insert(obj[seg.Key()], path[1:], value, maxLen)
	if err != nil {
		return nil, err
	}

	obj[seg.Key()] = child

	return obj, nil
}
