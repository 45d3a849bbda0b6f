/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package record

import (
	"fmt"
	"sort"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

// ByChannels holds the items of a record grouped by channel.
type ByChannels struct {
	channels       map[int][]FlatItem
	publicChannels map[int]bool
}

// NewByChannels returns an empty grouping, to be filled with SetChannel.
func NewByChannels() *ByChannels {
	return &ByChannels{
		channels:       make(map[int][]FlatItem),
		publicChannels: make(map[int]bool),
	}
}

// FromRecord groups the items of r by channel, preserving flattening order within each channel.
// Every item must have been assigned to a channel.
func FromRecord(r *Record) (*ByChannels, error) {
	bc := NewByChannels()

	for _, fi := range r.items {
		if fi.Item.ChannelID == UnassignedChannel {
			return nil, fmt.Errorf("%w: field %s is not assigned to any channel", common.ErrInvalidInput, fi.Path)
		}

		bc.channels[fi.Item.ChannelID] = append(bc.channels[fi.Item.ChannelID], fi)
	}

	for id := range r.publicChannels {
		bc.publicChannels[id] = true
	}

	return bc, nil
}

// SetChannel registers the items of one channel. A channel can only be set once.
func (bc *ByChannels) SetChannel(id int, isPublic bool, items []FlatItem) error {
	if _, ok := bc.channels[id]; ok {
		return fmt.Errorf("%w: channel %d is already set", common.ErrIntegrity, id)
	}

	out := make([]FlatItem, len(items))

	for i, fi := range items {
		fi.Item.ChannelID = id
		out[i] = fi
	}

	bc.channels[id] = out

	if isPublic {
		bc.publicChannels[id] = true
	}

	return nil
}

// ChannelIDs returns the registered channel ids in ascending order.
func (bc *ByChannels) ChannelIDs() []int {
	ids := make([]int, 0, len(bc.channels))
	for id := range bc.channels {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

// Items returns the items of channel id.
func (bc *ByChannels) Items(id int) ([]FlatItem, error) {
	items, ok := bc.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", common.ErrNotFound, id)
	}

	out := make([]FlatItem, len(items))
	copy(out, items)

	return out, nil
}

// IsPublic reports whether channel id is public.
func (bc *ByChannels) IsPublic(id int) bool {
	return bc.publicChannels[id]
}
