/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package onchain encodes the committed channels of a record into the compact payloads published on the ledger,
and rebuilds a merkle.Record from such payloads.

A channel payload holds the channel pepper and the canonical CBOR encoding of its items. Together with the
published root hash it lets any holder of the payload regenerate every salt, rebuild every leaf and check that
the rebuilt channel commits to the published root.
*/
package onchain

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/codec"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/merkle"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/saltshaker"
)

var logger = log.New("aries-framework/merklerecord/onchain")

const (
	hashableTransformation = "hashable"
	maskableTransformation = "maskable"
)

// ChannelData is what the ledger layer publishes for one channel.
type ChannelData struct {
	IsPublic       bool   `cbor:"isPublic"`
	MerkleRootHash []byte `cbor:"merkleRootHash"`
	Data           []byte `cbor:"data"`
}

type payload struct {
	Pepper []byte `cbor:"pepper"`
	Data   []byte `cbor:"data"`
}

type item struct {
	Path           record.Path     `cbor:"path"`
	Value          interface{}     `cbor:"value"`
	Transformation *transformation `cbor:"transformation,omitempty"`
}

type transformation struct {
	Type         string   `cbor:"type"`
	VisibleParts []string `cbor:"visibleParts,omitempty"`
	HiddenParts  []string `cbor:"hiddenParts,omitempty"`
}

type channel struct {
	isPublic bool
	rootHash []byte
	pepper   []byte
	items    []item
}

// Record holds the on-chain form of every channel of a document.
type Record struct {
	channels map[int]*channel
}

// New returns an empty record, to be filled with AddOnChainData.
func New() *Record {
	return &Record{channels: make(map[int]*channel)}
}

// FromMerkleRecord encodes every channel of mr. The leaves of mr must still hold their construction state.
func FromMerkleRecord(mr *merkle.Record) (*Record, error) {
	roots, err := mr.ChannelRootHashes()
	if err != nil {
		return nil, err
	}

	r := New()

	for _, id := range mr.ChannelIDs() {
		pepper, err := mr.Pepper(id)
		if err != nil {
			return nil, err
		}

		leaves, err := mr.Leaves(id)
		if err != nil {
			return nil, err
		}

		ch := &channel{isPublic: mr.IsPublic(id), rootHash: roots[id], pepper: pepper, items: make([]item, len(leaves))}

		for i, pl := range leaves {
			ch.items[i], err = itemFromLeaf(pl)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", id, err)
			}
		}

		r.channels[id] = ch
	}

	return r, nil
}

func itemFromLeaf(pl merkle.PositionedLeaf) (item, error) {
	it := item{Path: pl.Path}

	switch d := pl.Leaf.Data().(type) {
	case merkle.PublicData:
		it.Value = d.Value
	case merkle.PlainData:
		it.Value = d.Value
	case merkle.HashableFromValueData:
		it.Value = d.Value
		it.Transformation = &transformation{Type: hashableTransformation}
	case merkle.MaskableFromAllPartsData:
		value, _ := pl.Leaf.RawValue()
		it.Value = value
		it.Transformation = &transformation{
			Type:         maskableTransformation,
			VisibleParts: d.Visible.Parts,
			HiddenParts:  d.Hidden.Parts,
		}
	case merkle.HashableData, merkle.MaskableFromVisiblePartsData, merkle.MaskableData:
		return item{}, fmt.Errorf("%w: field %s is redacted", common.ErrInvalidInput, pl.Path)
	}

	return it, nil
}

// ChannelIDs returns the channel ids in ascending order.
func (r *Record) ChannelIDs() []int {
	ids := make([]int, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

// OnChainData returns the publishable form of channel id.
func (r *Record) OnChainData(id int) (*ChannelData, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", common.ErrNotFound, id)
	}

	items, err := codec.Marshal(ch.items)
	if err != nil {
		return nil, fmt.Errorf("encode channel %d items: %w", id, err)
	}

	data, err := codec.Marshal(payload{Pepper: ch.pepper, Data: items})
	if err != nil {
		return nil, fmt.Errorf("encode channel %d: %w", id, err)
	}

	return &ChannelData{
		IsPublic:       ch.isPublic,
		MerkleRootHash: append([]byte(nil), ch.rootHash...),
		Data:           data,
	}, nil
}

// AddChannelData adds a channel read from the ledger.
func (r *Record) AddChannelData(id int, cd *ChannelData) error {
	return r.AddOnChainData(id, cd.IsPublic, cd.MerkleRootHash, cd.Data)
}

// AddOnChainData parses and adds the payload of channel id. Malformed payloads and channels added twice are
// integrity errors.
func (r *Record) AddOnChainData(id int, isPublic bool, rootHash, data []byte) error {
	if _, ok := r.channels[id]; ok {
		return fmt.Errorf("%w: channel %d is already set", common.ErrIntegrity, id)
	}

	if len(rootHash) != common.HashSize {
		return fmt.Errorf("%w: channel %d root hash must be %d bytes", common.ErrIntegrity, id, common.HashSize)
	}

	if isPublic && !common.IsNullHash(rootHash) {
		return fmt.Errorf("%w: public channel %d must have the null root hash", common.ErrIntegrity, id)
	}

	var p payload
	if err := codec.UnmarshalStrict(data, &p); err != nil {
		return fmt.Errorf("%w: decode channel %d: %s", common.ErrIntegrity, id, err.Error())
	}

	if len(p.Pepper) != saltshaker.PepperSize {
		return fmt.Errorf("%w: channel %d pepper must be %d bytes", common.ErrIntegrity, id, saltshaker.PepperSize)
	}

	if isPublic && !bytes.Equal(p.Pepper, saltshaker.ZeroPepper()) {
		return fmt.Errorf("%w: public channel %d must use the zero pepper", common.ErrIntegrity, id)
	}

	if err := validateItems(p.Data); err != nil {
		return fmt.Errorf("channel %d: %w", id, err)
	}

	var items []item
	if err := codec.UnmarshalStrict(p.Data, &items); err != nil {
		return fmt.Errorf("%w: decode channel %d items: %s", common.ErrIntegrity, id, err.Error())
	}

	r.channels[id] = &channel{
		isPublic: isPublic,
		rootHash: append([]byte(nil), rootHash...),
		pepper:   p.Pepper,
		items:    items,
	}

	logger.Debugf("added channel %d with %d items", id, len(items))

	return nil
}

type toMerkleOpts struct {
	skipHashCheck bool
}

// ToMerkleOpt is a ToMerkleRecord option.
type ToMerkleOpt func(opts *toMerkleOpts)

// WithoutHashCheck skips the comparison of the rebuilt roots with the published ones.
// Only use it on data from a trusted source.
func WithoutHashCheck() ToMerkleOpt {
	return func(opts *toMerkleOpts) {
		opts.skipHashCheck = true
	}
}

// ToMerkleRecord rebuilds every channel and, unless WithoutHashCheck is given, fails with an integrity error
// when a rebuilt private channel root differs from its published root. Item paths are not part of the roots.
func (r *Record) ToMerkleRecord(opts ...ToMerkleOpt) (*merkle.Record, error) {
	o := &toMerkleOpts{}

	for _, opt := range opts {
		opt(o)
	}

	bc := record.NewByChannels()
	peppers := make(map[int][]byte)

	for _, id := range r.ChannelIDs() {
		ch := r.channels[id]

		flat, err := ch.flatItems()
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", id, err)
		}

		if err := bc.SetChannel(id, ch.isPublic, flat); err != nil {
			return nil, err
		}

		if !ch.isPublic {
			peppers[id] = ch.pepper
		}
	}

	mr, err := merkle.FromRecordByChannels(bc, merkle.WithPeppers(peppers))
	if err != nil {
		return nil, err
	}

	if o.skipHashCheck {
		return mr, nil
	}

	roots, err := mr.ChannelRootHashes()
	if err != nil {
		return nil, err
	}

	for _, id := range r.ChannelIDs() {
		if !bytes.Equal(roots[id], r.channels[id].rootHash) {
			logger.Warnf("root hash mismatch on channel %d", id)

			return nil, fmt.Errorf("%w: channel %d root hash does not match the published one", common.ErrIntegrity, id)
		}
	}

	return mr, nil
}

func (ch *channel) flatItems() ([]record.FlatItem, error) {
	flat := make([]record.FlatItem, len(ch.items))
	seen := make(map[string]bool, len(ch.items))

	for i, it := range ch.items {
		if seen[it.Path.String()] {
			return nil, fmt.Errorf("%w: duplicate field %s", common.ErrIntegrity, it.Path)
		}

		seen[it.Path.String()] = true

		ri, err := record.NewItem(it.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", it.Path, err)
		}

		if it.Transformation != nil {
			if ri.Type != record.StringType {
				return nil, fmt.Errorf("%w: field %s: transformation on a %s", common.ErrIntegrity, it.Path, ri.Type)
			}

			switch it.Transformation.Type {
			case hashableTransformation:
				ri.Transformation = &record.Transformation{Kind: record.Hashable}
			case maskableTransformation:
				ri.Transformation = &record.Transformation{
					Kind:         record.Maskable,
					VisibleParts: it.Transformation.VisibleParts,
					HiddenParts:  it.Transformation.HiddenParts,
				}
			default:
				return nil, fmt.Errorf("%w: field %s: unknown transformation %q", common.ErrIntegrity, it.Path,
					it.Transformation.Type)
			}
		}

		flat[i] = record.FlatItem{Path: it.Path, Item: ri}
	}

	return flat, nil
}
