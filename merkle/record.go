/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package merkle commits the channels of a record.

Each item of a channel becomes a Leaf whose commitment hash depends on its value, its salt and its
transformation. The leaf hashes of a private channel, in flattening order, are the leaves of an RFC 6962 Merkle
tree whose root is the channel root hash. Public channels carry no salt and always report the null hash as root.

A Leaf can be narrowed (hashed or masked) without changing its commitment hash, which is what allows a proof
holder to redact a document while keeping the published roots valid.
*/
package merkle

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/hashtree"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/saltshaker"
)

var logger = log.New("aries-framework/merklerecord/merkle")

// PositionedLeaf is a leaf together with the path of the field it commits.
type PositionedLeaf struct {
	Path record.Path
	Leaf *Leaf
}

type channel struct {
	isPublic bool
	pepper   []byte
	leaves   []PositionedLeaf
}

// Record holds the leaves of every channel of a document.
type Record struct {
	channels map[int]*channel
}

type options struct {
	peppers      map[int][]byte
	pepperSource func() []byte
}

// Opt is a FromRecordByChannels option.
type Opt func(opts *options)

// WithPeppers rebuilds the record from known channel peppers. Every private channel must have one.
func WithPeppers(peppers map[int][]byte) Opt {
	return func(opts *options) {
		opts.peppers = peppers
	}
}

// WithPepperSource overrides the random source of new channel peppers.
func WithPepperSource(source func() []byte) Opt {
	return func(opts *options) {
		opts.pepperSource = source
	}
}

// FromRecordByChannels builds the leaves of every channel of bc. Salts are drawn from one SaltShaker per
// channel, in item order.
func FromRecordByChannels(bc *record.ByChannels, opts ...Opt) (*Record, error) {
	o := &options{pepperSource: saltshaker.NewPepper}

	for _, opt := range opts {
		opt(o)
	}

	r := &Record{channels: make(map[int]*channel)}

	for _, id := range bc.ChannelIDs() {
		ch, err := buildChannel(bc, id, o)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", id, err)
		}

		r.channels[id] = ch
	}

	logger.Debugf("built merkle record with %d channels", len(r.channels))

	return r, nil
}

func buildChannel(bc *record.ByChannels, id int, o *options) (*channel, error) {
	items, err := bc.Items(id)
	if err != nil {
		return nil, err
	}

	ch := &channel{isPublic: bc.IsPublic(id)}

	switch {
	case ch.isPublic:
		ch.pepper = saltshaker.ZeroPepper()
	case o.peppers != nil:
		pepper, ok := o.peppers[id]
		if !ok {
			return nil, fmt.Errorf("%w: missing pepper", common.ErrInvalidInput)
		}

		ch.pepper = pepper
	default:
		ch.pepper = o.pepperSource()
	}

	shaker, err := saltshaker.New(ch.pepper)
	if err != nil {
		return nil, err
	}

	ch.leaves = make([]PositionedLeaf, 0, len(items))

	for _, fi := range items {
		leaf, err := LeafFromItem(fi.Item, ch.isPublic, shaker)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fi.Path, err)
		}

		ch.leaves = append(ch.leaves, PositionedLeaf{Path: fi.Path, Leaf: leaf})
	}

	return ch, nil
}

func (r *Record) channel(id int) (*channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", common.ErrNotFound, id)
	}

	return ch, nil
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

// IsPublic reports whether channel id is public.
func (r *Record) IsPublic(id int) bool {
	ch, ok := r.channels[id]

	return ok && ch.isPublic
}

// Pepper returns the pepper of channel id.
func (r *Record) Pepper(id int) ([]byte, error) {
	ch, err := r.channel(id)
	if err != nil {
		return nil, err
	}

	return append([]byte(nil), ch.pepper...), nil
}

// Leaves returns the leaves of channel id in item order.
func (r *Record) Leaves(id int) ([]PositionedLeaf, error) {
	ch, err := r.channel(id)
	if err != nil {
		return nil, err
	}

	out := make([]PositionedLeaf, len(ch.leaves))
	copy(out, ch.leaves)

	return out, nil
}

// ChannelRootHash returns the root hash of channel id.
func (r *Record) ChannelRootHash(id int) ([]byte, error) {
	ch, err := r.channel(id)
	if err != nil {
		return nil, err
	}

	if ch.isPublic {
		return common.NullHash(), nil
	}

	hashes, err := leafHashes(ch.leaves)
	if err != nil {
		return nil, err
	}

	return ComputeRootHash(false, hashes)
}

// ChannelRootHashes computes the root hash of every channel concurrently.
func (r *Record) ChannelRootHashes() (map[int][]byte, error) {
	var (
		mu    sync.Mutex
		roots = make(map[int][]byte, len(r.channels))
		g     errgroup.Group
	)

	for _, id := range r.ChannelIDs() {
		g.Go(func() error {
			root, err := r.ChannelRootHash(id)
			if err != nil {
				return fmt.Errorf("channel %d: %w", id, err)
			}

			mu.Lock()
			roots[id] = root
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return roots, nil
}

// InclusionProof returns the RFC 6962 audit path of leaf index in private channel id.
func (r *Record) InclusionProof(id, index int) ([][]byte, error) {
	ch, err := r.channel(id)
	if err != nil {
		return nil, err
	}

	if ch.isPublic {
		return nil, fmt.Errorf("%w: public channel %d has no tree", common.ErrInvalidInput, id)
	}

	if index < 0 || index >= len(ch.leaves) {
		return nil, fmt.Errorf("%w: leaf %d of channel %d", common.ErrNotFound, index, id)
	}

	hashes, err := leafHashes(ch.leaves)
	if err != nil {
		return nil, err
	}

	tree, err := hashtree.Build(hashes)
	if err != nil {
		return nil, err
	}

	return tree.InclusionProof(uint64(index))
}

// VerifyInclusion checks that leafHash is leaf index of a channel of size leaves with the given root.
func VerifyInclusion(index, size int, leafHash []byte, auditPath [][]byte, root []byte) error {
	if index < 0 || size <= index {
		return fmt.Errorf("%w: leaf %d out of range for %d leaves", common.ErrInvalidInput, index, size)
	}

	if err := hashtree.VerifyInclusion(uint64(index), uint64(size), leafHash, auditPath, root); err != nil {
		return fmt.Errorf("%w: %s", common.ErrIntegrity, err.Error())
	}

	return nil
}

// ComputeRootHash returns the root hash of a channel from its ordered leaf commitment hashes.
func ComputeRootHash(isPublic bool, hashes [][]byte) ([]byte, error) {
	if isPublic {
		return common.NullHash(), nil
	}

	tree, err := hashtree.Build(hashes)
	if err != nil {
		return nil, err
	}

	return tree.Root()
}

func leafHashes(leaves []PositionedLeaf) ([][]byte, error) {
	hashes := make([][]byte, len(leaves))

	for i, pl := range leaves {
		h, err := pl.Leaf.Hash()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", pl.Path, err)
		}

		hashes[i] = h
	}

	return hashes, nil
}
