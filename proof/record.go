/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

/*
Package proof implements the verifier facing side of a committed record.

A proof Record starts from a fully disclosed merkle.Record. The holder then narrows it field by field:

	RemoveField       the leaf is replaced by its commitment hash (a witness)
	SetFieldToHashed  a hashable leaf is replaced by the hash of its value
	SetFieldToMasked  a maskable leaf keeps its visible parts only

None of these changes the channel root hashes, so a verifier receiving the exported channels can rebuild the
record with FromProofChannels and compare RootHash with the roots published on the ledger.

Leaf commitments cover the salt and the value but not the path, and a root binds a leaf to its index in the
channel, not to a field name. A holder can therefore attach a disclosed value to another path and Verify still
succeeds. Verifiers must not treat the paths of a proof, or the layout returned by ToJSON, as checked.
*/
package proof

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/merkle"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
)

var logger = log.New("aries-framework/merklerecord/proof")

// slot is one leaf position of a channel: either a disclosed leaf or a witness.
type slot struct {
	path    record.Path
	leaf    *merkle.Leaf
	witness []byte
}

func (s *slot) hash() ([]byte, error) {
	if s.leaf == nil {
		return s.witness, nil
	}

	return s.leaf.Hash()
}

type channel struct {
	isPublic bool
	slots    []slot
}

// Record is a possibly redacted view of the channels of a document.
type Record struct {
	channels map[int]*channel
}

// FromMerkleRecord starts a proof with every leaf of mr disclosed.
func FromMerkleRecord(mr *merkle.Record) (*Record, error) {
	r := &Record{channels: make(map[int]*channel)}

	for _, id := range mr.ChannelIDs() {
		leaves, err := mr.Leaves(id)
		if err != nil {
			return nil, err
		}

		ch := &channel{isPublic: mr.IsPublic(id), slots: make([]slot, len(leaves))}

		for i, pl := range leaves {
			ch.slots[i] = slot{path: pl.Path, leaf: pl.Leaf}
		}

		r.channels[id] = ch
	}

	return r, nil
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

// RemoveField replaces every disclosed leaf matched by pattern with its commitment hash.
func (r *Record) RemoveField(pattern string) error {
	return r.apply(pattern, func(s *slot) error {
		h, err := s.leaf.Hash()
		if err != nil {
			return err
		}

		s.leaf = nil
		s.witness = h

		return nil
	})
}

// SetFieldToHashed replaces the value of every disclosed leaf matched by pattern with its hash. Every matched
// leaf must be hashable.
func (r *Record) SetFieldToHashed(pattern string) error {
	return r.apply(pattern, func(s *slot) error {
		hashed, err := s.leaf.Hashed()
		if err != nil {
			return fmt.Errorf("field %s: %w", s.path, err)
		}

		s.leaf = hashed

		return nil
	})
}

// SetFieldToMasked hides the hidden parts of every disclosed leaf matched by pattern. Every matched leaf must
// be maskable.
func (r *Record) SetFieldToMasked(pattern string) error {
	return r.apply(pattern, func(s *slot) error {
		masked, err := s.leaf.Masked()
		if err != nil {
			return fmt.Errorf("field %s: %w", s.path, err)
		}

		s.leaf = masked

		return nil
	})
}

// apply runs fn on copies of the disclosed slots matched by pattern, in every channel, and commits them only
// when all succeed.
func (r *Record) apply(pattern string, fn func(*slot) error) error {
	p, err := record.ParsePattern(pattern)
	if err != nil {
		return err
	}

	updated := make(map[int][]slot)

	for id, ch := range r.channels {
		var slots []slot

		for i := range ch.slots {
			if ch.slots[i].leaf == nil || !p.Match(ch.slots[i].path) {
				continue
			}

			if slots == nil {
				slots = make([]slot, len(ch.slots))
				copy(slots, ch.slots)
			}

			if err := fn(&slots[i]); err != nil {
				return err
			}
		}

		if slots != nil {
			updated[id] = slots
		}
	}

	if len(updated) == 0 {
		return fmt.Errorf("%w: no disclosed field matches %s", common.ErrNotFound, pattern)
	}

	for id, slots := range updated {
		r.channels[id].slots = slots
	}

	return nil
}

// RootHash recomputes the root hash of channel id from the current leaves and witnesses.
func (r *Record) RootHash(id int) ([]byte, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", common.ErrNotFound, id)
	}

	hashes := make([][]byte, len(ch.slots))

	for i := range ch.slots {
		h, err := ch.slots[i].hash()
		if err != nil {
			return nil, fmt.Errorf("channel %d leaf %d: %w", id, i, err)
		}

		hashes[i] = h
	}

	return merkle.ComputeRootHash(ch.isPublic, hashes)
}

// RootHashAsHexString is RootHash, hex encoded.
func (r *Record) RootHashAsHexString(id int) (string, error) {
	h, err := r.RootHash(id)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h), nil
}

// Verify checks every channel of the proof against the root hashes published for it.
func (r *Record) Verify(expected map[int][]byte) error {
	for _, id := range r.ChannelIDs() {
		published, ok := expected[id]
		if !ok {
			return fmt.Errorf("%w: no published root hash for channel %d", common.ErrIntegrity, id)
		}

		root, err := r.RootHash(id)
		if err != nil {
			return err
		}

		if !bytes.Equal(root, published) {
			logger.Warnf("proof of channel %d does not match its published root", id)

			return fmt.Errorf("%w: channel %d root hash does not match the published one", common.ErrIntegrity, id)
		}
	}

	return nil
}
