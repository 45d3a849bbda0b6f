/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hashtree commits to the ordered leaf hashes of a channel with an RFC 6962 Merkle tree.
//
// A channel tree is built once over its full leaf list and never grows, so the package keeps a compact range
// for the root and the perfect subtree nodes reported while building it for audit paths.
package hashtree

import (
	"fmt"

	"github.com/transparency-dev/merkle/compact"
	"github.com/transparency-dev/merkle/proof"
	"github.com/transparency-dev/merkle/rfc6962"
)

var (
	hasher  = rfc6962.DefaultHasher
	factory = &compact.RangeFactory{Hash: hasher.HashChildren}
)

// Tree is the RFC 6962 tree over a fixed list of leaves.
type Tree struct {
	rng   *compact.Range
	nodes map[compact.NodeID][]byte
}

// Build hashes every entry of leaves as an RFC 6962 leaf and builds the tree over them, in order.
func Build(leaves [][]byte) (*Tree, error) {
	t := &Tree{
		rng:   factory.NewEmptyRange(0),
		nodes: make(map[compact.NodeID][]byte, 2*len(leaves)),
	}

	visit := func(id compact.NodeID, hash []byte) {
		t.nodes[id] = hash
	}

	for i, data := range leaves {
		if err := t.rng.Append(hasher.HashLeaf(data), visit); err != nil {
			return nil, fmt.Errorf("append leaf %d: %w", i, err)
		}
	}

	return t, nil
}

// Size returns the number of leaves.
func (t *Tree) Size() uint64 {
	return t.rng.End()
}

// Root returns the root hash. The root of an empty tree is SHA-256 of the empty string.
func (t *Tree) Root() ([]byte, error) {
	if t.Size() == 0 {
		return hasher.EmptyRoot(), nil
	}

	return t.rng.GetRootHash(nil)
}

// InclusionProof returns the audit path of the leaf at index.
func (t *Tree) InclusionProof(index uint64) ([][]byte, error) {
	nodes, err := proof.Inclusion(index, t.Size())
	if err != nil {
		return nil, err
	}

	hashes := make([][]byte, len(nodes.IDs))

	for i, id := range nodes.IDs {
		h, ok := t.nodes[id]
		if !ok {
			return nil, fmt.Errorf("missing node %+v", id)
		}

		hashes[i] = h
	}

	return nodes.Rehash(hashes, hasher.HashChildren)
}

// VerifyInclusion checks that leafData sits at index in a tree of the given size and root.
func VerifyInclusion(index, size uint64, leafData []byte, auditPath [][]byte, root []byte) error {
	return proof.VerifyInclusion(hasher, index, size, hasher.HashLeaf(leafData), auditPath, root)
}
