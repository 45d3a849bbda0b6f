/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

// MicroblockProof holds the proof channels of the record stored in one microblock.
type MicroblockProof struct {
	Height   uint64    `json:"height"`
	Channels []Channel `json:"channels"`
}

// VirtualBlockchainProof holds the microblock proofs of one virtual blockchain.
type VirtualBlockchainProof struct {
	ID          string            `json:"id"`
	Microblocks []MicroblockProof `json:"microblocks"`
}

// Wrapper is the document handed to a verifier.
type Wrapper struct {
	Proofs []VirtualBlockchainProof `json:"proofs"`
}

// Add appends the channels of the record stored at the given microblock.
func (w *Wrapper) Add(vbID string, height uint64, channels []Channel) {
	mb := MicroblockProof{Height: height, Channels: channels}

	for i := range w.Proofs {
		if w.Proofs[i].ID == vbID {
			w.Proofs[i].Microblocks = append(w.Proofs[i].Microblocks, mb)

			return
		}
	}

	w.Proofs = append(w.Proofs, VirtualBlockchainProof{ID: vbID, Microblocks: []MicroblockProof{mb}})
}

// Channels returns the proof channels stored for a microblock.
func (w *Wrapper) Channels(vbID string, height uint64) ([]Channel, error) {
	for _, vb := range w.Proofs {
		if vb.ID != vbID {
			continue
		}

		for _, mb := range vb.Microblocks {
			if mb.Height == height {
				return mb.Channels, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: no proof for %s at height %d", common.ErrNotFound, vbID, height)
}

// ParseWrapper decodes a wrapper. Numbers are kept exact until each leaf normalizes its own value.
func ParseWrapper(data []byte) (*Wrapper, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var generic map[string]interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: decode proof wrapper: %s", common.ErrIntegrity, err.Error())
	}

	w := &Wrapper{}
	if err := decodeMap(generic, w); err != nil {
		return nil, err
	}

	return w, nil
}
