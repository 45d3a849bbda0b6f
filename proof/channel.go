/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/merkle"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
)

// Channel is the exported proof of one channel. Fields hold the disclosed leaves, Witnesses the hex encoded
// commitment hashes of the removed ones, in leaf order.
type Channel struct {
	ID        int                 `json:"id"`
	IsPublic  bool                `json:"is_public"`
	NLeaves   int                 `json:"n_leaves"`
	Fields    []merkle.ProofField `json:"fields"`
	Witnesses []string            `json:"witnesses"`
}

// ToProofChannels exports every channel, in ascending id order.
func (r *Record) ToProofChannels() ([]Channel, error) {
	channels := make([]Channel, 0, len(r.channels))

	for _, id := range r.ChannelIDs() {
		ch := r.channels[id]

		pc := Channel{
			ID:        id,
			IsPublic:  ch.isPublic,
			NLeaves:   len(ch.slots),
			Fields:    []merkle.ProofField{},
			Witnesses: []string{},
		}

		for i, s := range ch.slots {
			if s.leaf == nil {
				pc.Witnesses = append(pc.Witnesses, hex.EncodeToString(s.witness))

				continue
			}

			field, err := s.leaf.ToProofField(s.path, i)
			if err != nil {
				return nil, fmt.Errorf("channel %d field %s: %w", id, s.path, err)
			}

			pc.Fields = append(pc.Fields, *field)
		}

		channels = append(channels, pc)
	}

	return channels, nil
}

// FromProofChannels rebuilds a proof from exported channels.
func FromProofChannels(channels []Channel) (*Record, error) {
	r := &Record{channels: make(map[int]*channel)}

	for i := range channels {
		pc := &channels[i]

		if _, ok := r.channels[pc.ID]; ok {
			return nil, fmt.Errorf("%w: channel %d is listed twice", common.ErrIntegrity, pc.ID)
		}

		ch, err := channelFromProof(pc)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", pc.ID, err)
		}

		r.channels[pc.ID] = ch
	}

	logger.Debugf("loaded proof with %d channels", len(r.channels))

	return r, nil
}

func channelFromProof(pc *Channel) (*channel, error) {
	if pc.NLeaves < 0 || len(pc.Fields)+len(pc.Witnesses) != pc.NLeaves {
		return nil, fmt.Errorf("%w: %d fields and %d witnesses for %d leaves", common.ErrIntegrity,
			len(pc.Fields), len(pc.Witnesses), pc.NLeaves)
	}

	ch := &channel{isPublic: pc.IsPublic, slots: make([]slot, pc.NLeaves)}
	disclosed := make([]bool, pc.NLeaves)

	for i := range pc.Fields {
		f := &pc.Fields[i]

		if f.Index < 0 || f.Index >= pc.NLeaves {
			return nil, fmt.Errorf("%w: field index %d out of range", common.ErrIntegrity, f.Index)
		}

		if disclosed[f.Index] {
			return nil, fmt.Errorf("%w: field index %d is listed twice", common.ErrIntegrity, f.Index)
		}

		if (f.Type == merkle.PublicField) != pc.IsPublic {
			return nil, fmt.Errorf("%w: %s field %s on a channel with public=%t", common.ErrIntegrity, f.Type,
				f.Path, pc.IsPublic)
		}

		leaf, err := merkle.LeafFromProofField(f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Path, err)
		}

		disclosed[f.Index] = true
		ch.slots[f.Index] = slot{path: f.Path, leaf: leaf}
	}

	next := 0

	for i := range ch.slots {
		if disclosed[i] {
			continue
		}

		witness, err := common.DecodeHash(pc.Witnesses[next])
		if err != nil {
			return nil, fmt.Errorf("witness %d: %w", next, err)
		}

		ch.slots[i] = slot{witness: witness}
		next++
	}

	return ch, nil
}

// ChannelsFromMaps decodes channels from generic JSON values, as produced by a JSON decoder using UseNumber.
func ChannelsFromMaps(v []interface{}) ([]Channel, error) {
	var channels []Channel

	if err := decodeMap(v, &channels); err != nil {
		return nil, err
	}

	return channels, nil
}

func decodeMap(v, result interface{}) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     result,
		TagName:    "json",
		DecodeHook: pathSegmentHook(),
	})
	if err != nil {
		return fmt.Errorf("mapstruct proof. error: %w", err)
	}

	if err = d.Decode(v); err != nil {
		return fmt.Errorf("%w: decode proof: %s", common.ErrIntegrity, err.Error())
	}

	return nil
}

// pathSegmentHook decodes path elements (strings and numbers) into record.PathSegment.
func pathSegmentHook() mapstructure.DecodeHookFuncType {
	segmentType := reflect.TypeOf(record.PathSegment{})

	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != segmentType || f == segmentType {
			return data, nil
		}

		return record.ParsePathSegment(data)
	}
}
