/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger persists the published channels of committed records through the storage SPI, indexed by the
// microblock that carries them.
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/codec"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/onchain"
)

const (
	// NameSpace for the channel store.
	NameSpace = "merklerecordchannels"

	microblockTag = "microblock"
)

var logger = log.New("aries-framework/merklerecord/ledger")

// Store stores published channels.
type Store struct {
	store storage.Store
}

type storedChannel struct {
	ID      int                  `cbor:"id"`
	Channel *onchain.ChannelData `cbor:"channel"`
}

// New returns a new channel store.
func New(provider storage.Provider) (*Store, error) {
	store, err := provider.OpenStore(NameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel store: %w", err)
	}

	err = provider.SetStoreConfig(NameSpace, storage.StoreConfiguration{TagNames: []string{microblockTag}})
	if err != nil {
		return nil, fmt.Errorf("failed to set store configuration: %w", err)
	}

	return &Store{store: store}, nil
}

func microblockID(vbID string, height uint64) (string, error) {
	if vbID == "" || strings.ContainsAny(vbID, ":-&|") {
		return "", fmt.Errorf("%w: invalid virtual blockchain id %q", common.ErrInvalidInput, vbID)
	}

	return fmt.Sprintf("%s-%d", vbID, height), nil
}

func channelKey(mbID string, id int) string {
	return fmt.Sprintf("%s-%d", mbID, id)
}

// PutChannel stores one published channel of the record carried by a microblock.
func (s *Store) PutChannel(vbID string, height uint64, id int, cd *onchain.ChannelData) error {
	mbID, err := microblockID(vbID, height)
	if err != nil {
		return err
	}

	value, err := codec.Marshal(storedChannel{ID: id, Channel: cd})
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}

	if err := s.store.Put(channelKey(mbID, id), value, storage.Tag{Name: microblockTag, Value: mbID}); err != nil {
		return fmt.Errorf("failed to put channel: %w", err)
	}

	return nil
}

// PutRecord stores every channel of r in one batch.
func (s *Store) PutRecord(vbID string, height uint64, r *onchain.Record) error {
	mbID, err := microblockID(vbID, height)
	if err != nil {
		return err
	}

	ids := r.ChannelIDs()
	if len(ids) == 0 {
		return fmt.Errorf("%w: record has no channel", common.ErrInvalidInput)
	}

	ops := make([]storage.Operation, 0, len(ids))

	for _, id := range ids {
		cd, err := r.OnChainData(id)
		if err != nil {
			return err
		}

		value, err := codec.Marshal(storedChannel{ID: id, Channel: cd})
		if err != nil {
			return fmt.Errorf("failed to marshal channel %d: %w", id, err)
		}

		ops = append(ops, storage.Operation{
			Key:   channelKey(mbID, id),
			Value: value,
			Tags:  []storage.Tag{{Name: microblockTag, Value: mbID}},
		})
	}

	if err := s.store.Batch(ops); err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}

	logger.Debugf("stored %d channels for microblock %s", len(ops), mbID)

	return nil
}

// GetChannel retrieves one published channel.
func (s *Store) GetChannel(vbID string, height uint64, id int) (*onchain.ChannelData, error) {
	mbID, err := microblockID(vbID, height)
	if err != nil {
		return nil, err
	}

	value, err := s.store.Get(channelKey(mbID, id))
	if err != nil {
		return nil, storeError(err)
	}

	sc, err := decodeChannel(value)
	if err != nil {
		return nil, err
	}

	return sc.Channel, nil
}

// GetRecord loads every channel of the record carried by a microblock. Channels are parsed and validated, the
// root hashes are checked when the caller rebuilds the merkle record.
func (s *Store) GetRecord(vbID string, height uint64) (*onchain.Record, error) {
	mbID, err := microblockID(vbID, height)
	if err != nil {
		return nil, err
	}

	itr, err := s.store.Query(microblockTag + ":" + mbID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}

	defer storage.Close(itr, logger)

	r := onchain.New()
	count := 0

	more, err := itr.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to get next channel: %w", err)
	}

	for more {
		value, err := itr.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to get channel value: %w", err)
		}

		sc, err := decodeChannel(value)
		if err != nil {
			return nil, err
		}

		if err := r.AddChannelData(sc.ID, sc.Channel); err != nil {
			return nil, err
		}

		count++

		more, err = itr.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to get next channel: %w", err)
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("%w: no channel for microblock %s", common.ErrNotFound, mbID)
	}

	return r, nil
}

// Delete removes one published channel.
func (s *Store) Delete(vbID string, height uint64, id int) error {
	mbID, err := microblockID(vbID, height)
	if err != nil {
		return err
	}

	if err := s.store.Delete(channelKey(mbID, id)); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	return nil
}

func decodeChannel(value []byte) (*storedChannel, error) {
	var sc storedChannel
	if err := codec.UnmarshalStrict(value, &sc); err != nil {
		return nil, fmt.Errorf("%w: decode stored channel: %s", common.ErrIntegrity, err.Error())
	}

	if sc.Channel == nil {
		return nil, fmt.Errorf("%w: stored channel %d has no data", common.ErrIntegrity, sc.ID)
	}

	return &sc, nil
}

func storeError(err error) error {
	if errors.Is(err, storage.ErrDataNotFound) {
		return fmt.Errorf("%w: %s", common.ErrNotFound, err.Error())
	}

	return fmt.Errorf("failed to get channel: %w", err)
}
