/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package merkle

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/testdata"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/saltshaker"
)

func fixedPepper(b byte) []byte {
	return bytes.Repeat([]byte{b}, saltshaker.PepperSize)
}

// sampleByChannels puts every field of the sample document on private channel 1, except publicField which
// goes to public channel 2. object.bar[1] is hashable and email is maskable.
func sampleByChannels(t *testing.T) *record.ByChannels {
	t.Helper()

	r, err := record.FromJSON(testdata.SampleDocument)
	require.NoError(t, err)

	require.NoError(t, r.SetChannel("this.*", 1))
	require.NoError(t, r.SetChannel("this.publicField", 2))
	require.NoError(t, r.SetPublicChannel(2))
	require.NoError(t, r.SetAsHashable("this.object.bar[1]"))
	require.NoError(t, r.SetMaskByRegex("this.email", regexp.MustCompile(`^(.)(.*)(@.)(.*)$`), "$1***$3***"))

	bc, err := record.FromRecord(r)
	require.NoError(t, err)

	return bc
}

func sampleMerkleRecord(t *testing.T) *Record {
	t.Helper()

	mr, err := FromRecordByChannels(sampleByChannels(t), WithPepperSource(func() []byte { return fixedPepper(7) }))
	require.NoError(t, err)

	return mr
}

func newShaker(t *testing.T) *saltshaker.SaltShaker {
	t.Helper()

	s, err := saltshaker.New(fixedPepper(1))
	require.NoError(t, err)

	return s
}

func stringItem(t *testing.T, v string) record.Item {
	t.Helper()

	item, err := record.NewItem(v)
	require.NoError(t, err)

	return item
}
