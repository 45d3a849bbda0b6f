/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proof

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/testdata"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/merkle"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/record"
)

func sampleMerkleRecord(t *testing.T) *merkle.Record {
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

	mr, err := merkle.FromRecordByChannels(bc, merkle.WithPepperSource(func() []byte {
		return bytes.Repeat([]byte{7}, 32)
	}))
	require.NoError(t, err)

	return mr
}

func sampleProof(t *testing.T) (*Record, map[int][]byte) {
	t.Helper()

	mr := sampleMerkleRecord(t)

	roots, err := mr.ChannelRootHashes()
	require.NoError(t, err)

	p, err := FromMerkleRecord(mr)
	require.NoError(t, err)

	return p, roots
}

func requireRoots(t *testing.T, p *Record, roots map[int][]byte) {
	t.Helper()

	for id, expected := range roots {
		root, err := p.RootHashAsHexString(id)
		require.NoError(t, err)
		require.Equal(t, hex.EncodeToString(expected), root, "channel %d", id)
	}
}

func TestRedactionScenario(t *testing.T) {
	p, roots := sampleProof(t)

	require.True(t, common.IsNullHash(roots[2]))
	require.False(t, common.IsNullHash(roots[1]))
	requireRoots(t, p, roots)

	steps := []func() error{
		func() error { return p.SetFieldToHashed("this.object.bar[1]") },
		func() error { return p.SetFieldToMasked("this.email") },
		func() error { return p.RemoveField("this.firstname") },
		func() error { return p.RemoveField("this.lastname") },
		func() error { return p.RemoveField("this.object.bar[0]") },
	}

	for _, step := range steps {
		require.NoError(t, step())
		requireRoots(t, p, roots)
	}

	expected := `{
		"array0": [{"name": "a", "value": 1}, {"name": "b", "value": 2}, {"name": "c", "value": 3}],
		"array1": ["x", "y", "z"],
		"email": "j***@g***",
		"null": null,
		"object": {"foo": 123, "bar": [null, "` + hex.EncodeToString(common.SHA256([]byte("Some string"))) + `"]},
		"publicField": "This is public"
	}`

	doc, err := p.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, expected, string(doc))

	require.NoError(t, p.Verify(roots))

	t.Run("export and import through a wrapper", func(t *testing.T) {
		exported, err := p.ToProofChannels()
		require.NoError(t, err)
		require.Len(t, exported, 2)
		require.Equal(t, 16, exported[0].NLeaves)
		require.Len(t, exported[0].Fields, 13)
		require.Len(t, exported[0].Witnesses, 3)

		w := &Wrapper{}
		w.Add("0a0b", 3, exported)

		data, err := json.Marshal(w)
		require.NoError(t, err)

		parsed, err := ParseWrapper(data)
		require.NoError(t, err)

		channels, err := parsed.Channels("0a0b", 3)
		require.NoError(t, err)

		imported, err := FromProofChannels(channels)
		require.NoError(t, err)

		requireRoots(t, imported, roots)
		require.NoError(t, imported.Verify(roots))

		importedDoc, err := imported.ToJSON()
		require.NoError(t, err)
		require.JSONEq(t, expected, string(importedDoc))

		reexported, err := imported.ToProofChannels()
		require.NoError(t, err)
		require.Equal(t, exported, reexported)
	})
}

func TestNarrowingOrderDoesNotMatter(t *testing.T) {
	p, roots := sampleProof(t)

	exported, err := p.ToProofChannels()
	require.NoError(t, err)

	// remove every field of the private channel, last to first
	fields := exported[0].Fields
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Type == merkle.MaskableFromAllPartsField {
			require.NoError(t, p.SetFieldToMasked(fields[i].Path.String()))
			requireRoots(t, p, roots)
		}

		require.NoError(t, p.RemoveField(fields[i].Path.String()))
		requireRoots(t, p, roots)
	}

	exported, err = p.ToProofChannels()
	require.NoError(t, err)
	require.Empty(t, exported[0].Fields)
	require.Len(t, exported[0].Witnesses, 16)

	doc, err := p.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"publicField": "This is public"}`, string(doc))

	imported, err := FromProofChannels(exported)
	require.NoError(t, err)
	requireRoots(t, imported, roots)
}

func TestNarrowingErrors(t *testing.T) {
	p, roots := sampleProof(t)

	t.Run("hashing a plain field", func(t *testing.T) {
		err := p.SetFieldToHashed("this.firstname")
		require.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("masking a hashable field", func(t *testing.T) {
		err := p.SetFieldToMasked("this.object.bar[1]")
		require.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("wildcard failure leaves the proof untouched", func(t *testing.T) {
		err := p.SetFieldToHashed("this.object.*")
		require.True(t, errors.Is(err, common.ErrInvalidInput))

		exported, err := p.ToProofChannels()
		require.NoError(t, err)
		require.Equal(t, merkle.HashableFromValueField, exported[0].Fields[15].Type)
	})

	t.Run("no match", func(t *testing.T) {
		require.True(t, errors.Is(p.RemoveField("this.unknown"), common.ErrNotFound))
	})

	t.Run("already removed", func(t *testing.T) {
		require.NoError(t, p.RemoveField("this.array0.*"))
		require.True(t, errors.Is(p.RemoveField("this.array0[1].name"), common.ErrNotFound))
	})

	t.Run("bad pattern", func(t *testing.T) {
		require.True(t, errors.Is(p.RemoveField("array0"), common.ErrInvalidInput))
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := p.RootHash(5)
		require.True(t, errors.Is(err, common.ErrNotFound))
	})

	requireRoots(t, p, roots)
}

func TestVerify(t *testing.T) {
	p, roots := sampleProof(t)

	exported, err := p.ToProofChannels()
	require.NoError(t, err)

	t.Run("altered value", func(t *testing.T) {
		channels, err := p.ToProofChannels()
		require.NoError(t, err)
		require.Equal(t, "this.firstname", channels[0].Fields[9].Path.String())

		channels[0].Fields[9].Value = "Jane"

		forged, err := FromProofChannels(channels)
		require.NoError(t, err)
		require.True(t, errors.Is(forged.Verify(roots), common.ErrIntegrity))
	})

	t.Run("missing published root", func(t *testing.T) {
		imported, err := FromProofChannels(exported)
		require.NoError(t, err)
		require.True(t, errors.Is(imported.Verify(map[int][]byte{1: roots[1]}), common.ErrIntegrity))
	})
}

func TestFromProofChannelsErrors(t *testing.T) {
	p, _ := sampleProof(t)
	require.NoError(t, p.RemoveField("this.firstname"))

	tests := []struct {
		name   string
		mutate func(channels []Channel) []Channel
	}{
		{name: "leaf count", mutate: func(c []Channel) []Channel {
			c[0].NLeaves++
			return c
		}},
		{name: "index out of range", mutate: func(c []Channel) []Channel {
			c[0].Fields[0].Index = 99
			return c
		}},
		{name: "index listed twice", mutate: func(c []Channel) []Channel {
			c[0].Fields[1].Index = c[0].Fields[0].Index
			return c
		}},
		{name: "channel listed twice", mutate: func(c []Channel) []Channel {
			return append(c, c[0])
		}},
		{name: "bad witness", mutate: func(c []Channel) []Channel {
			c[0].Witnesses[0] = "zz"
			return c
		}},
		{name: "public field on private channel", mutate: func(c []Channel) []Channel {
			c[0].Fields[0].Type = merkle.PublicField
			return c
		}},
		{name: "private field on public channel", mutate: func(c []Channel) []Channel {
			c[1].IsPublic = false
			return c
		}},
		{name: "bad salt", mutate: func(c []Channel) []Channel {
			c[0].Fields[0].Salt = "00"
			return c
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			channels, err := p.ToProofChannels()
			require.NoError(t, err)

			_, err = FromProofChannels(tc.mutate(channels))
			require.True(t, errors.Is(err, common.ErrIntegrity), err)
		})
	}
}

func TestChannelsFromMaps(t *testing.T) {
	p, roots := sampleProof(t)
	require.NoError(t, p.SetFieldToMasked("this.email"))

	exported, err := p.ToProofChannels()
	require.NoError(t, err)

	data, err := json.Marshal(exported)
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var generic []interface{}
	require.NoError(t, dec.Decode(&generic))

	channels, err := ChannelsFromMaps(generic)
	require.NoError(t, err)

	imported, err := FromProofChannels(channels)
	require.NoError(t, err)
	requireRoots(t, imported, roots)

	_, err = ChannelsFromMaps([]interface{}{map[string]interface{}{"fields": []interface{}{
		map[string]interface{}{"path": []interface{}{true}},
	}}})
	require.True(t, errors.Is(err, common.ErrIntegrity))
}

func TestToJSONConflict(t *testing.T) {
	p, _ := sampleProof(t)

	channels, err := p.ToProofChannels()
	require.NoError(t, err)

	path, err := record.NewPath("array1", "x")
	require.NoError(t, err)

	channels[0].Fields[0].Path = path

	conflicting, err := FromProofChannels(channels)
	require.NoError(t, err)

	_, err = conflicting.ToJSON()
	require.True(t, errors.Is(err, common.ErrIntegrity))
}

func TestWrapper(t *testing.T) {
	w := &Wrapper{}
	w.Add("aa", 1, []Channel{{ID: 1}})
	w.Add("aa", 2, []Channel{{ID: 2}})
	w.Add("bb", 1, nil)

	require.Len(t, w.Proofs, 2)
	require.Len(t, w.Proofs[0].Microblocks, 2)

	channels, err := w.Channels("aa", 2)
	require.NoError(t, err)
	require.Equal(t, 2, channels[0].ID)

	_, err = w.Channels("aa", 3)
	require.True(t, errors.Is(err, common.ErrNotFound))

	_, err = ParseWrapper([]byte("{"))
	require.True(t, errors.Is(err, common.ErrIntegrity))
}

func TestToJSONIndexOutOfRange(t *testing.T) {
	p, _ := sampleProof(t)

	exported, err := p.ToProofChannels()
	require.NoError(t, err)

	w := &Wrapper{}
	w.Add("aa", 1, exported)

	// withIndex rewrites the path of the first field and re-encodes the wrapper.
	withIndex := func(t *testing.T, index json.Number) []byte {
		t.Helper()

		data, err := json.Marshal(w)
		require.NoError(t, err)

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var generic map[string]interface{}
		require.NoError(t, dec.Decode(&generic))

		vb := generic["proofs"].([]interface{})[0].(map[string]interface{})
		mb := vb["microblocks"].([]interface{})[0].(map[string]interface{})
		ch := mb["channels"].([]interface{})[0].(map[string]interface{})
		field := ch["fields"].([]interface{})[0].(map[string]interface{})
		field["path"] = []interface{}{"a", index}

		data, err = json.Marshal(generic)
		require.NoError(t, err)

		return data
	}

	t.Run("index beyond the leaves", func(t *testing.T) {
		parsed, err := ParseWrapper(withIndex(t, "1000000000000"))
		require.NoError(t, err)

		channels, err := parsed.Channels("aa", 1)
		require.NoError(t, err)

		imported, err := FromProofChannels(channels)
		require.NoError(t, err)

		_, err = imported.ToJSON()
		require.True(t, errors.Is(err, common.ErrIntegrity), err)
	})

	t.Run("index above max int", func(t *testing.T) {
		_, err := ParseWrapper(withIndex(t, "18446744073709551615"))
		require.True(t, errors.Is(err, common.ErrIntegrity), err)
	})

	t.Run("last index in range", func(t *testing.T) {
		path, err := record.NewPath("array1", 2)
		require.NoError(t, err)

		doc, err := insert(nil, path, "z", 3)
		require.NoError(t, err)
		require.Equal(t, map[string]interface{}{"array1": []interface{}{nil, nil, "z"}}, doc)

		_, err = insert(nil, path, "z", 2)
		require.True(t, errors.Is(err, common.ErrIntegrity))
	})
}

func TestVerifyDoesNotBindPaths(t *testing.T) {
	p, roots := sampleProof(t)

	channels, err := p.ToProofChannels()
	require.NoError(t, err)

	path, err := record.NewPath("renamed")
	require.NoError(t, err)

	channels[0].Fields[0].Path = path

	relabelled, err := FromProofChannels(channels)
	require.NoError(t, err)
	require.NoError(t, relabelled.Verify(roots))

	doc, err := relabelled.ToJSON()
	require.NoError(t, err)
	require.Contains(t, string(doc), `"renamed"`)
}
