/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package record

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/testdata"
)

func findItem(t *testing.T, r *Record, pattern string) FlatItem {
	t.Helper()

	p, err := ParsePattern(pattern)
	require.NoError(t, err)

	for _, fi := range r.Items() {
		if p.Match(fi.Path) {
			return fi
		}
	}

	require.Failf(t, "item not found", "pattern %s", pattern)

	return FlatItem{}
}

func TestFromJSON(t *testing.T) {
	r, err := FromJSON(testdata.SampleDocument)
	require.NoError(t, err)

	items := r.Items()
	require.Len(t, items, 17)

	expectedOrder := []string{
		"this.publicField",
		"this.array0[0].name", "this.array0[0].value",
		"this.array0[1].name", "this.array0[1].value",
		"this.array0[2].name", "this.array0[2].value",
		"this.array1[0]", "this.array1[1]", "this.array1[2]",
		"this.firstname", "this.lastname", "this.email", "this.null",
		"this.object.foo", "this.object.bar[0]", "this.object.bar[1]",
	}

	for i, expected := range expectedOrder {
		require.Equal(t, expected, items[i].Path.String())
	}

	for _, fi := range items {
		require.Equal(t, UnassignedChannel, fi.Item.ChannelID)

		if fi.Item.Type == StringType {
			require.NotNil(t, fi.Item.Transformation)
			require.Equal(t, None, fi.Item.Transformation.Kind)
		} else {
			require.Nil(t, fi.Item.Transformation)
		}
	}

	foo := findItem(t, r, "this.object.foo")
	require.Equal(t, NumberType, foo.Item.Type)
	require.Equal(t, int64(123), foo.Item.Value)

	null := findItem(t, r, "this.null")
	require.Equal(t, NullType, null.Item.Type)
	require.Nil(t, null.Item.Value)
}

func TestFromJSONScalars(t *testing.T) {
	r, err := FromJSON([]byte(`{"f": 1.5, "e": 1e3, "big": 18446744073709551615, "t": true, "empty": {}, "list": []}`))
	require.NoError(t, err)

	items := r.Items()
	require.Len(t, items, 4)
	require.Equal(t, 1.5, items[0].Item.Value)
	require.Equal(t, int64(1000), items[1].Item.Value)
	require.Equal(t, float64(18446744073709551615), items[2].Item.Value)
	require.Equal(t, true, items[3].Item.Value)
	require.Equal(t, BooleanType, items[3].Item.Type)

	t.Run("top level scalar", func(t *testing.T) {
		r, err := FromJSON([]byte(`"alone"`))
		require.NoError(t, err)
		require.Len(t, r.Items(), 1)
		require.Equal(t, "this", r.Items()[0].Path.String())
	})

	t.Run("error - invalid JSON", func(t *testing.T) {
		_, err := FromJSON([]byte(`{"a":`))
		require.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("error - duplicate key", func(t *testing.T) {
		_, err := FromJSON([]byte(`{"a": 1, "a": 2}`))
		require.True(t, errors.Is(err, common.ErrInvalidInput))
		require.Contains(t, err.Error(), "duplicate path this.a")
	})
}

func TestFromValue(t *testing.T) {
	r, err := FromValue(map[string]interface{}{"b": "2", "a": 1, "c": []interface{}{true}})
	require.NoError(t, err)

	items := r.Items()
	require.Len(t, items, 3)
	require.Equal(t, "this.a", items[0].Path.String())
	require.Equal(t, "this.b", items[1].Path.String())
	require.Equal(t, "this.c[0]", items[2].Path.String())

	_, err = FromValue(make(chan int))
	require.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestSetChannel(t *testing.T) {
	r, err := FromJSON(testdata.SampleDocument)
	require.NoError(t, err)

	require.NoError(t, r.SetChannel("this.*", 1))
	require.NoError(t, r.SetChannel("this.publicField", 2))
	require.NoError(t, r.SetPublicChannel(2))

	for _, fi := range r.Items() {
		if fi.Path.String() == "this.publicField" {
			require.Equal(t, 2, fi.Item.ChannelID)
		} else {
			require.Equal(t, 1, fi.Item.ChannelID)
		}
	}

	require.True(t, r.IsPublicChannel(2))
	require.False(t, r.IsPublicChannel(1))
	require.Equal(t, []int{2}, r.PublicChannels())

	t.Run("error - no match", func(t *testing.T) {
		err := r.SetChannel("this.unknown", 3)
		require.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("error - bad pattern", func(t *testing.T) {
		err := r.SetChannel("firstname", 3)
		require.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("error - negative channel", func(t *testing.T) {
		require.True(t, errors.Is(r.SetChannel("this.*", -1), common.ErrInvalidInput))
		require.True(t, errors.Is(r.SetPublicChannel(-2), common.ErrInvalidInput))
	})
}

func TestSetAsHashable(t *testing.T) {
	r, err := FromJSON(testdata.SampleDocument)
	require.NoError(t, err)

	require.NoError(t, r.SetAsHashable("this.object.bar[1]"))
	require.Equal(t, Hashable, findItem(t, r, "this.object.bar[1]").Item.Transformation.Kind)

	t.Run("error - not a string", func(t *testing.T) {
		err := r.SetAsHashable("this.object.bar[0]")
		require.True(t, errors.Is(err, common.ErrInvalidInput))
		require.Contains(t, err.Error(), "only strings can be hashable")
	})

	t.Run("failed wildcard leaves the record untouched", func(t *testing.T) {
		err := r.SetAsHashable("this.array0.*")
		require.Error(t, err)
		require.Equal(t, None, findItem(t, r, "this.array0[0].name").Item.Transformation.Kind)
	})
}

func TestSetMaskByRegex(t *testing.T) {
	r, err := FromJSON(testdata.SampleDocument)
	require.NoError(t, err)

	err = r.SetMaskByRegex("this.email", regexp.MustCompile(`^(.)(.*)(@.)(.*)$`), "$1***$3***")
	require.NoError(t, err)

	tr := findItem(t, r, "this.email").Item.Transformation
	require.Equal(t, Maskable, tr.Kind)
	require.Equal(t, []string{"j", "***", "@g", "***", ""}, tr.VisibleParts)
	require.Equal(t, []string{"ohn.doe", "mail.com"}, tr.HiddenParts)
	require.Equal(t, "j***@g***", tr.Masked())
	require.Equal(t, "john.doe@gmail.com", tr.Reconstruct())
	require.NoError(t, tr.Validate())

	t.Run("error - not a string", func(t *testing.T) {
		err := r.SetMaskByRegex("this.object.foo", regexp.MustCompile(`^(.*)$`), "$1")
		require.True(t, errors.Is(err, common.ErrInvalidInput))
	})

	t.Run("error - partial match", func(t *testing.T) {
		err := r.SetMaskByRegex("this.firstname", regexp.MustCompile(`(J)`), "*")
		require.True(t, errors.Is(err, common.ErrInvalidInput))
	})
}

func TestSetMaskByPositions(t *testing.T) {
	r, err := FromJSON(testdata.SampleDocument)
	require.NoError(t, err)

	require.NoError(t, r.SetMaskByPositions("this.lastname", []MaskPart{{Start: 1, End: 3, Replacement: "**"}}))

	tr := findItem(t, r, "this.lastname").Item.Transformation
	require.Equal(t, "D**", tr.Masked())
	require.Equal(t, "Doe", tr.Reconstruct())

	err = r.SetMaskByPositions("this.firstname", []MaskPart{{Start: 0, End: 5}})
	require.True(t, errors.Is(err, common.ErrInvalidInput))
}
