/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/codec"
)

const (
	// RootSentinel is the first token of every path pattern.
	RootSentinel = "this"

	wildcard = "*"
)

// PathSegment is an object key or an array index.
type PathSegment struct {
	key     string
	index   int
	isIndex bool
}

// KeySegment returns an object key segment.
func KeySegment(key string) PathSegment {
	return PathSegment{key: key}
}

// IndexSegment returns an array index segment.
func IndexSegment(index int) PathSegment {
	return PathSegment{index: index, isIndex: true}
}

// IsIndex reports whether the segment is an array index.
func (s PathSegment) IsIndex() bool {
	return s.isIndex
}

// Key returns the object key of a key segment.
func (s PathSegment) Key() string {
	return s.key
}

// Index returns the array index of an index segment.
func (s PathSegment) Index() int {
	return s.index
}

func (s PathSegment) value() interface{} {
	if s.isIndex {
		return s.index
	}

	return s.key
}

// ParsePathSegment converts a decoded path element (a string, or a non-negative integral number that fits an int)
// into a segment.
func ParsePathSegment(v interface{}) (PathSegment, error) {
	switch val := v.(type) {
	case string:
		return KeySegment(val), nil
	case uint64:
		if val > math.MaxInt {
			return PathSegment{}, fmt.Errorf("%w: path index %d out of range", common.ErrIntegrity, val)
		}

		return IndexSegment(int(val)), nil
	case int64:
		if val < 0 || val > math.MaxInt {
			return PathSegment{}, fmt.Errorf("%w: path index %d out of range", common.ErrIntegrity, val)
		}

		return IndexSegment(int(val)), nil
	case int:
		if val < 0 {
			return PathSegment{}, fmt.Errorf("%w: path index %d out of range", common.ErrIntegrity, val)
		}

		return IndexSegment(val), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return PathSegment{}, fmt.Errorf("%w: invalid path index %s", common.ErrIntegrity, val)
		}

		return ParsePathSegment(i)
	case float64:
		if val < 0 || val >= math.MaxInt || val != math.Trunc(val) {
			return PathSegment{}, fmt.Errorf("%w: invalid path index %v", common.ErrIntegrity, val)
		}

		return IndexSegment(int(val)), nil
	}

	return PathSegment{}, fmt.Errorf("%w: invalid path segment type %T", common.ErrIntegrity, v)
}

// MarshalCBOR encodes the segment as a CBOR text string or unsigned integer.
func (s PathSegment) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(s.value())
}

// UnmarshalCBOR decodes a CBOR text string or unsigned integer.
func (s *PathSegment) UnmarshalCBOR(data []byte) error {
	var v interface{}
	if err := codec.Unmarshal(data, &v); err != nil {
		return err
	}

	seg, err := ParsePathSegment(v)
	if err != nil {
		return err
	}

	*s = seg

	return nil
}

// MarshalJSON encodes the segment as a JSON string or number.
func (s PathSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value())
}

// UnmarshalJSON decodes a JSON string or number.
func (s *PathSegment) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	seg, err := ParsePathSegment(v)
	if err != nil {
		return err
	}

	*s = seg

	return nil
}

// Path addresses one scalar leaf inside a document.
type Path []PathSegment

// NewPath builds a path from string keys and int indices.
func NewPath(segments ...interface{}) (Path, error) {
	p := make(Path, 0, len(segments))

	for _, s := range segments {
		switch val := s.(type) {
		case string:
			p = append(p, KeySegment(val))
		case int:
			if val < 0 {
				return nil, fmt.Errorf("%w: negative path index %d", common.ErrInvalidInput, val)
			}

			p = append(p, IndexSegment(val))
		default:
			return nil, fmt.Errorf("%w: invalid path segment type %T", common.ErrInvalidInput, s)
		}
	}

	return p, nil
}

// Append returns a copy of p extended with seg.
func (p Path) Append(seg PathSegment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)

	return append(out, seg)
}

// Equal reports whether both paths address the same leaf.
func (p Path) Equal(other Path) bool {
	return len(p) == len(other) && p.HasPrefix(other)
}

// HasPrefix reports whether prefix is a leading sub-path of p (or equal to it).
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}

	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}

	return true
}

// String renders the path in pattern syntax, e.g. this.object.bar[1].
func (p Path) String() string {
	var sb strings.Builder

	sb.WriteString(RootSentinel)

	for _, seg := range p {
		switch {
		case seg.isIndex:
			sb.WriteString("[" + strconv.Itoa(seg.index) + "]")
		case isPlainKey(seg.key):
			sb.WriteString("." + seg.key)
		default:
			sb.WriteString("[" + strconv.Quote(seg.key) + "]")
		}
	}

	return sb.String()
}

func isPlainKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, `.[]"`+wildcard)
}

// Pattern is a parsed path pattern. A pattern ending with a wildcard matches its prefix path and every path
// under it.
type Pattern struct {
	Path     Path
	Wildcard bool
}

// ParsePattern parses a pattern such as this.object.bar[1], this["a.b"] or this.object.*.
func ParsePattern(s string) (Pattern, error) {
	if !strings.HasPrefix(s, RootSentinel) {
		return Pattern{}, fmt.Errorf("%w: path pattern %q must start with %q", common.ErrInvalidInput, s, RootSentinel)
	}

	var pattern Pattern

	rest := s[len(RootSentinel):]

	for rest != "" {
		if pattern.Wildcard {
			return Pattern{}, fmt.Errorf("%w: wildcard must be the last segment of %q", common.ErrInvalidInput, s)
		}

		if strings.HasPrefix(rest, "."+wildcard) || strings.HasPrefix(rest, "["+wildcard+"]") {
			pattern.Wildcard = true
			rest = strings.TrimPrefix(strings.TrimPrefix(rest, "."+wildcard), "["+wildcard+"]")

			continue
		}

		var (
			seg PathSegment
			n   int
			err error
		)

		switch rest[0] {
		case '.':
			seg, n, err = parseDotSegment(rest)
		case '[':
			seg, n, err = parseBracketSegment(rest)
		default:
			err = fmt.Errorf("unexpected character %q", rest[0])
		}

		if err != nil {
			return Pattern{}, fmt.Errorf("%w: path pattern %q: %s", common.ErrInvalidInput, s, err.Error())
		}

		rest = rest[n:]
		pattern.Path = append(pattern.Path, seg)
	}

	return pattern, nil
}

func parseDotSegment(s string) (PathSegment, int, error) {
	end := 1
	for end < len(s) && s[end] != '.' && s[end] != '[' {
		end++
	}

	key := s[1:end]
	if key == "" {
		return PathSegment{}, 0, fmt.Errorf("empty key")
	}

	if strings.ContainsAny(key, `]"`) {
		return PathSegment{}, 0, fmt.Errorf("invalid key %q", key)
	}

	if strings.Contains(key, wildcard) {
		return PathSegment{}, 0, fmt.Errorf("wildcard inside key %q, quote it as [%q] to match it literally", key, key)
	}

	return KeySegment(key), end, nil
}

func parseBracketSegment(s string) (PathSegment, int, error) {
	if len(s) > 1 && s[1] == '"' {
		end := 2
		for end < len(s) && s[end] != '"' {
			if s[end] == '\\' {
				end++
			}
			end++
		}

		if end >= len(s)-1 || s[end+1] != ']' {
			return PathSegment{}, 0, fmt.Errorf("unterminated quoted key")
		}

		key, err := strconv.Unquote(s[1 : end+1])
		if err != nil {
			return PathSegment{}, 0, fmt.Errorf("invalid quoted key: %w", err)
		}

		return KeySegment(key), end + 2, nil
	}

	closing := strings.IndexByte(s, ']')
	if closing < 0 {
		return PathSegment{}, 0, fmt.Errorf("missing ]")
	}

	index, err := strconv.Atoi(s[1:closing])
	if err != nil || index < 0 || s[1] == '+' {
		return PathSegment{}, 0, fmt.Errorf("invalid index %q", s[1:closing])
	}

	return IndexSegment(index), closing + 1, nil
}

// Match reports whether path is addressed by the pattern.
func (p Pattern) Match(path Path) bool {
	if p.Wildcard {
		return path.HasPrefix(p.Path)
	}

	return path.Equal(p.Path)
}

// String renders the pattern.
func (p Pattern) String() string {
	if p.Wildcard {
		return p.Path.String() + "." + wildcard
	}

	return p.Path.String()
}
