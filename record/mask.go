/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package record

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
)

// MaskPart hides the bytes [Start, End) of a string and shows Replacement instead.
type MaskPart struct {
	Start       int
	End         int
	Replacement string
}

// NewMaskableTransformation splits value into visible and hidden parts according to parts.
// Intervals must lie within [0, len(value)] and must not overlap.
func NewMaskableTransformation(value string, parts []MaskPart) (*Transformation, error) {
	sorted := make([]MaskPart, len(parts))
	copy(sorted, parts)

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	t := &Transformation{Kind: Maskable}
	pos := 0

	for _, part := range sorted {
		if part.Start < 0 || part.End > len(value) || part.Start >= part.End {
			return nil, fmt.Errorf("%w: mask interval [%d, %d) out of range for a string of length %d",
				common.ErrInvalidInput, part.Start, part.End, len(value))
		}

		if part.Start < pos {
			return nil, fmt.Errorf("%w: mask interval [%d, %d) overlaps a previous interval",
				common.ErrInvalidInput, part.Start, part.End)
		}

		t.VisibleParts = append(t.VisibleParts, value[pos:part.Start], part.Replacement)
		t.HiddenParts = append(t.HiddenParts, value[part.Start:part.End])
		pos = part.End
	}

	t.VisibleParts = append(t.VisibleParts, value[pos:])

	return t, nil
}

type substitutionToken struct {
	group   int
	literal string
}

// MaskPartsFromRegex translates a regular expression and a substitution string into mask intervals.
//
// The expression must match the whole value and its capture groups must cover it contiguously.
// Groups referenced in the substitution as $n stay visible; each literal in the substitution replaces the next
// unreferenced group. For example ^(.)(.*)(@.)(.*)$ with $1***$3*** turns "john@gmail.com" into "j***@g***".
func MaskPartsFromRegex(value string, re *regexp.Regexp, substitution string) ([]MaskPart, error) {
	if re == nil {
		return nil, fmt.Errorf("%w: missing regular expression", common.ErrInvalidInput)
	}

	loc := re.FindStringSubmatchIndex(value)
	if loc == nil || loc[0] != 0 || loc[1] != len(value) {
		return nil, fmt.Errorf("%w: regular expression %s does not match the entire string",
			common.ErrInvalidInput, re.String())
	}

	groups := len(loc)/2 - 1
	pos := 0

	for g := 1; g <= groups; g++ {
		start, end := loc[2*g], loc[2*g+1]
		if start != pos {
			return nil, fmt.Errorf("%w: capture groups of %s do not cover the entire string",
				common.ErrInvalidInput, re.String())
		}

		pos = end
	}

	if pos != len(value) {
		return nil, fmt.Errorf("%w: capture groups of %s do not cover the entire string",
			common.ErrInvalidInput, re.String())
	}

	tokens, err := parseSubstitution(substitution, groups)
	if err != nil {
		return nil, err
	}

	referenced := make(map[int]bool)

	for _, tok := range tokens {
		if tok.group > 0 {
			referenced[tok.group] = true
		}
	}

	var parts []MaskPart

	next := 1

	// hides, with an empty replacement, every unreferenced group before upTo
	hideUntil := func(upTo int) {
		for ; next < upTo; next++ {
			if !referenced[next] {
				parts = append(parts, MaskPart{Start: loc[2*next], End: loc[2*next+1]})
			}
		}
	}

	for _, tok := range tokens {
		if tok.group > 0 {
			if tok.group < next {
				return nil, fmt.Errorf("%w: substitution references $%d out of order", common.ErrInvalidInput, tok.group)
			}

			hideUntil(tok.group)
			next = tok.group + 1

			continue
		}

		if next > groups || referenced[next] {
			return nil, fmt.Errorf("%w: substitution literal %q does not replace any group",
				common.ErrInvalidInput, tok.literal)
		}

		parts = append(parts, MaskPart{Start: loc[2*next], End: loc[2*next+1], Replacement: tok.literal})
		next++
	}

	hideUntil(groups + 1)

	// empty groups hide nothing
	nonEmpty := parts[:0]

	for _, p := range parts {
		if p.Start < p.End {
			nonEmpty = append(nonEmpty, p)
		}
	}

	return nonEmpty, nil
}

func parseSubstitution(s string, groups int) ([]substitutionToken, error) {
	var (
		tokens  []substitutionToken
		literal []byte
	)

	flush := func() {
		if len(literal) > 0 {
			tokens = append(tokens, substitutionToken{literal: string(literal)})
			literal = nil
		}
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			literal = append(literal, s[i])

			continue
		}

		if i+1 < len(s) && s[i+1] == '$' {
			literal = append(literal, '$')
			i++

			continue
		}

		end := i + 1
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}

		if end == i+1 {
			return nil, fmt.Errorf("%w: invalid group reference in substitution %q", common.ErrInvalidInput, s)
		}

		group, err := strconv.Atoi(s[i+1 : end])
		if err != nil || group < 1 || group > groups {
			return nil, fmt.Errorf("%w: substitution %q references unknown group %s",
				common.ErrInvalidInput, s, s[i+1:end])
		}

		flush()

		tokens = append(tokens, substitutionToken{group: group})
		i = end - 1
	}

	flush()

	return tokens, nil
}
