// Package moderation screens chat text against a blocked-term list.
package moderation

import (
	"context"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/core"
)

const reasonBlocked = "contains blocked words"

var _ core.ContentScreen = (*Screen)(nil)

// Screen matches normalized text against blocked terms with an Aho-Corasick automaton.
type Screen struct {
	matcher *goahocorasick.Machine
}

// NewScreen builds the automaton from terms. Blank terms are ignored; an
// empty list yields a screen that allows everything.
func NewScreen(terms []string) (*Screen, error) {
	patterns := make([][]rune, 0, len(terms))
	for _, term := range terms {
		if p := normalizeRunes([]rune(term)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return &Screen{}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Screen{matcher: m}, nil
}

// Screen rejects text containing any blocked term, ignoring case,
// punctuation, spacing and common leet substitutions.
func (s *Screen) Screen(_ context.Context, text string) core.Verdict {
	if s.matcher == nil {
		return core.Verdict{Allowed: true}
	}
	norm := normalizeRunes([]rune(text))
	if len(norm) == 0 {
		return core.Verdict{Allowed: true}
	}

	terms := s.matcher.MultiPatternSearch(norm, false)
	if len(terms) == 0 {
		return core.Verdict{Allowed: true}
	}
	matches := lo.Uniq(lo.Map(terms, func(t *goahocorasick.Term, _ int) string { return string(t.Word) }))
	return core.Verdict{
		Allowed: false,
		Reason:  reasonBlocked + ": " + strings.Join(matches, ", "),
		Matches: matches,
	}
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps leet characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
