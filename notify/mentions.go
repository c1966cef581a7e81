package notify

import (
	"unicode"

	"chat-client/errors"

	goahocorasick "github.com/anknown/ahocorasick"
)

// MentionMatcher flags messages containing any configured alert keyword
// (typically the user's own display name plus custom words). Matching is
// case-insensitive via rune normalization, multi-pattern in one pass.
type MentionMatcher struct {
	matcher *goahocorasick.Machine
}

func NewMentionMatcher(keywords []string) (*MentionMatcher, error) {
	if len(keywords) == 0 {
		return nil, errors.ErrEmptyKeywords
	}

	patterns := make([][]rune, len(keywords))
	for i, word := range keywords {
		patterns[i] = normalizeRunes([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &MentionMatcher{matcher: m}, nil
}

func (m *MentionMatcher) Matches(content string) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	normalized := normalizeRunes([]rune(content))
	if len(normalized) == 0 {
		return false
	}
	return len(m.matcher.MultiPatternSearch(normalized, true)) > 0
}

func normalizeRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}
