// Package match locates captioned evidence in a block sequence.
//
// A caption is any block whose normalized text contains one of a label's
// aliases. The media that belongs to it must follow within a small window and
// must not be separated from it by the start of a new enumerated item.
package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/hyperifyio/hcaudit/internal/document"
)

// Normalize trims s and folds full-width ASCII variants (digits, colons,
// parentheses, the ideographic space) to their narrow forms. Han text and
// ideographic punctuation are left alone; there is no case folding.
func Normalize(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// AliasSet is a canonical label and the synonyms accepted in its place.
type AliasSet struct {
	Canonical string
	Synonyms  []string
}

// NewAliasSet builds a set from a label-first alias list such as the one
// returned by rules.Rules.Aliases.
func NewAliasSet(aliases []string) AliasSet {
	if len(aliases) == 0 {
		return AliasSet{}
	}
	return AliasSet{Canonical: aliases[0], Synonyms: aliases[1:]}
}

// All returns the canonical label followed by the synonyms, empty strings and
// duplicates removed.
func (a AliasSet) All() []string {
	out := make([]string, 0, 1+len(a.Synonyms))
	seen := make(map[string]struct{}, 1+len(a.Synonyms))
	for _, s := range append([]string{a.Canonical}, a.Synonyms...) {
		s = Normalize(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Match returns the first alias, in list order, contained in text.
func (a AliasSet) Match(text string) (string, bool) {
	text = Normalize(text)
	if text == "" {
		return "", false
	}
	for _, alias := range a.All() {
		if strings.Contains(text, alias) {
			return alias, true
		}
	}
	return "", false
}

// Barrier reports whether a block's text starts a new structural unit that
// detaches any later media from an earlier caption.
type Barrier func(text string) bool

var numberedItemRe = regexp.MustCompile(`^\s*[（(]?\s*\d+\s*[)）]`)

// NumberedItem is the default barrier: text that opens with a bracketed or
// half-bracketed numeral such as "（1）", "(2)" or "3)".
func NumberedItem(text string) bool {
	return numberedItemRe.MatchString(text)
}

// RegexpBarrier adapts a compiled pattern into a Barrier. A nil pattern yields
// NumberedItem.
func RegexpBarrier(re *regexp.Regexp) Barrier {
	if re == nil {
		return NumberedItem
	}
	return re.MatchString
}

// Rule names the strategy that produced an Evidence.
type Rule string

const (
	RuleWindow  Rule = "window"
	RuleSection Rule = "section"
)

// Evidence ties a required label to the caption block and the media block
// that satisfied it.
type Evidence struct {
	Label        string `json:"label"`
	CaptionIndex int    `json:"caption_index"`
	CaptionText  string `json:"caption_text"`
	MediaIndex   int    `json:"media_index"`
	Rule         Rule   `json:"rule"`
}

// LocateEvidence scans blocks in order for captions containing any alias. For
// each caption at position c the nearest media block in (c, c+window] is the
// candidate; it is rejected when any block strictly between the two satisfies
// barrier. The first caption in document order with an accepted candidate
// wins. A nil barrier means NumberedItem.
func LocateEvidence(blocks []document.Block, aliases AliasSet, window int, barrier Barrier) (Evidence, bool) {
	if barrier == nil {
		barrier = NumberedItem
	}
	if len(aliases.All()) == 0 || window < 1 {
		return Evidence{}, false
	}
	for c := range blocks {
		if _, ok := aliases.Match(blocks[c].Text); !ok {
			continue
		}
		media := -1
		for j := c + 1; j <= c+window && j < len(blocks); j++ {
			if blocks[j].HasMedia {
				media = j
				break
			}
		}
		if media < 0 {
			continue
		}
		if blocked(blocks[c+1:media], barrier) {
			continue
		}
		return Evidence{
			Label:        aliases.Canonical,
			CaptionIndex: blocks[c].Index,
			CaptionText:  blocks[c].Text,
			MediaIndex:   blocks[media].Index,
			Rule:         RuleWindow,
		}, true
	}
	return Evidence{}, false
}

// blocked tests the width-folded text, so "（２）" is a barrier like "（2）".
func blocked(between []document.Block, barrier Barrier) bool {
	for _, b := range between {
		if barrier(Normalize(b.Text)) {
			return true
		}
	}
	return false
}
