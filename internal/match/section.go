package match

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
)

// Section is a heading-bounded run of blocks. Start is the position of the
// heading block and End the position of the next heading (exclusive), or
// len(blocks) when the section runs to the end of the document.
type Section struct {
	Start   int
	End     int
	Heading string
}

// SectionRange finds the first block whose trimmed text matches start and
// closes the section at the next block matching end.
func SectionRange(blocks []document.Block, start, end *regexp.Regexp) (Section, bool) {
	if start == nil {
		return Section{}, false
	}
	s := -1
	for i, b := range blocks {
		if start.MatchString(strings.TrimSpace(b.Text)) {
			s = i
			break
		}
	}
	if s < 0 {
		return Section{}, false
	}
	sec := Section{Start: s, End: len(blocks), Heading: strings.TrimSpace(blocks[s].Text)}
	if end == nil {
		return sec, true
	}
	for i := s + 1; i < len(blocks); i++ {
		if end.MatchString(strings.TrimSpace(blocks[i].Text)) {
			sec.End = i
			break
		}
	}
	return sec, true
}

// LocateInSection accepts the first media block strictly inside sec,
// regardless of distance from any caption. The heading stands in as caption.
func LocateInSection(blocks []document.Block, sec Section, label string) (Evidence, bool) {
	for i := sec.Start + 1; i < sec.End && i < len(blocks); i++ {
		if !blocks[i].HasMedia {
			continue
		}
		return Evidence{
			Label:        label,
			CaptionIndex: blocks[sec.Start].Index,
			CaptionText:  sec.Heading + "（检测到章节内图片）",
			MediaIndex:   blocks[i].Index,
			Rule:         RuleSection,
		}, true
	}
	return Evidence{}, false
}
