package crossref

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/finding"
)

// Verdict phrases shared by findings and the text summary.
const (
	Consistent   = "一致"
	Inconsistent = "不一致"
	NotEnough    = "数据不足（无法对比）"

	// NotFound is the sentinel printed for a missing identifier.
	NotFound = "未找到"
)

// Source is one side of a comparison: a display name and the comparable
// values found there.
type Source struct {
	Name   string
	Values []string
}

// CompareSets reports Conflict only when both sources have values and share
// none. An empty side makes the comparison InsufficientData, which is
// informational: the section simply lacks the field.
func CompareSets(ruleID string, a, b Source) finding.Finding {
	if len(a.Values) == 0 || len(b.Values) == 0 {
		f := finding.Insufficient(ruleID, NotEnough)
		f.Informational = true
		return f
	}
	set := make(map[string]struct{}, len(a.Values))
	for _, v := range a.Values {
		set[v] = struct{}{}
	}
	for _, v := range b.Values {
		if _, ok := set[v]; ok {
			return finding.Satisfy(ruleID, Consistent)
		}
	}
	return finding.Conflicting(ruleID, Inconsistent+"："+side(a)+" vs "+side(b))
}

// CompareIdentifiers reports Conflict when both identifiers were found and
// differ. Empty or NotFound on either side is InsufficientData.
func CompareIdentifiers(ruleID, cover, table string) finding.Finding {
	if absent(cover) || absent(table) {
		f := finding.Insufficient(ruleID, NotEnough)
		f.Informational = true
		return f
	}
	if cover != table {
		return finding.Conflicting(ruleID, Inconsistent+"：封面编号["+cover+"] vs 高后果区基本信息表编号["+table+"]")
	}
	return finding.Satisfy(ruleID, Consistent)
}

func absent(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || id == NotFound
}

func side(s Source) string {
	return s.Name + "[" + strings.Join(s.Values, "，") + "]"
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// names keeps the value part of each labeled capture.
func names(ls []Labeled) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Value)
	}
	return out
}

// places keeps the value part with all whitespace removed.
func places(ls []Labeled) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, whitespaceRe.ReplaceAllString(l.Value, ""))
	}
	return out
}
