// Package category resolves a report's declared high-consequence-area
// category and maps it to the evidence the report must contain.
package category

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

var (
	blankRe     = regexp.MustCompile(`[ \t]+`)
	separatorRe = regexp.MustCompile(`[，,;/|]+`)
	trailingRe  = regexp.MustCompile(`[：:；;。]$`)
	splitRe     = regexp.MustCompile(`[、/|，,；; ]+`)
)

// ExtractCategory looks the category label up in the document's tables and
// returns its normalized value.
func ExtractCategory(m *document.Model, r *rules.Rules) (finding.ExtractedField, bool) {
	v, ok := Lookup(m.Grids(), r.Category.Label, LookupOptions{Prefer: PreferLonger, DownRows: r.Category.DownRows})
	if !ok {
		return finding.ExtractedField{}, false
	}
	norm := NormalizeValue(v.Text, r.Category.Replacements...)
	if norm == "" {
		return finding.ExtractedField{}, false
	}
	return finding.ExtractedField{
		Name:             r.Category.Label,
		RawValue:         v.Text,
		NormalizedValue:  norm,
		SourceBlockIndex: v.Block,
	}, true
}

// NormalizeValue applies the literal replacements, removes blanks, unifies
// separators to "、" and strips one trailing punctuation mark.
func NormalizeValue(raw string, repl ...rules.Replacement) string {
	s := strings.TrimSpace(raw)
	for _, rp := range repl {
		s = strings.ReplaceAll(s, rp.From, rp.To)
	}
	s = blankRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, "、")
	s = trailingRe.ReplaceAllString(s, "")
	return s
}

// SplitAndNormalize normalizes raw and splits it into distinct categories in
// first-seen order.
func SplitAndNormalize(raw string, repl ...rules.Replacement) []string {
	s := NormalizeValue(raw, repl...)
	if s == "" {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	for _, p := range splitRe.Split(s, -1) {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Applicable keeps the categories that carry evidence requirements.
func Applicable(categories []string, r *rules.Rules) []string {
	var out []string
	for _, c := range categories {
		if r.Supported(c) {
			out = append(out, c)
		}
	}
	return out
}

// RequiredEvidence is the union of each category's evidence list, in
// category order, deduplicated by label.
func RequiredEvidence(categories []string, r *rules.Rules) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range categories {
		for _, label := range r.Requirement(c) {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			out = append(out, label)
		}
	}
	return out
}
