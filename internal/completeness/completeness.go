// Package completeness checks that every figure required by a report's
// category is present next to its caption.
package completeness

import (
	"strconv"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/category"
	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/match"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

const (
	RuleApplicability = "completeness.applicability"
	rulePrefix        = "completeness."
)

// Result is the outcome of one completeness run.
type Result struct {
	// Category is the normalized category value, empty when not found.
	Category   string            `json:"category"`
	Categories []string          `json:"categories"`
	Required   []string          `json:"required"`
	Evidence   []match.Evidence  `json:"evidence"`
	Missing    []string          `json:"missing"`
	Findings   []finding.Finding `json:"findings"`
}

// Applicable reports whether any category required evidence.
func (r Result) Applicable() bool { return len(r.Required) > 0 }

// Validate resolves the category, derives the required evidence and locates
// each item. Labels with a section rule try it first and fall back to the
// windowed caption rule.
func Validate(m *document.Model, r *rules.Rules) Result {
	var res Result
	if f, ok := category.ExtractCategory(m, r); ok {
		res.Category = f.NormalizedValue
		res.Categories = category.SplitAndNormalize(f.NormalizedValue, r.Category.Replacements...)
	}
	res.Required = category.RequiredEvidence(category.Applicable(res.Categories, r), r)
	if len(res.Required) == 0 {
		res.Findings = []finding.Finding{finding.Satisfy(RuleApplicability, "not applicable: no category requiring evidence")}
		return res
	}

	blocks := m.Blocks()
	barrier := match.RegexpBarrier(r.Barrier())
	for _, label := range res.Required {
		ev, ok := locate(blocks, label, r, barrier)
		if !ok {
			res.Missing = append(res.Missing, label)
			res.Findings = append(res.Findings, finding.Miss(rulePrefix+label, "缺少"+label))
			continue
		}
		res.Evidence = append(res.Evidence, ev)
		res.Findings = append(res.Findings, finding.Satisfy(rulePrefix+label, evidenceDetail(ev)))
	}
	return res
}

func locate(blocks []document.Block, label string, r *rules.Rules, barrier match.Barrier) (match.Evidence, bool) {
	if start, end, ok := r.Section(label); ok {
		if sec, ok := match.SectionRange(blocks, start, end); ok {
			if ev, ok := match.LocateInSection(blocks, sec, label); ok {
				return ev, true
			}
		}
	}
	return match.LocateEvidence(blocks, match.NewAliasSet(r.Aliases(label)), r.Evidence.Window, barrier)
}

func evidenceDetail(ev match.Evidence) string {
	caption := ev.CaptionText
	if caption == "" {
		caption = "（无标题文本）"
	}
	return caption + " → block " + strconv.Itoa(ev.MediaIndex)
}

// Summary renders the human-readable completeness section.
func (r Result) Summary() []string {
	declared := r.Category
	if declared == "" {
		declared = "未识别"
	}
	lines := []string{"高后果区类型：" + declared}
	if !r.Applicable() {
		return append(lines, "内容完整性：✅ 无需判断（非人员密集型/环境敏感型或未识别，按规则视为没问题）")
	}
	if len(r.Missing) > 0 {
		lines = append(lines, "内容完整性：❌ 有问题")
		for _, m := range r.Missing {
			lines = append(lines, "缺少"+m)
		}
		lines = append(lines, "")
		if len(r.Evidence) > 0 {
			lines = append(lines, "已找到的图件：")
			lines = append(lines, evidenceLines(r.Evidence)...)
		}
		return lines
	}
	lines = append(lines, "内容完整性：✅ 没问题")
	return append(lines, evidenceLines(r.Evidence)...)
}

func evidenceLines(evs []match.Evidence) []string {
	var out []string
	for _, ev := range evs {
		caption := strings.TrimSpace(ev.CaptionText)
		if caption == "" {
			caption = "（无标题文本）"
		}
		out = append(out, "", "【"+ev.Label+"】", caption, "image")
	}
	return out
}
