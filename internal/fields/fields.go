// Package fields validates extracted numeric and categorical values:
// pipe-to-soil potentials against the protection range, risk-assessment
// numbers and levels, and the declared area grade.
package fields

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
	RuleGrade = "fields.grade"

	// GradeField is the basic-info field holding the area grade.
	GradeField = "高后果区等级"
)

// Result carries the findings together with the 0..MaxScore data-logic score
// and its itemized deductions.
type Result struct {
	Potentials []Sample          `json:"potentials"`
	Risk       RiskData          `json:"risk"`
	Score      int               `json:"score"`
	Issues     []string          `json:"issues"`
	Findings   []finding.Finding `json:"findings"`
}

// Validate runs the potential, risk and grade checks in that order.
func Validate(m *document.Model, info category.BasicInfo, r *rules.Rules) Result {
	res := Result{
		Potentials: ExtractPotentials(m, r),
		Risk:       ExtractRisk(TextOf(m)),
	}
	res.Findings = append(res.Findings, ValidatePotentials(res.Potentials, r)...)
	res.Findings = append(res.Findings, ValidateRisk(res.Risk, r)...)
	res.Findings = append(res.Findings, ValidateGrade(info, r))
	res.Score, res.Issues = Score(res.Potentials, res.Risk, r)
	return res
}

// Score starts from MaxScore and deducts: two for any out-of-range
// potential, one per numeric field holding a non-numeric capture, one for
// any invalid risk level, and one each for absent potentials, absent risk
// numbers and absent risk levels. The score never drops below zero.
func Score(potentials []Sample, d RiskData, r *rules.Rules) (int, []string) {
	score := r.Fields.MaxScore
	var issues []string
	p := r.Fields.Potential

	var outside []string
	for _, s := range potentials {
		if s.Value < p.Min || s.Value > p.Max {
			outside = append(outside, formatFloat(s.Value))
		}
	}
	if len(outside) > 0 {
		issues = append(issues, "电位测试结果超出范围：["+strings.Join(outside, ", ")+"]")
		score -= 2
	}

	for _, f := range riskFields {
		if bad := nonNumeric(*f.pick(&d)); len(bad) > 0 {
			issues = append(issues, f.name+"字段包含非数值："+pyList(bad))
			score--
		}
	}

	var invalid []string
	for _, l := range d.Levels {
		if !allowed(l.Level, r.Fields.RiskLevels) {
			invalid = append(invalid, l.Level)
		}
	}
	if len(invalid) > 0 {
		issues = append(issues, "风险等级不符合标准："+pyList(invalid))
		score--
	}

	if len(potentials) == 0 {
		issues = append(issues, "缺少电位测试结果数据")
		score--
	}
	if !d.Numerics() {
		issues = append(issues, "缺少风险评价数值数据")
		score--
	}
	if len(d.Levels) == 0 {
		issues = append(issues, "缺少风险等级数据")
		score--
	}
	if score < 0 {
		score = 0
	}
	return score, issues
}

var romanGrades = strings.NewReplacer("III", "Ⅲ", "II", "Ⅱ", "I", "Ⅰ", "一", "Ⅰ", "二", "Ⅱ", "三", "Ⅲ")

// NormalizeGrade folds ASCII and Han numerals to Roman numeral characters
// and appends 级 when it is missing.
func NormalizeGrade(v string) string {
	v = strings.Join(strings.Fields(match.Normalize(v)), "")
	v = romanGrades.Replace(strings.ToUpper(v))
	if v != "" && !strings.HasSuffix(v, "级") {
		v += "级"
	}
	return v
}

// ValidateGrade checks the basic-info grade against the allowed levels. An
// absent grade is informational.
func ValidateGrade(info category.BasicInfo, r *rules.Rules) finding.Finding {
	f, ok := info.Get(GradeField)
	if !ok || f.Value() == "" {
		return absent(RuleGrade, GradeField+category.NotRecognized)
	}
	g := NormalizeGrade(f.Value())
	if !allowed(g, r.Fields.GradeLevels) {
		return finding.Conflicting(RuleGrade, GradeField+"不符合标准："+f.Value())
	}
	return finding.Satisfy(RuleGrade, GradeField+"："+g)
}

// absent reports a field with nothing to check. It lowers the score but
// never fails the report by itself.
func absent(ruleID, detail string) finding.Finding {
	f := finding.Insufficient(ruleID, detail)
	f.Informational = true
	return f
}

// Summary renders the score and issues.
func (r Result) Summary() []string {
	lines := []string{"数据逻辑检查：", "评分：" + strconv.Itoa(r.Score)}
	if len(r.Issues) == 0 {
		return append(lines, "结论：无问题")
	}
	lines = append(lines, "问题：")
	for _, is := range r.Issues {
		lines = append(lines, "- "+is)
	}
	return append(lines, "结论：存在问题")
}
