package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/hcaudit/internal/category"
	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/report"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

func model(elems ...document.Element) *document.Model {
	return document.Build(document.Elements(elems))
}

func TestValidatePotentials_InAndOutOfRange(t *testing.T) {
	r := rules.Default()
	p := r.Fields.Potential

	in := FromText("电位：-0.95V", p)
	require.Len(t, in, 1)
	assert.Equal(t, -0.95, in[0].Value)
	got := ValidatePotentials(in, r)
	require.Len(t, got, 1)
	assert.Equal(t, finding.Satisfied, got[0].Status)

	out := FromText("电位：-0.5V", p)
	require.Len(t, out, 1)
	got = ValidatePotentials(out, r)
	require.Len(t, got, 1)
	assert.Equal(t, finding.Conflict, got[0].Status)
	assert.Contains(t, got[0].Detail, "-0.5V")
}

func TestValidatePotentials_NoReadingsIsInsufficientNotConflict(t *testing.T) {
	got := ValidatePotentials(nil, rules.Default())
	require.Len(t, got, 1)
	assert.Equal(t, RulePotential, got[0].RuleID)
	assert.Equal(t, finding.InsufficientData, got[0].Status)
	assert.True(t, got[0].Informational)
}

func TestMissingFieldDataKeepsVerdictClean(t *testing.T) {
	r := rules.Default()
	fs := ValidatePotentials(nil, r)
	fs = append(fs, ValidateRisk(RiskData{}, r)...)
	fs = append(fs, ValidateGrade(category.BasicInfo{}, r))
	require.Len(t, fs, 4)
	v := report.VerdictOf(fs)
	assert.True(t, v.Clean, "reasons: %v", v.Reasons)
	assert.Empty(t, v.Reasons)

	score, issues := Score(nil, RiskData{}, r)
	assert.Less(t, score, 5)
	assert.NotEmpty(t, issues)
}

func TestFromText_PlausibilityBandDropsMisparses(t *testing.T) {
	got := FromText("K12 测试桩 电位 -0.92 V，IR降 15，近6月：-1.05", rules.Default().Fields.Potential)
	var vals []float64
	for _, s := range got {
		vals = append(vals, s.Value)
	}
	assert.Equal(t, []float64{-0.92, -1.05}, vals)
}

func TestExtractPotentials_TableColumns(t *testing.T) {
	m := model(
		document.Text("高后果区管道电位测试结果"),
		document.TableOf(
			[]string{"测试桩号", "通电电位(V)", "断电电位(V)"},
			[]string{"K79", "-0.95", "-0.95"},
			[]string{"K80", "-1.10", "-0.40"},
			[]string{"", "", ""},
		),
	)
	got := ExtractPotentials(m, rules.Default())
	require.Len(t, got, 3)
	assert.Equal(t, -0.95, got[0].Value)
	assert.Equal(t, "表格：高后果区管道电位测试结果 | 列：通电电位(V) | 行1：K79 | -0.95 | -0.95", got[0].Context)
	assert.Equal(t, -1.10, got[1].Value)
	assert.Equal(t, -0.40, got[2].Value)
}

func TestExtractPotentials_RowFallback(t *testing.T) {
	m := model(
		document.Text("高后果区管道电位测试结果"),
		document.TableOf(
			[]string{"测试桩号", "近三月", "备注"},
			[]string{"K79 +0.989 +0.994", "", ""},
		),
	)
	got := ExtractPotentials(m, rules.Default())
	require.Len(t, got, 2)
	assert.Equal(t, 0.989, got[0].Value)
	assert.Equal(t, "表格：高后果区管道电位测试结果 | 行1：K79 +0.989 +0.994  ", got[0].Context)
}

func TestExtractPotentials_StakeNumberIsNotAReading(t *testing.T) {
	m := model(
		document.Text("高后果区管道电位测试结果"),
		document.TableOf(
			[]string{"测试桩号", "近三月", "备注"},
			[]string{"K1", "", ""},
			[]string{"K2 -0.92", "", ""},
		),
	)
	got := ExtractPotentials(m, rules.Default())
	require.Len(t, got, 1)
	assert.Equal(t, -0.92, got[0].Value)
}

func TestExtractPotentials_TextRouteWithoutTitle(t *testing.T) {
	m := model(
		document.Text("本次检测电位：-1.00V"),
		document.TableOf([]string{"测试桩号", "读数"}, []string{"A", "-0.3"}),
	)
	got := ExtractPotentials(m, rules.Default())
	require.Len(t, got, 1)
	assert.Equal(t, -1.0, got[0].Value)
}

func TestExtractRisk(t *testing.T) {
	d := ExtractRisk("失效可能性：0.3  失效后果值：12\n风险值：3.6  风险等级：较高\n可能性：高")
	require.Len(t, d.Possibility, 2)
	assert.True(t, d.Possibility[0].Numeric)
	assert.Equal(t, 0.3, d.Possibility[0].Value)
	assert.False(t, d.Possibility[1].Numeric)
	require.Len(t, d.Consequence, 1)
	require.Len(t, d.RiskValue, 1)
	require.Len(t, d.Levels, 1)
	assert.Equal(t, "较高", d.Levels[0].Level)
}

func TestExtractRisk_HeaderRowIsNotAValue(t *testing.T) {
	d := ExtractRisk("失效可能性  失效后果值  风险值  风险等级")
	assert.False(t, d.Numerics())
	assert.Empty(t, d.Levels)
}

func TestValidateRisk(t *testing.T) {
	r := rules.Default()

	got := ValidateRisk(RiskData{}, r)
	require.Len(t, got, 2)
	assert.Equal(t, finding.InsufficientData, got[0].Status)
	assert.Equal(t, RuleRiskNumeric, got[0].RuleID)
	assert.Equal(t, finding.InsufficientData, got[1].Status)
	assert.Equal(t, RuleRiskLevel, got[1].RuleID)
	assert.True(t, got[0].Informational)
	assert.True(t, got[1].Informational)

	got = ValidateRisk(ExtractRisk("可能性：高 风险值：2 风险等级：中低"), r)
	require.Len(t, got, 3)
	assert.Equal(t, finding.Conflict, got[0].Status)
	assert.Equal(t, "possibility字段包含非数值：['可能性：高']", got[0].Detail)
	assert.Equal(t, finding.Satisfied, got[1].Status)
	assert.Equal(t, finding.Conflict, got[2].Status)
}

func TestScore(t *testing.T) {
	r := rules.Default()

	score, issues := Score(nil, RiskData{}, r)
	assert.Equal(t, 2, score)
	assert.Equal(t, []string{"缺少电位测试结果数据", "缺少风险评价数值数据", "缺少风险等级数据"}, issues)

	d := ExtractRisk("可能性：高 后果值：低 风险值：中 风险等级：特高")
	score, issues = Score([]Sample{{Value: -0.5}, {Value: 1}}, d, r)
	assert.Equal(t, 0, score, "score is floored at zero")
	assert.Equal(t, "电位测试结果超出范围：[-0.5, 1.0]", issues[0])

	score, issues = Score([]Sample{{Value: -0.9}}, ExtractRisk("可能性：0.2 风险等级：低"), r)
	assert.Equal(t, 5, score)
	assert.Empty(t, issues)
}

func TestValidateGrade(t *testing.T) {
	r := rules.Default()
	grade := func(v string) category.BasicInfo {
		return category.BasicInfo{Fields: []category.BasicField{{
			Name:  GradeField,
			Field: &finding.ExtractedField{Name: GradeField, RawValue: v, NormalizedValue: v},
		}}}
	}
	cases := map[string]finding.Status{
		"Ⅱ级": finding.Satisfied,
		"III": finding.Satisfied,
		"二级": finding.Satisfied,
		"Ⅳ级": finding.Conflict,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidateGrade(grade(in), r).Status, in)
	}
	missing := ValidateGrade(category.BasicInfo{}, r)
	assert.Equal(t, finding.InsufficientData, missing.Status)
	assert.True(t, missing.Passing())
	assert.False(t, ValidateGrade(grade("Ⅳ级"), r).Passing())
}

func TestValidate_EndToEnd(t *testing.T) {
	m := model(
		document.Text("高后果区管道电位测试结果"),
		document.TableOf([]string{"测试桩号", "电位(V)"}, []string{"K1", "-0.95"}),
		document.TableOf(
			[]string{"失效可能性", "失效后果值", "风险值", "风险等级"},
			[]string{"失效可能性：0.2", "失效后果值：5", "风险值：1.0", "风险等级：低"},
		),
	)
	r := rules.Default()
	res := Validate(m, category.ExtractBasicInfo(m, r), r)
	assert.Equal(t, 5, res.Score)
	assert.Contains(t, res.Summary(), "结论：无问题")
	assert.Equal(t, RuleGrade, res.Findings[len(res.Findings)-1].RuleID)
}
