package completeness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/match"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

func populatedReport(escapeImage bool) *document.Model {
	elems := []document.Element{
		document.Text("一、高后果区基本信息"),
		document.TableOf([]string{"高后果区类型", "人员密集型"}),
		document.Media(""),
		document.Text("二、现场情况"),
		document.Text("（1）高后果区现场图"),
		document.Media(""),
		document.Text("（2）入场线路图"),
		document.Media(""),
		document.Text("（3）逃生路线图"),
	}
	if escapeImage {
		elems = append(elems, document.Media(""))
	}
	elems = append(elems,
		document.Text("（4）应急疏散集合点位置"),
		document.Media(""),
	)
	return document.Build(document.Elements(elems))
}

func TestValidate_AllEvidencePresent(t *testing.T) {
	res := Validate(populatedReport(true), rules.Default())

	assert.Equal(t, "人员密集型", res.Category)
	require.Len(t, res.Findings, 5)
	for _, f := range res.Findings {
		assert.Equal(t, finding.Satisfied, f.Status, f.RuleID)
	}
	assert.Empty(t, res.Missing)

	require.Len(t, res.Evidence, 5)
	imagery := res.Evidence[0]
	assert.Equal(t, rules.LabelImagery, imagery.Label)
	assert.Equal(t, match.RuleSection, imagery.Rule)
	assert.Equal(t, 3, imagery.MediaIndex)
	assert.Equal(t, "一、高后果区基本信息（检测到章节内图片）", imagery.CaptionText)

	lines := res.Summary()
	assert.Equal(t, "高后果区类型：人员密集型", lines[0])
	assert.Equal(t, "内容完整性：✅ 没问题", lines[1])
	assert.Contains(t, lines, "【入场线路图】")
}

func TestValidate_BarrierLeavesEscapeRouteMissing(t *testing.T) {
	res := Validate(populatedReport(false), rules.Default())

	assert.Equal(t, []string{rules.LabelEscape}, res.Missing)
	require.Len(t, res.Findings, 5)
	escape := res.Findings[3]
	assert.Equal(t, "completeness."+rules.LabelEscape, escape.RuleID)
	assert.Equal(t, finding.Missing, escape.Status)
	assert.Equal(t, "缺少逃生路线图", escape.Detail)
	assert.Equal(t, finding.Satisfied, res.Findings[4].Status, "assembly point keeps its own image")

	lines := res.Summary()
	assert.Equal(t, "内容完整性：❌ 有问题", lines[1])
	assert.Equal(t, "缺少逃生路线图", lines[2])
	assert.Contains(t, lines, "已找到的图件：")
}

func TestValidate_ImageryFallsBackToCaptionWindow(t *testing.T) {
	m := document.Build(document.Elements{
		document.TableOf([]string{"高后果区类型", "环境敏感型"}),
		document.Text("高后果区影像图"),
		document.Media(""),
		document.Text("现场图片"),
		document.Media(""),
		document.Text("入场线路"),
		document.Media(""),
		document.Text("河流流向及围油栏预设点示意图"),
		document.Text("图1"),
		document.Media(""),
	})
	res := Validate(m, rules.Default())
	require.Len(t, res.Findings, 4)
	for _, f := range res.Findings {
		assert.Equal(t, finding.Satisfied, f.Status, f.RuleID)
	}
	assert.Equal(t, match.RuleWindow, res.Evidence[0].Rule)
	assert.Equal(t, rules.LabelOilBoom, res.Evidence[3].Label)
	assert.Equal(t, 10, res.Evidence[3].MediaIndex)
}

func TestValidate_NotApplicable(t *testing.T) {
	cases := map[string]*document.Model{
		"no category": document.Build(document.Elements{document.Text("报告"), document.Media("")}),
		"unsupported": document.Build(document.Elements{document.TableOf([]string{"高后果区类型", "地质灾害型"})}),
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			res := Validate(m, rules.Default())
			require.Len(t, res.Findings, 1)
			assert.Equal(t, RuleApplicability, res.Findings[0].RuleID)
			assert.Equal(t, finding.Satisfied, res.Findings[0].Status)
			assert.False(t, res.Applicable())
			assert.Contains(t, res.Summary()[1], "无需判断")
		})
	}
}

func TestValidate_CombinedCategoriesDeduplicateRequirements(t *testing.T) {
	m := document.Build(document.Elements{document.TableOf([]string{"高后果区类型", "人员密集型、环境敏感型"})})
	res := Validate(m, rules.Default())
	assert.Equal(t, []string{rules.CategoryPopulated, rules.CategoryEnviron}, res.Categories)
	assert.Len(t, res.Required, 6)
	assert.Len(t, res.Missing, 6)
}

func TestValidate_Deterministic(t *testing.T) {
	r := rules.Default()
	a := Validate(populatedReport(false), r)
	b := Validate(populatedReport(false), r)
	assert.Equal(t, a, b)
}
