package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/hcaudit/internal/crossref"
	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/fields"
	"github.com/hyperifyio/hcaudit/internal/report"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func fullReport(leader, potential string) *document.Model {
	return document.Build(reportElements(leader, potential))
}

func reportElements(leader, potential string) document.Elements {
	return document.Elements{
		document.Text("编号：CPY-0790-A"),
		document.Text("编制时间：2024年3月"),
		document.Text("一、高后果区基本信息"),
		document.TableOf(
			[]string{"高后果区基本信息表", ""},
			[]string{"高后果区编号", "CPY-0790-A"},
			[]string{"高后果区类型", "人员密集型"},
			[]string{"高后果区等级", "Ⅱ级"},
			[]string{"专职区长", "张三"},
			[]string{"位置", "河南省郑州市"},
			[]string{"识别时间", "2024年3月"},
		),
		document.Media(""),
		document.Text("二、现场情况"),
		document.Text("（1）高后果区现场图"),
		document.Media(""),
		document.Text("（2）入场线路图"),
		document.Media(""),
		document.Text("（3）逃生路线图"),
		document.Media(""),
		document.Text("（4）应急疏散集结点"),
		document.Media(""),
		document.Text("三、高后果区风险评价结果表"),
		document.TableOf(
			[]string{"高后果区风险评价结果表"},
			[]string{"位置：河南省郑州市"},
			[]string{"失效可能性：0.2  失效后果值：5  风险值：1.0  风险等级：低"},
			[]string{"风险评价时间：2024年5月"},
		),
		document.Text("四、人防措施"),
		document.Text("专职区（段）长：" + leader + "，负责巡护"),
		document.Text("高后果区管道电位测试结果"),
		document.TableOf([]string{"测试桩号", "电位(V)"}, []string{"K1", potential}),
	}
}

func TestRun_CleanReport(t *testing.T) {
	rep := Run(fullReport("张三", "-0.95"), Options{Document: "a.docx", Now: now})

	for _, f := range rep.Findings {
		assert.True(t, f.Passing(), "%s: %s", f.RuleID, f.Detail)
	}
	assert.True(t, rep.Verdict.Clean)
	assert.Equal(t, report.VerdictClean, rep.Verdict.Summary)
	assert.Equal(t, 5, rep.Score)

	require.Len(t, rep.Sections, 5)
	names := make([]string, 0, len(rep.Sections))
	for _, s := range rep.Sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{SectionCompleteness, SectionCrossRef, SectionFields, SectionTemporal, SectionBasicInfo}, names)
	basic := rep.Sections[4]
	assert.Empty(t, basic.Findings)
	assert.Contains(t, basic.Lines, "高后果区等级：Ⅱ级")
}

func TestRun_IssuesInRuleOrder(t *testing.T) {
	rep := Run(fullReport("李四", "-0.5"), Options{Document: "b.docx", Now: now})

	assert.False(t, rep.Verdict.Clean)
	require.Len(t, rep.Verdict.Reasons, 2)
	assert.True(t, strings.HasPrefix(rep.Verdict.Reasons[0], crossref.RuleLeader+": "))
	assert.True(t, strings.HasPrefix(rep.Verdict.Reasons[1], fields.RulePotential+": "))
	assert.Equal(t, 3, rep.Score)
}

func TestRun_Deterministic(t *testing.T) {
	r := rules.Default()
	render := func() []byte {
		var buf bytes.Buffer
		require.NoError(t, report.RenderJSON(&buf, Run(fullReport("李四", "-0.5"), Options{Document: "c.docx", Rules: r, Now: now})))
		require.NoError(t, report.RenderText(&buf, Run(fullReport("李四", "-0.5"), Options{Document: "c.docx", Rules: r, Now: now})))
		return buf.Bytes()
	}
	assert.Equal(t, render(), render())
}

func TestRun_MissingFieldDataLowersScoreOnly(t *testing.T) {
	els := reportElements("张三", "-0.95")
	// Drop the potential table with its title and the grade row.
	els = els[:len(els)-2]
	basic := els[3].Table
	basic.Rows = append(basic.Rows[:3:3], basic.Rows[4:]...)

	rep := Run(document.Build(els), Options{Document: "d.docx", Now: now})
	assert.True(t, rep.Verdict.Clean, "reasons: %v", rep.Verdict.Reasons)
	assert.Equal(t, 4, rep.Score)

	var potential, grade bool
	for _, f := range rep.Findings {
		switch f.RuleID {
		case fields.RulePotential:
			potential = true
			assert.True(t, f.Informational)
		case fields.RuleGrade:
			grade = true
			assert.True(t, f.Informational)
		}
	}
	assert.True(t, potential && grade)
}

func TestRun_EmptyDocument(t *testing.T) {
	rep := Run(document.Build(nil), Options{Now: now})
	assert.False(t, rep.Verdict.Clean, "missing dates are issues")
	assert.Equal(t, 2, rep.Score)
}
