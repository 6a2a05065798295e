// Package crossref checks that facts repeated across a report's sections
// agree: district leader names, locations and the report identifier.
package crossref

import (
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

const (
	RuleLeader     = "crossref.leader"
	RuleLocation   = "crossref.location"
	RuleIdentifier = "crossref.identifier"
)

type Result struct {
	Leaders     Leaders           `json:"leaders"`
	Locations   Locations         `json:"locations"`
	Identifiers Identifiers       `json:"identifiers"`
	Findings    []finding.Finding `json:"findings"`
}

// Validate extracts every compared fact and evaluates the three rules in
// order: leaders (prevention measures vs basic info), locations (basic info vs
// risk table), identifiers (cover vs table).
func Validate(m *document.Model, r *rules.Rules) Result {
	s := BuildSections(m, r)
	res := Result{
		Leaders:     ExtractLeaders(s, r),
		Locations:   ExtractLocations(s, r),
		Identifiers: ExtractIdentifiers(m, s, r),
	}
	res.Leaders.Measures = PickMeasureLeaders(ExtractControlMeasures(m), r)

	res.Findings = []finding.Finding{
		CompareSets(RuleLeader,
			Source{Name: "人防措施", Values: names(res.Leaders.Prevention)},
			Source{Name: "基本信息表", Values: names(res.Leaders.BasicInfo)}),
		CompareSets(RuleLocation,
			Source{Name: "基本信息表", Values: places(res.Locations.BasicInfo)},
			Source{Name: "风险评价表", Values: places(res.Locations.RiskTable)}),
		CompareIdentifiers(RuleIdentifier, res.Identifiers.Cover, res.Identifiers.Table),
	}
	return res
}

// Summary renders the extracted facts and the three verdicts.
func (r Result) Summary() []string {
	lines := []string{
		"上下文一致性检查：",
		"内容：",
		"- 区段长信息：",
		"  人防措施：" + joinOr(r.Leaders.Prevention),
		"  基本信息表：" + joinOr(r.Leaders.BasicInfo),
	}
	if len(r.Leaders.Measures) > 0 {
		titled := make([]string, 0, len(r.Leaders.Measures))
		for _, n := range r.Leaders.Measures {
			titled = append(titled, "专职区（段）长："+n)
		}
		lines = append(lines, "  风险评价表："+strings.Join(titled, "；"))
	} else {
		lines = append(lines, "  风险评价表：无")
	}
	lines = append(lines,
		"- 位置信息：",
		"  基本信息表："+joinOr(r.Locations.BasicInfo),
		"  风险评价表："+joinOr(r.Locations.RiskTable),
		"- 高后果区编号：",
		"  封面编号："+orNotFound(r.Identifiers.Cover),
		"  高后果区基本信息表编号："+orNotFound(r.Identifiers.Table),
		"",
		"结论：",
	)
	titles := map[string]string{
		RuleLeader:     "区段长信息",
		RuleLocation:   "位置信息",
		RuleIdentifier: "高后果区编号",
	}
	for _, f := range r.Findings {
		lines = append(lines, "- "+titles[f.RuleID]+"："+verdict(f))
	}
	for _, f := range r.Findings {
		if f.Status != finding.Conflict {
			continue
		}
		lines = append(lines, "", "[详情] "+titles[f.RuleID]+"：")
		switch f.RuleID {
		case RuleLeader:
			lines = append(lines, "人防措施："+join(r.Leaders.Prevention), "基本信息表："+join(r.Leaders.BasicInfo))
		case RuleLocation:
			lines = append(lines, "基本信息表："+join(r.Locations.BasicInfo), "风险评价表："+join(r.Locations.RiskTable))
		case RuleIdentifier:
			lines = append(lines, "封面编号："+orNotFound(r.Identifiers.Cover), "高后果区基本信息表编号："+orNotFound(r.Identifiers.Table))
		}
	}
	return lines
}

func verdict(f finding.Finding) string {
	switch f.Status {
	case finding.Satisfied:
		return Consistent
	case finding.Conflict:
		return Inconsistent
	default:
		return NotEnough
	}
}

func join(ls []Labeled) string {
	parts := make([]string, 0, len(ls))
	for _, l := range ls {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, "；")
}

func joinOr(ls []Labeled) string {
	if s := join(ls); s != "" {
		return s
	}
	return "无"
}

func orNotFound(id string) string {
	if id == "" {
		return NotFound
	}
	return id
}
