package crossref

import (
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

// Sections holds the text gathered for each logical part of a report.
type Sections struct {
	BasicInfo  string `json:"basic_info"`
	RiskTable  string `json:"risk_table"`
	Prevention string `json:"prevention"`
	FullText   string `json:"full_text"`
}

// BuildSections splits a report into its basic-info, risk-table and
// prevention parts. Top-level paragraphs switch the current part when they
// match a heading pattern and are appended to it; whole tables are attached
// by keyword with basic-info taking precedence over risk-table over
// prevention.
func BuildSections(m *document.Model, r *rules.Rules) Sections {
	p := r.CrossRefPatterns()
	var basic, risk, prev, full strings.Builder
	var current *strings.Builder
	for _, b := range m.Paragraphs() {
		if b.Text == "" {
			continue
		}
		full.WriteString(b.Text + "\n")
		switch {
		case p.BasicInfoHeading.MatchString(b.Text):
			current = &basic
		case p.RiskHeading.MatchString(b.Text):
			current = &risk
		case p.PreventionHeading.MatchString(b.Text):
			current = &prev
		}
		if current != nil {
			current.WriteString(b.Text + "\n")
		}
	}
	for _, g := range m.Grids() {
		text := g.Text()
		switch {
		case p.BasicInfoHeading.MatchString(text):
			basic.WriteString("\n" + text)
		case p.RiskTable.MatchString(text):
			risk.WriteString("\n" + text)
		case p.PreventionTable.MatchString(text):
			prev.WriteString("\n" + text)
		}
	}
	return Sections{
		BasicInfo:  basic.String(),
		RiskTable:  risk.String(),
		Prevention: prev.String(),
		FullText:   full.String(),
	}
}
