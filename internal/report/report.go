// Package report aggregates validator findings into a per-document report
// and renders it as text, JSON or PDF.
package report

import (
	"github.com/hyperifyio/hcaudit/internal/finding"
)

const (
	VerdictClean  = "no issues"
	VerdictIssues = "issues found"
)

// Verdict is the top-level outcome. Reasons lists "ruleId: detail" for each
// finding that fails, in evaluation order.
type Verdict struct {
	Clean   bool     `json:"clean"`
	Summary string   `json:"summary"`
	Reasons []string `json:"reasons,omitempty"`
}

// Section groups one validator's findings with its human-readable lines.
type Section struct {
	Name     string            `json:"name"`
	Lines    []string          `json:"lines,omitempty"`
	Findings []finding.Finding `json:"findings,omitempty"`
}

// Report is the complete audit result for one document.
type Report struct {
	Document string            `json:"document"`
	Score    int               `json:"score"`
	Verdict  Verdict           `json:"verdict"`
	Findings []finding.Finding `json:"findings"`
	Sections []Section         `json:"sections"`
}

// Build concatenates the section findings in order and derives the verdict
// from them. It re-derives nothing else.
func Build(document string, sections []Section) *Report {
	r := &Report{Document: document, Sections: sections, Findings: []finding.Finding{}}
	for _, s := range sections {
		r.Findings = append(r.Findings, s.Findings...)
	}
	r.Verdict = VerdictOf(r.Findings)
	return r
}

// VerdictOf is clean when every finding passes. Informational findings never
// count against it.
func VerdictOf(fs []finding.Finding) Verdict {
	var reasons []string
	for _, f := range fs {
		if !f.Passing() {
			reasons = append(reasons, f.RuleID+": "+f.Detail)
		}
	}
	if len(reasons) == 0 {
		return Verdict{Clean: true, Summary: VerdictClean}
	}
	return Verdict{Summary: VerdictIssues, Reasons: reasons}
}

// Counts tallies findings by status name.
func (r *Report) Counts() map[string]int {
	out := map[string]int{}
	for _, f := range r.Findings {
		out[f.Status.String()]++
	}
	return out
}
