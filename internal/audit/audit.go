// Package audit runs every validator over one document model and assembles
// the report.
package audit

import (
	"time"

	"github.com/hyperifyio/hcaudit/internal/category"
	"github.com/hyperifyio/hcaudit/internal/completeness"
	"github.com/hyperifyio/hcaudit/internal/crossref"
	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/fields"
	"github.com/hyperifyio/hcaudit/internal/report"
	"github.com/hyperifyio/hcaudit/internal/rules"
	"github.com/hyperifyio/hcaudit/internal/temporal"
)

// Section names, in evaluation order.
const (
	SectionCompleteness = "图件完整性"
	SectionCrossRef     = "上下文一致性"
	SectionFields       = "数据逻辑正确性"
	SectionTemporal     = "时间逻辑"
	SectionBasicInfo    = "标准符合性"
)

type Options struct {
	// Document names the report; usually the source path.
	Document string
	// Rules defaults to rules.Default().
	Rules *rules.Rules
	// Now is the reference date for the future-date rule. Zero means the
	// wall clock.
	Now time.Time
}

// Run evaluates completeness, cross-references, field values, dates and the
// basic-info summary, in that order. The basic-info section carries lines
// only.
func Run(m *document.Model, opts Options) *report.Report {
	r := opts.Rules
	if r == nil {
		r = rules.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	info := category.ExtractBasicInfo(m, r)
	comp := completeness.Validate(m, r)
	xref := crossref.Validate(m, r)
	fv := fields.Validate(m, info, r)
	tc := temporal.Check(temporal.Extract(temporal.TextOf(m), r.Temporal), temporal.FromTime(now))

	rep := report.Build(opts.Document, []report.Section{
		{Name: SectionCompleteness, Lines: comp.Summary(), Findings: comp.Findings},
		{Name: SectionCrossRef, Lines: xref.Summary(), Findings: xref.Findings},
		{Name: SectionFields, Lines: fv.Summary(), Findings: fv.Findings},
		{Name: SectionTemporal, Lines: tc.Summary(), Findings: tc.Findings},
		{Name: SectionBasicInfo, Lines: append([]string{"标准符合性检查："}, info.Lines()...)},
	})
	rep.Score = fv.Score
	return rep
}
