package crossref

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

// Labeled is a captured value together with the label that introduced it.
type Labeled struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (l Labeled) String() string { return l.Label + "：" + l.Value }

// Leaders are responsible-party names per source.
type Leaders struct {
	Prevention []Labeled `json:"prevention"`
	BasicInfo  []Labeled `json:"basic_info"`
	RiskTable  []Labeled `json:"risk_table"`
	// Measures are names picked from the control-measures cells of the risk
	// table. They are reported but not compared.
	Measures []string `json:"measures"`
}

// Locations are place descriptions per source.
type Locations struct {
	BasicInfo []Labeled `json:"basic_info"`
	RiskTable []Labeled `json:"risk_table"`
}

// Identifiers are the report identifiers found on the cover and in the
// basic-info table. Empty means not found.
type Identifiers struct {
	Cover  string `json:"cover"`
	Table  string `json:"table"`
	Legacy bool   `json:"legacy,omitempty"`
}

// ExtractLeaders applies the leader pattern to each section and drops
// captures that cannot be names.
func ExtractLeaders(s Sections, r *rules.Rules) Leaders {
	re := r.CrossRefPatterns().Leader
	f := nameFilter(r.CrossRef)
	return Leaders{
		Prevention: labeled(re, s.Prevention, f),
		BasicInfo:  labeled(re, s.BasicInfo, f),
		RiskTable:  labeled(re, s.RiskTable, f),
	}
}

// ExtractLocations applies the location pattern to the basic-info and
// risk-table sections.
func ExtractLocations(s Sections, r *rules.Rules) Locations {
	re := r.CrossRefPatterns().Location
	return Locations{
		BasicInfo: labeled(re, s.BasicInfo, nil),
		RiskTable: labeled(re, s.RiskTable, nil),
	}
}

// ExtractIdentifiers takes the cover identifier from the first paragraph
// matching the cover pattern and the table identifier from the first table
// row matching the table pattern. When neither is present, the legacy
// pattern is searched in the full text: its first hit stands for the cover
// and its second for the table.
func ExtractIdentifiers(m *document.Model, s Sections, r *rules.Rules) Identifiers {
	p := r.CrossRefPatterns()
	var id Identifiers
	for _, b := range m.Paragraphs() {
		if b.Text == "" {
			continue
		}
		if sm := p.CoverID.FindStringSubmatch(b.Text); sm != nil {
			id.Cover = sm[2]
			break
		}
	}
tables:
	for _, g := range m.Grids() {
		for row := 0; row < g.Rows(); row++ {
			text := strings.TrimSpace(g.RowText(row, " "))
			if text == "" {
				continue
			}
			if sm := p.TableID.FindStringSubmatch(text); sm != nil {
				id.Table = sm[1]
				break tables
			}
		}
	}
	if id.Cover != "" || id.Table != "" {
		return id
	}
	var legacy []string
	seen := map[string]struct{}{}
	for _, sm := range p.LegacyID.FindAllStringSubmatch(s.FullText, -1) {
		if _, ok := seen[sm[1]]; ok {
			continue
		}
		seen[sm[1]] = struct{}{}
		legacy = append(legacy, sm[1])
	}
	if len(legacy) > 0 {
		id.Legacy = true
		id.Cover = legacy[0]
	}
	if len(legacy) > 1 {
		id.Table = legacy[1]
	}
	return id
}

func labeled(re *regexp.Regexp, text string, keep func(string) bool) []Labeled {
	var out []Labeled
	seen := map[string]struct{}{}
	for _, sm := range re.FindAllStringSubmatch(text, -1) {
		v := strings.TrimSpace(sm[2])
		if v == "" || (keep != nil && !keep(v)) {
			continue
		}
		l := Labeled{Label: sm[1], Value: v}
		if _, ok := seen[l.String()]; ok {
			continue
		}
		seen[l.String()] = struct{}{}
		out = append(out, l)
	}
	return out
}

func nameFilter(cr rules.CrossRefRules) func(string) bool {
	return func(v string) bool {
		for _, w := range cr.NameStopWords {
			if v == w {
				return false
			}
		}
		return !strings.ContainsAny(v, cr.NameStopChars)
	}
}
