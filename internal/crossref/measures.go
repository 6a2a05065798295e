package crossref

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

var (
	measureTableRe = regexp.MustCompile(`风险评价结果|风险评价|计划/控制措施|已采取的控制措施|控制措施`)
	riskResultRe   = regexp.MustCompile(`风险评价结果|风险评价`)
	measureCellRe  = regexp.MustCompile(`已采取的控制措施|计划/控制措施|控制措施|人防措施`)
	measureStopRe  = regexp.MustCompile(`^\s*(?:2[）.、]?|拟采取|计划/控制措施|控制措施)`)
	measureHeadRe  = regexp.MustCompile(`人防措施[：:\s]*`)
	measureLineRe  = regexp.MustCompile(`已采取的控制措施|人防措施|专职|巡护`)
	fallbackCellRe = regexp.MustCompile(`已采取的控制措施|人防措施|专职|巡护|控制措施`)
	spaceRunRe     = regexp.MustCompile(`\s+`)
	hanRe          = regexp.MustCompile(`[\x{4e00}-\x{9fa5}·]`)
)

var brackets = strings.NewReplacer("(", "（", ")", "）")

// ExtractControlMeasures collects the personnel-protection passages from the
// control-measures cells of risk tables. A passage starts after the
// 人防措施 label and runs until the next numbered item, a 拟采取 or
// 控制措施 line, or a blank line. Cells without such a passage contribute
// their keyword lines when they are long enough to be meaningful.
func ExtractControlMeasures(m *document.Model) []string {
	var found []string
	grids := m.Grids()
	for _, g := range grids {
		if !measureTableRe.MatchString(g.Text()) {
			continue
		}
		eachCell(g, func(text string) {
			s := brackets.Replace(text)
			if !measureCellRe.MatchString(s) {
				return
			}
			if passage := cutMeasure(s); utf8.RuneCountInString(passage) > 5 {
				found = append(found, passage)
				return
			}
			if utf8.RuneCountInString(s) <= 50 || !strings.Contains(s, "已采取的控制措施") && !strings.Contains(s, "人防措施") {
				return
			}
			var keep []string
			for _, line := range strings.Split(s, "\n") {
				if measureLineRe.MatchString(line) {
					keep = append(keep, line)
				}
			}
			if joined := strings.TrimSpace(strings.Join(keep, "\n")); utf8.RuneCountInString(joined) > 20 {
				found = append(found, joined)
			}
		})
	}
	if len(found) == 0 {
		for _, g := range grids {
			if !riskResultRe.MatchString(g.Text()) {
				continue
			}
			eachCell(g, func(text string) {
				s := brackets.Replace(text)
				if utf8.RuneCountInString(s) > 30 && fallbackCellRe.MatchString(s) {
					found = append(found, s)
				}
			})
		}
	}

	var out []string
	seen := map[string]struct{}{}
	for _, f := range found {
		n := strings.TrimSpace(spaceRunRe.ReplaceAllString(f, " "))
		if utf8.RuneCountInString(n) <= 5 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func eachCell(g document.Grid, fn func(text string)) {
	for r := 0; r < g.Rows(); r++ {
		for _, c := range g.Row(r) {
			fn(c.Text)
		}
	}
}

func cutMeasure(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		loc := measureHeadRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		parts := []string{line[loc[1]:]}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" || measureStopRe.MatchString(next) {
				break
			}
			parts = append(parts, next)
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return ""
}

// PickMeasureLeaders extracts district leader names from control-measure
// passages. The strict pattern accepts two to four Han characters followed by
// a non-Han boundary. Otherwise the loose capture is trimmed: a third or
// second character that is a common function word ends the name.
func PickMeasureLeaders(measures []string, r *rules.Rules) []string {
	p := r.CrossRefPatterns()
	verbs := r.CrossRef.NameVerbs
	var names []string
	seen := map[string]struct{}{}
	add := func(n string) bool {
		if _, ok := seen[n]; ok {
			return false
		}
		seen[n] = struct{}{}
		names = append(names, n)
		return true
	}
	for _, raw := range measures {
		s := brackets.Replace(raw)
		matched := false
		for _, sm := range p.MeasureLeader.FindAllStringSubmatch(s, -1) {
			n := strings.TrimSpace(sm[1])
			if k := utf8.RuneCountInString(n); k >= 2 && k <= 4 && add(n) {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, sm := range p.MeasureLeaderLoose.FindAllStringSubmatch(s, -1) {
			if n, ok := trimLooseName(hanRe.FindAllString(sm[1], -1), verbs); ok && add(n) {
				break
			}
		}
	}
	return names
}

// trimLooseName shortens a run of Han characters to a plausible name: three
// characters unless the third is a function word, then two unless the
// second is, then up to four.
func trimLooseName(chars []string, verbs string) (string, bool) {
	if len(chars) < 2 {
		return "", false
	}
	isVerb := func(c string) bool { return strings.Contains(verbs, c) }
	if len(chars) >= 3 && !isVerb(chars[2]) {
		return strings.Join(chars[:3], ""), true
	}
	if !isVerb(chars[1]) {
		return strings.Join(chars[:2], ""), true
	}
	if len(chars) >= 4 {
		if isVerb(chars[3]) {
			return strings.Join(chars[:3], ""), true
		}
		return strings.Join(chars[:4], ""), true
	}
	return "", false
}
