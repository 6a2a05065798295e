// Package temporal checks the three mandatory report dates: preparation,
// area identification and risk assessment.
package temporal

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

const (
	RuleYear     = "temporal.year"
	RuleOrder    = "temporal.order"
	RuleFuture   = "temporal.future"
	RulePresence = "temporal.presence"
)

// Role is the meaning of a date in the report.
type Role int

const (
	Preparation Role = iota
	Identification
	Assessment
)

var roles = []Role{Preparation, Identification, Assessment}

// Name is the role's display name.
func (r Role) Name() string {
	switch r {
	case Identification:
		return "高后果区识别时间"
	case Assessment:
		return "风险评价时间"
	default:
		return "封面编制时间"
	}
}

func (r Role) short() string {
	switch r {
	case Identification:
		return "识别"
	case Assessment:
		return "评价"
	default:
		return "封面"
	}
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.Name()), nil }

var rolePatterns = map[Role][]*regexp.Regexp{
	Preparation: {
		regexp.MustCompile(`编制时间[：:\s]*([^\n]+)`),
		regexp.MustCompile(`制定时间[：:\s]*([^\n]+)`),
		regexp.MustCompile(`发布时间[：:\s]*([^\n]+)`),
		regexp.MustCompile(`版本时间[：:\s]*([^\n]+)`),
	},
	Identification: {
		regexp.MustCompile(`识别时间[：:\s]*([^\n]*)`),
		regexp.MustCompile(`识别日期[：:\s]*([^\n]*)`),
		regexp.MustCompile(`完成识别.*?(\d{4}年\d{1,2}月)`),
	},
	Assessment: {
		regexp.MustCompile(`风险评价时间[：:\s]*([^\n]*)`),
		regexp.MustCompile(`风险评价日期[：:\s]*([^\n]*)`),
		regexp.MustCompile(`评价时间[：:\s]*([^\n]*)`),
		regexp.MustCompile(`完成评价.*?(\d{4}年\d{1,2}月)`),
	},
}

// Labels split from their value by a line break are rejoined.
var lineFixups = []*regexp.Regexp{
	regexp.MustCompile(`(识别时间)\s*\n\s*(\d{4}年\d{1,2}月)`),
	regexp.MustCompile(`(风险评价时间)\s*\n\s*(\d{4}年\d{1,2}月)`),
	regexp.MustCompile(`(评价时间)\s*\n\s*(\d{4}年\d{1,2}月)`),
}

// Mention is one labelled date found in the text.
type Mention struct {
	Role    Role   `json:"role"`
	Date    Date   `json:"date"`
	Raw     string `json:"raw"`
	Context string `json:"context"`
	Offset  int    `json:"offset"`
}

// Info holds the mentions per role in document order.
type Info struct {
	Mentions map[Role][]Mention `json:"mentions"`
}

// First returns the first mention of role in document order.
func (i Info) First(role Role) (Date, bool) {
	if ms := i.Mentions[role]; len(ms) > 0 {
		return ms[0].Date, true
	}
	return Date{}, false
}

// CanonicalLine renders the three first dates on one line, xx for a missing
// role.
func (i Info) CanonicalLine() string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		v := "xx"
		if d, ok := i.First(r); ok {
			v = d.YearMonth()
		}
		parts = append(parts, r.Name()+"："+v)
	}
	return strings.Join(parts, "，")
}

// TextOf renders the model the way the date patterns expect: non-empty
// paragraphs, then each table row's non-empty cells joined by two spaces,
// one line each.
func TextOf(m *document.Model) string {
	var b strings.Builder
	for _, p := range m.Paragraphs() {
		if p.Text != "" {
			b.WriteString(p.Text)
			b.WriteByte('\n')
		}
	}
	for _, g := range m.Grids() {
		for r := 0; r < g.Rows(); r++ {
			var cells []string
			for _, c := range g.Row(r) {
				if t := strings.TrimSpace(c.Text); t != "" {
					cells = append(cells, t)
				}
			}
			if len(cells) > 0 {
				b.WriteString(strings.Join(cells, "  "))
				b.WriteByte('\n')
			}
		}
	}
	text := b.String()
	for _, re := range lineFixups {
		text = re.ReplaceAllString(text, "${1}：${2}")
	}
	return text
}

// Extract finds every parseable labelled date per role. Mentions are ordered
// by offset; two patterns capturing the same value (评价时间 inside
// 风险评价时间) count once.
func Extract(text string, years rules.TemporalRules) Info {
	info := Info{Mentions: make(map[Role][]Mention, len(roles))}
	for _, role := range roles {
		var found []Mention
		seen := map[int]struct{}{}
		for _, re := range rolePatterns[role] {
			for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
				if _, ok := seen[loc[2]]; ok {
					continue
				}
				raw := strings.TrimSpace(text[loc[2]:loc[3]])
				d, ok := ParseDate(raw, years)
				if !ok {
					continue
				}
				seen[loc[2]] = struct{}{}
				found = append(found, Mention{Role: role, Date: d, Raw: raw, Context: text[loc[0]:loc[1]], Offset: loc[0]})
			}
		}
		sort.SliceStable(found, func(i, j int) bool { return found[i].Offset < found[j].Offset })
		info.Mentions[role] = found
	}
	return info
}

// Result is the outcome of one temporal check.
type Result struct {
	Info     Info              `json:"info"`
	Issues   []string          `json:"issues"`
	Findings []finding.Finding `json:"findings"`
}

// Check evaluates, in order: the three pairwise year comparisons, the
// identification/assessment ordering, future dates and missing roles. Only
// the first mention of each role takes part. Pairs with a missing side are
// informational; the missing role itself is the Conflict.
func Check(info Info, now Date) Result {
	res := Result{Info: info}
	add := func(f finding.Finding) {
		res.Findings = append(res.Findings, f)
		if f.Status == finding.Conflict {
			res.Issues = append(res.Issues, f.Detail)
		}
	}

	pairs := [][2]Role{{Preparation, Identification}, {Preparation, Assessment}, {Identification, Assessment}}
	for _, p := range pairs {
		a, okA := info.First(p[0])
		b, okB := info.First(p[1])
		pair := "（" + p[0].Name() + " vs " + p[1].Name() + "）"
		switch {
		case !okA || !okB:
			f := finding.Insufficient(RuleYear, "年份无法对比"+pair)
			f.Informational = true
			add(f)
		case a.Year != b.Year:
			add(finding.Conflicting(RuleYear, "年份不一致"+pair+"："+
				p[0].short()+"["+strconv.Itoa(a.Year)+"]，"+p[1].short()+"["+strconv.Itoa(b.Year)+"]"))
		default:
			add(finding.Satisfy(RuleYear, "年份一致"+pair+"："+strconv.Itoa(a.Year)))
		}
	}

	ident, okI := info.First(Identification)
	assess, okA := info.First(Assessment)
	switch {
	case !okI || !okA:
		f := finding.Insufficient(RuleOrder, "时间先后无法对比")
		f.Informational = true
		add(f)
	case !assess.After(ident):
		add(finding.Conflicting(RuleOrder, "风险评价时间未晚于高后果区识别时间"))
	default:
		add(finding.Satisfy(RuleOrder, "风险评价时间晚于高后果区识别时间"))
	}

	for _, r := range roles {
		d, ok := info.First(r)
		if !ok {
			continue
		}
		if d.After(now) {
			add(finding.Conflicting(RuleFuture, r.Name()+"("+d.String()+")为未来时间"))
		} else {
			add(finding.Satisfy(RuleFuture, r.Name()+"("+d.String()+")不晚于当前日期"))
		}
	}

	for _, r := range roles {
		if d, ok := info.First(r); ok {
			add(finding.Satisfy(RulePresence, r.Name()+"："+d.YearMonth()))
		} else {
			add(finding.Conflicting(RulePresence, "缺少"+r.Name()))
		}
	}
	return res
}

// Summary renders the canonical line, per-role mentions and the verdict.
func (r Result) Summary() []string {
	lines := []string{"时间逻辑检查：", "", "规范汇总：" + r.Info.CanonicalLine(), "", "时间信息明细："}
	for _, role := range roles {
		ms := r.Info.Mentions[role]
		lines = append(lines, "- "+role.Name()+"（"+strconv.Itoa(len(ms))+" 个）：")
		for i, m := range ms {
			lines = append(lines, "  "+strconv.Itoa(i+1)+". "+m.Context+" -> "+m.Date.String())
		}
	}
	lines = append(lines, "")
	if len(r.Issues) == 0 {
		return append(lines, "结论：无问题")
	}
	lines = append(lines, "结论：存在问题")
	for i, is := range r.Issues {
		lines = append(lines, "- 问题"+strconv.Itoa(i+1)+"："+is)
	}
	return lines
}
