package fields

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

const (
	RuleRiskNumeric = "fields.risk.numeric"
	RuleRiskLevel   = "fields.risk.level"
)

// RiskValue is one labelled numeric capture. Numeric is false when the label
// was followed by something other than a number.
type RiskValue struct {
	Value   float64 `json:"value"`
	Numeric bool    `json:"numeric"`
	Raw     string  `json:"raw"`
	Context string  `json:"context"`
}

type RiskLevel struct {
	Level   string `json:"level"`
	Raw     string `json:"raw"`
	Context string `json:"context"`
}

// RiskData holds the labelled risk-assessment values in text order.
type RiskData struct {
	Possibility []RiskValue `json:"possibility"`
	Consequence []RiskValue `json:"consequence"`
	RiskValue   []RiskValue `json:"risk_value"`
	Levels      []RiskLevel `json:"levels"`
}

// Numerics reports whether any of the three numeric fields was captured.
func (d RiskData) Numerics() bool {
	return len(d.Possibility)+len(d.Consequence)+len(d.RiskValue) > 0
}

type riskField struct {
	name    string
	numeric *regexp.Regexp
	word    *regexp.Regexp
	pick    func(*RiskData) *[]RiskValue
}

// Non-numeric captures need an explicit colon so that headers such as
// "失效可能性  失效后果值" are not read as values.
var riskFields = []riskField{
	{
		name:    "possibility",
		numeric: regexp.MustCompile(`(?:失效)?可能性[：:\s]*([0-9]*\.?[0-9]+)`),
		word:    regexp.MustCompile(`(?:失效)?可能性[：:]\s*([^\s0-9.，,。；;|：:]+)`),
		pick:    func(d *RiskData) *[]RiskValue { return &d.Possibility },
	},
	{
		name:    "consequence",
		numeric: regexp.MustCompile(`(?:失效)?后果值[：:\s]*([0-9]*\.?[0-9]+)`),
		word:    regexp.MustCompile(`(?:失效)?后果值[：:]\s*([^\s0-9.，,。；;|：:]+)`),
		pick:    func(d *RiskData) *[]RiskValue { return &d.Consequence },
	},
	{
		name:    "risk_value",
		numeric: regexp.MustCompile(`风险值[：:\s]*([0-9]*\.?[0-9]+)`),
		word:    regexp.MustCompile(`风险值[：:]\s*([^\s0-9.，,。；;|：:]+)`),
		pick:    func(d *RiskData) *[]RiskValue { return &d.RiskValue },
	},
}

var riskLevelRe = regexp.MustCompile(`风险等级[：:\s]*([低中较高]+)`)

type located struct {
	at int
	v  RiskValue
}

// ExtractRisk captures the labelled possibility, consequence and risk values
// and the risk levels from text with whitespace runs collapsed.
func ExtractRisk(text string) RiskData {
	clean := spaceRunRe.ReplaceAllString(text, " ")
	var d RiskData
	for _, f := range riskFields {
		var found []located
		for _, loc := range f.numeric.FindAllStringSubmatchIndex(clean, -1) {
			v, err := strconv.ParseFloat(clean[loc[2]:loc[3]], 64)
			if err != nil {
				continue
			}
			found = append(found, located{at: loc[0], v: RiskValue{
				Value: v, Numeric: true, Raw: clean[loc[0]:loc[1]], Context: around(clean, loc[0], loc[1]),
			}})
		}
		for _, loc := range f.word.FindAllStringSubmatchIndex(clean, -1) {
			found = append(found, located{at: loc[0], v: RiskValue{
				Raw: clean[loc[0]:loc[1]], Context: around(clean, loc[0], loc[1]),
			}})
		}
		sort.SliceStable(found, func(i, j int) bool { return found[i].at < found[j].at })
		dst := f.pick(&d)
		for _, l := range found {
			*dst = append(*dst, l.v)
		}
	}
	for _, loc := range riskLevelRe.FindAllStringSubmatchIndex(clean, -1) {
		d.Levels = append(d.Levels, RiskLevel{
			Level:   strings.TrimSpace(clean[loc[2]:loc[3]]),
			Raw:     clean[loc[0]:loc[1]],
			Context: around(clean, loc[0], loc[1]),
		})
	}
	return d
}

// ValidateRisk checks that each captured numeric field holds numbers and
// that every level belongs to the allowed set. A wholly absent group is an
// informational InsufficientData finding.
func ValidateRisk(d RiskData, r *rules.Rules) []finding.Finding {
	var out []finding.Finding
	if !d.Numerics() {
		out = append(out, absent(RuleRiskNumeric, "缺少风险评价数值数据"))
	} else {
		for _, f := range riskFields {
			vals := *f.pick(&d)
			if len(vals) == 0 {
				continue
			}
			if bad := nonNumeric(vals); len(bad) > 0 {
				out = append(out, finding.Conflicting(RuleRiskNumeric, f.name+"字段包含非数值："+pyList(bad)))
				continue
			}
			out = append(out, finding.Satisfy(RuleRiskNumeric, f.name+"："+strconv.Itoa(len(vals))+" 个数值"))
		}
	}

	if len(d.Levels) == 0 {
		return append(out, absent(RuleRiskLevel, "缺少风险等级数据"))
	}
	for _, l := range d.Levels {
		if allowed(l.Level, r.Fields.RiskLevels) {
			out = append(out, finding.Satisfy(RuleRiskLevel, "风险等级："+l.Level))
		} else {
			out = append(out, finding.Conflicting(RuleRiskLevel, "风险等级不符合标准："+l.Level))
		}
	}
	return out
}

func nonNumeric(vals []RiskValue) []string {
	var bad []string
	for _, v := range vals {
		if !v.Numeric {
			bad = append(bad, v.Raw)
		}
	}
	return bad
}

func allowed(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// pyList renders strings as a bracketed, quoted list: ['a', 'b'].
func pyList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, s := range items {
		quoted = append(quoted, "'"+s+"'")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
