package fields

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

const RulePotential = "fields.potential"

// contextRadius is the number of characters kept on each side of a text
// match.
const contextRadius = 80

var (
	numberRe    = regexp.MustCompile(`[+\-]?\d+(?:\.\d+)?`)
	stakeRe     = regexp.MustCompile(`[Kk]\d+(?:\+\d{3}(?:\.\d+)?)?`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
	potentialRe = []*regexp.Regexp{
		regexp.MustCompile(`(?:电位|IR降|K\d+)[^0-9\-+]{0,10}?([+\-]?\d+(?:\.\d+)?)\s*[Vv伏]?`),
		regexp.MustCompile(`(?:电位测试结果|近\d+月)[：:\s]*([+\-]?\d+(?:\.\d+)?)`),
	}
)

// Sample is one potential reading with the text it was read from.
type Sample struct {
	Value   float64 `json:"value"`
	Context string  `json:"context"`
}

// ExtractPotentials reads potentials from the titled potential table and
// falls back to labelled readings in the running text when the table yields
// nothing. Only values inside the plausibility band are kept.
func ExtractPotentials(m *document.Model, r *rules.Rules) []Sample {
	p := r.Fields.Potential
	if s := fromTable(m, p); len(s) > 0 {
		return s
	}
	return FromText(TextOf(m), p)
}

func fromTable(m *document.Model, p rules.PotentialRules) []Sample {
	titled := false
	for _, b := range m.Paragraphs() {
		if strings.Contains(b.Text, p.TableTitle) {
			titled = true
			break
		}
	}
	if !titled {
		return nil
	}
	g, ok := potentialTable(m.Grids(), p.HeaderKeys)
	if !ok {
		return nil
	}

	header := rowTexts(g, 0)
	var cols []int
	for i, h := range header {
		if containsAny(h, p.ColumnKeys) {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		for i := 1; i < len(header); i++ {
			cols = append(cols, i)
		}
	}

	inBand := func(v float64) bool { return v >= p.BandMin && v <= p.BandMax }
	var out []Sample
	for r := 1; r < g.Rows(); r++ {
		row := rowTexts(g, r)
		if strings.Join(row, "") == "" {
			continue
		}
		var seen []float64
		for _, c := range cols {
			if c >= len(row) || row[c] == "" {
				continue
			}
			for _, v := range numbers(row[c]) {
				if !inBand(v) || containsFloat(seen, v) {
					continue
				}
				seen = append(seen, v)
				col := ""
				if c < len(header) {
					col = header[c]
				}
				out = append(out, Sample{
					Value:   v,
					Context: "表格：" + p.TableTitle + " | 列：" + col + " | 行" + strconv.Itoa(r) + "：" + strings.Join(row, " | "),
				})
			}
		}
		if len(seen) > 0 {
			continue
		}
		// Rows such as "K79 +0.989 +0.994" carry readings outside the
		// potential columns. Stake numbers are not readings.
		text := strings.Join(row, " ")
		if !strings.ContainsAny(text, "K+-") {
			continue
		}
		for _, v := range numbers(stakeRe.ReplaceAllString(text, " ")) {
			if inBand(v) {
				out = append(out, Sample{Value: v, Context: "表格：" + p.TableTitle + " | 行" + strconv.Itoa(r) + "：" + text})
			}
		}
	}
	return out
}

// potentialTable returns the first table whose header row names a potential
// column.
func potentialTable(grids []document.Grid, keys []string) (document.Grid, bool) {
	for _, g := range grids {
		if g.Rows() == 0 {
			continue
		}
		if containsAny(strings.Join(rowTexts(g, 0), "|"), keys) {
			return g, true
		}
	}
	return document.Grid{}, false
}

// FromText applies the labelled-reading patterns to text with whitespace
// runs collapsed. Each sample keeps up to contextRadius characters around
// its match.
func FromText(text string, p rules.PotentialRules) []Sample {
	clean := spaceRunRe.ReplaceAllString(text, " ")
	var out []Sample
	for _, re := range potentialRe {
		for _, loc := range re.FindAllStringSubmatchIndex(clean, -1) {
			v, err := strconv.ParseFloat(clean[loc[2]:loc[3]], 64)
			if err != nil || v < p.BandMin || v > p.BandMax {
				continue
			}
			out = append(out, Sample{Value: v, Context: strings.TrimSpace(around(clean, loc[0], loc[1]))})
		}
	}
	return out
}

// ValidatePotentials reports one finding per reading: Satisfied inside the
// target range, Conflict outside. No readings at all is an informational
// InsufficientData finding; Score carries the penalty.
func ValidatePotentials(samples []Sample, r *rules.Rules) []finding.Finding {
	p := r.Fields.Potential
	if len(samples) == 0 {
		return []finding.Finding{absent(RulePotential, "缺少电位测试结果数据")}
	}
	rng := formatFloat(p.Max) + "V~" + formatFloat(p.Min) + "V"
	out := make([]finding.Finding, 0, len(samples))
	for _, s := range samples {
		v := formatFloat(s.Value) + "V"
		if s.Value >= p.Min && s.Value <= p.Max {
			out = append(out, finding.Satisfy(RulePotential, v+" 在"+rng+"范围内"))
			continue
		}
		out = append(out, finding.Conflicting(RulePotential, v+" 超出"+rng+"（"+s.Context+"）"))
	}
	return out
}

// TextOf joins the non-empty paragraphs, then every table row with its
// non-empty cells separated by two spaces, one per line.
func TextOf(m *document.Model) string {
	var lines []string
	for _, b := range m.Paragraphs() {
		if b.Text != "" {
			lines = append(lines, b.Text)
		}
	}
	for _, g := range m.Grids() {
		for r := 0; r < g.Rows(); r++ {
			var cells []string
			for _, c := range rowTexts(g, r) {
				if c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, "  "))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func rowTexts(g document.Grid, r int) []string {
	row := g.Row(r)
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, strings.ReplaceAll(strings.TrimSpace(c.Text), "\n", " "))
	}
	return out
}

func numbers(s string) []float64 {
	var out []float64
	for _, tok := range numberRe.FindAllString(s, -1) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// around returns s[start:end] widened by contextRadius runes on each side.
func around(s string, start, end int) string {
	for i := 0; i < contextRadius && start > 0; i++ {
		_, n := utf8.DecodeLastRuneInString(s[:start])
		start -= n
	}
	for i := 0; i < contextRadius && end < len(s); i++ {
		_, n := utf8.DecodeRuneInString(s[end:])
		end += n
	}
	return s[start:end]
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func containsFloat(vs []float64, v float64) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// formatFloat prints v the way report readers expect: shortest form, with a
// trailing ".0" for whole numbers.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
