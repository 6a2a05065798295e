package category

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/hcaudit/internal/document"
)

// Policy selects how the three lookup tiers compete.
type Policy int

const (
	// PreferLonger consults the same cell first; otherwise it concatenates
	// every distinct cell to the right and, only when that is at most one
	// character, the next rows down the same column. The longer of the two
	// wins. Used for the category attribute, whose value is often wrapped or
	// split across merged cells.
	PreferLonger Policy = iota
	// PreferFirst returns the first non-empty tier: same cell, then the first
	// acceptable cell to the right, then the first acceptable cell below.
	// Cells mentioning an excluded keyword are skipped entirely.
	PreferFirst
)

// Tier records which lookup step produced a value.
type Tier string

const (
	TierSameCell Tier = "same_cell"
	TierRight    Tier = "row_right"
	TierDown     Tier = "column_down"
)

// LookupOptions tunes Lookup. DownRows defaults to 3.
type LookupOptions struct {
	Prefer   Policy
	DownRows int
	Exclude  []string
}

// Value is a raw label value and where it was found.
type Value struct {
	Text  string
	Block int
	Tier  Tier
}

// Lookup scans every table cell, in table then row-major order, for label and
// returns the value associated with the first cell that yields one.
func Lookup(grids []document.Grid, label string, opt LookupOptions) (Value, bool) {
	key := squash(label)
	if key == "" {
		return Value{}, false
	}
	if opt.DownRows <= 0 {
		opt.DownRows = 3
	}
	var exclude []string
	for _, e := range opt.Exclude {
		if e = squash(e); e != "" && e != key {
			exclude = append(exclude, e)
		}
	}
	l := lookup{label: label, key: key, exclude: exclude, down: opt.DownRows}
	if opt.Prefer == PreferLonger {
		l.sameCell = []*regexp.Regexp{regexp.MustCompile(regexp.QuoteMeta(label) + `[:：]?\s*(.+)`)}
	} else {
		l.sameCell = []*regexp.Regexp{
			regexp.MustCompile(regexp.QuoteMeta(label) + `[:：]\s*(.+)`),
			regexp.MustCompile(regexp.QuoteMeta(label) + `\s+[:：]\s*(.+)`),
		}
	}
	for _, g := range grids {
		for r := 0; r < g.Rows(); r++ {
			row := g.Row(r)
			for c, cell := range row {
				if !strings.Contains(squash(cell.Text), key) {
					continue
				}
				var v Value
				var ok bool
				if opt.Prefer == PreferLonger {
					v, ok = l.longer(g, r, c)
				} else {
					if l.excluded(cell.Text) {
						continue
					}
					v, ok = l.first(g, r, c)
				}
				if ok {
					return v, true
				}
			}
		}
	}
	return Value{}, false
}

type lookup struct {
	label    string
	key      string
	exclude  []string
	down     int
	sameCell []*regexp.Regexp
}

func (l lookup) fromSameCell(cell document.GridCell, rejectLabel bool) (Value, bool) {
	for _, re := range l.sameCell {
		m := re.FindStringSubmatch(cell.Text)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" || (rejectLabel && v == l.label) {
			continue
		}
		return Value{Text: v, Block: cell.Block, Tier: TierSameCell}, true
	}
	return Value{}, false
}

func (l lookup) longer(g document.Grid, r, c int) (Value, bool) {
	if v, ok := l.fromSameCell(g.Row(r)[c], false); ok {
		return v, true
	}
	row := g.Row(r)
	right := joinDistinct(row[c+1:])
	var down Value
	if utf8.RuneCountInString(right.Text) <= 1 {
		var cells []document.GridCell
		for k := 1; k <= l.down; k++ {
			if cell, ok := g.Cell(r+k, c); ok {
				cells = append(cells, cell)
			}
		}
		down = joinDistinct(cells)
		down.Tier = TierDown
	}
	right.Tier = TierRight
	v := down
	if utf8.RuneCountInString(right.Text) > utf8.RuneCountInString(down.Text) {
		v = right
	}
	return v, v.Text != ""
}

func (l lookup) first(g document.Grid, r, c int) (Value, bool) {
	if v, ok := l.fromSameCell(g.Row(r)[c], true); ok {
		return v, true
	}
	row := g.Row(r)
	for _, cell := range row[c+1:] {
		if l.acceptable(cell.Text) {
			return Value{Text: strings.TrimSpace(cell.Text), Block: cell.Block, Tier: TierRight}, true
		}
	}
	for k := 1; k <= l.down; k++ {
		cell, ok := g.Cell(r+k, c)
		if ok && l.acceptable(cell.Text) {
			return Value{Text: strings.TrimSpace(cell.Text), Block: cell.Block, Tier: TierDown}, true
		}
	}
	return Value{}, false
}

func (l lookup) acceptable(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || text == l.label || strings.Contains(l.key, text) {
		return false
	}
	return !l.excluded(text)
}

func (l lookup) excluded(text string) bool {
	s := squash(text)
	for _, e := range l.exclude {
		if strings.Contains(s, e) {
			return true
		}
	}
	return false
}

// joinDistinct joins the non-empty, distinct cell texts with "、". Block is
// the first contributing cell.
func joinDistinct(cells []document.GridCell) Value {
	v := Value{Block: -1}
	seen := make(map[string]struct{}, len(cells))
	var parts []string
	for _, cell := range cells {
		t := strings.TrimSpace(cell.Text)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if v.Block < 0 {
			v.Block = cell.Block
		}
		parts = append(parts, t)
	}
	v.Text = strings.TrimSpace(strings.Join(parts, "、"))
	return v
}

func squash(s string) string {
	return strings.NewReplacer(" ", "", "　", "").Replace(strings.TrimSpace(s))
}
