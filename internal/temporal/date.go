package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/hyperifyio/hcaudit/internal/match"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

// Date is a calendar date. Month-only mentions carry Day 1.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// FromTime truncates t to its calendar date.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) }

// YearMonth formats the date as YYYY年M月.
func (d Date) YearMonth() string { return strconv.Itoa(d.Year) + "年" + strconv.Itoa(d.Month) + "月" }

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	for _, p := range [][2]int{{d.Year, o.Year}, {d.Month, o.Month}, {d.Day, o.Day}} {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}

func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

func (d Date) valid(years rules.TemporalRules) bool {
	if d.Year < years.MinYear || d.Year > years.MaxYear || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return false
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).Day() == d.Day
}

var (
	dateNoiseRe = regexp.MustCompile(`[^\d年月日./\-\s]`)

	// Tried in order; the first pattern yielding a valid date wins. The
	// last one is month-day-year.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})[年.-](\d{1,2})[月.-](\d{1,2})`),
		regexp.MustCompile(`(\d{4})[/.-](\d{1,2})[/.-](\d{1,2})`),
		regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月`),
		regexp.MustCompile(`(\d{1,2})[月.-](\d{1,2})[日，]?\s*(\d{4})`),
	}
)

// ParseDate reads the first date in text. Full-width digits are folded and
// everything but digits and date punctuation is dropped before matching.
// Years outside the configured range are rejected.
func ParseDate(text string, years rules.TemporalRules) (Date, bool) {
	s := dateNoiseRe.ReplaceAllString(match.Normalize(text), "")
	for _, re := range datePatterns {
		sm := re.FindStringSubmatch(s)
		if sm == nil {
			continue
		}
		n := make([]int, 0, 3)
		for _, g := range sm[1:] {
			v, _ := strconv.Atoi(g)
			n = append(n, v)
		}
		var d Date
		switch {
		case len(n) == 2:
			d = Date{Year: n[0], Month: n[1], Day: 1}
		case len(sm[1]) == 4:
			d = Date{Year: n[0], Month: n[1], Day: n[2]}
		default:
			d = Date{Year: n[2], Month: n[0], Day: n[1]}
		}
		if d.valid(years) {
			return d, true
		}
	}
	return Date{}, false
}
