// Package rules carries every tunable table the validators read: alias sets,
// requirement lists, window sizes, extraction patterns, ranges and enums.
//
// A *Rules value is immutable once returned by Default or Load; validators
// only read from it, so one value can be shared across goroutines.
package rules

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/zeebo/blake3"
)

// ErrInvalidRules is wrapped by every validation failure.
var ErrInvalidRules = errors.New("invalid rules")

type Rules struct {
	Category  CategoryRules  `yaml:"category" json:"category"`
	Evidence  EvidenceRules  `yaml:"evidence" json:"evidence"`
	CrossRef  CrossRefRules  `yaml:"crossref" json:"crossref"`
	Fields    FieldRules     `yaml:"fields" json:"fields"`
	Temporal  TemporalRules  `yaml:"temporal" json:"temporal"`
	BasicInfo []FieldSpec    `yaml:"basicInfo" json:"basicInfo"`

	compiled compiled
}

type CategoryRules struct {
	Label        string        `yaml:"label" json:"label"`
	Supported    []string      `yaml:"supported" json:"supported"`
	Replacements []Replacement `yaml:"replacements" json:"replacements"`
	Requirements []Requirement `yaml:"requirements" json:"requirements"`
	DownRows     int           `yaml:"downRows" json:"downRows"`
}

// Replacement is a literal synonym substitution applied during category
// normalization.
type Replacement struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Requirement lists the evidence labels a category must show.
type Requirement struct {
	Category string   `yaml:"category" json:"category"`
	Evidence []string `yaml:"evidence" json:"evidence"`
}

type EvidenceRules struct {
	Window   int           `yaml:"window" json:"window"`
	Barrier  string        `yaml:"barrier" json:"barrier"`
	Aliases  []AliasSpec   `yaml:"aliases" json:"aliases"`
	Sections []SectionRule `yaml:"sections" json:"sections"`
}

// AliasSpec is a canonical label and its accepted synonyms in match order.
type AliasSpec struct {
	Label    string   `yaml:"label" json:"label"`
	Synonyms []string `yaml:"synonyms" json:"synonyms"`
}

// SectionRule switches a label to the section-scoped evidence rule: any media
// strictly between the Start heading and the next End heading counts.
type SectionRule struct {
	Label string `yaml:"label" json:"label"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

type CrossRefRules struct {
	BasicInfoHeading   string   `yaml:"basicInfoHeading" json:"basicInfoHeading"`
	RiskHeading        string   `yaml:"riskHeading" json:"riskHeading"`
	PreventionHeading  string   `yaml:"preventionHeading" json:"preventionHeading"`
	RiskTable          string   `yaml:"riskTable" json:"riskTable"`
	PreventionTable    string   `yaml:"preventionTable" json:"preventionTable"`
	Leader             string   `yaml:"leader" json:"leader"`
	MeasureLeader      string   `yaml:"measureLeader" json:"measureLeader"`
	MeasureLeaderLoose string   `yaml:"measureLeaderLoose" json:"measureLeaderLoose"`
	Location           string   `yaml:"location" json:"location"`
	CoverID            string   `yaml:"coverId" json:"coverId"`
	TableID            string   `yaml:"tableId" json:"tableId"`
	LegacyID           string   `yaml:"legacyId" json:"legacyId"`
	NameStopWords      []string `yaml:"nameStopWords" json:"nameStopWords"`
	NameStopChars      string   `yaml:"nameStopChars" json:"nameStopChars"`
	NameVerbs          string   `yaml:"nameVerbs" json:"nameVerbs"`
}

type FieldRules struct {
	Potential   PotentialRules `yaml:"potential" json:"potential"`
	RiskLevels  []string       `yaml:"riskLevels" json:"riskLevels"`
	GradeLevels []string       `yaml:"gradeLevels" json:"gradeLevels"`
	MaxScore    int            `yaml:"maxScore" json:"maxScore"`
}

// PotentialRules bounds pipe-to-soil potential readings. Values outside
// [BandMin, BandMax] are discarded as mis-parses before the strict
// [Min, Max] target check.
type PotentialRules struct {
	Min        float64  `yaml:"min" json:"min"`
	Max        float64  `yaml:"max" json:"max"`
	BandMin    float64  `yaml:"bandMin" json:"bandMin"`
	BandMax    float64  `yaml:"bandMax" json:"bandMax"`
	TableTitle string   `yaml:"tableTitle" json:"tableTitle"`
	HeaderKeys []string `yaml:"headerKeys" json:"headerKeys"`
	ColumnKeys []string `yaml:"columnKeys" json:"columnKeys"`
}

type TemporalRules struct {
	MinYear int `yaml:"minYear" json:"minYear"`
	MaxYear int `yaml:"maxYear" json:"maxYear"`
}

// FieldSpec drives the generic label/value lookup for one basic-info field.
type FieldSpec struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Exclude  []string `yaml:"exclude" json:"exclude"`
}

type compiled struct {
	barrier            *regexp.Regexp
	sections           map[string][2]*regexp.Regexp
	basicInfoHeading   *regexp.Regexp
	riskHeading        *regexp.Regexp
	preventionHeading  *regexp.Regexp
	riskTable          *regexp.Regexp
	preventionTable    *regexp.Regexp
	leader             *regexp.Regexp
	measureLeader      *regexp.Regexp
	measureLeaderLoose *regexp.Regexp
	location           *regexp.Regexp
	coverID            *regexp.Regexp
	tableID            *regexp.Regexp
	legacyID           *regexp.Regexp
	aliases            map[string][]string
}

// Validate checks semantic constraints and compiles every pattern. Default and
// Load call it; callers constructing Rules by hand must call it before use.
func (r *Rules) Validate() error {
	if r.Evidence.Window < 1 {
		return fmt.Errorf("%w: evidence.window must be >= 1, got %d", ErrInvalidRules, r.Evidence.Window)
	}
	if r.Category.Label == "" {
		return fmt.Errorf("%w: category.label is required", ErrInvalidRules)
	}
	if r.Category.DownRows < 1 {
		return fmt.Errorf("%w: category.downRows must be >= 1", ErrInvalidRules)
	}
	p := r.Fields.Potential
	if p.Min > p.Max || p.BandMin > p.BandMax {
		return fmt.Errorf("%w: potential ranges must have min <= max", ErrInvalidRules)
	}
	if p.Min < p.BandMin || p.Max > p.BandMax {
		return fmt.Errorf("%w: potential target range must lie inside the plausibility band", ErrInvalidRules)
	}
	if r.Temporal.MinYear > r.Temporal.MaxYear {
		return fmt.Errorf("%w: temporal.minYear must be <= maxYear", ErrInvalidRules)
	}
	if len(r.Fields.RiskLevels) == 0 {
		return fmt.Errorf("%w: fields.riskLevels must not be empty", ErrInvalidRules)
	}

	var c compiled
	var err error
	compile := func(name, expr string) *regexp.Regexp {
		if err != nil {
			return nil
		}
		re, cerr := regexp.Compile(expr)
		if cerr != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidRules, name, cerr)
		}
		return re
	}
	c.barrier = compile("evidence.barrier", r.Evidence.Barrier)
	cr := r.CrossRef
	c.basicInfoHeading = compile("crossref.basicInfoHeading", cr.BasicInfoHeading)
	c.riskHeading = compile("crossref.riskHeading", cr.RiskHeading)
	c.preventionHeading = compile("crossref.preventionHeading", cr.PreventionHeading)
	c.riskTable = compile("crossref.riskTable", cr.RiskTable)
	c.preventionTable = compile("crossref.preventionTable", cr.PreventionTable)
	c.leader = compile("crossref.leader", cr.Leader)
	c.measureLeader = compile("crossref.measureLeader", cr.MeasureLeader)
	c.measureLeaderLoose = compile("crossref.measureLeaderLoose", cr.MeasureLeaderLoose)
	c.location = compile("crossref.location", cr.Location)
	c.coverID = compile("crossref.coverId", cr.CoverID)
	c.tableID = compile("crossref.tableId", cr.TableID)
	c.legacyID = compile("crossref.legacyId", cr.LegacyID)
	c.sections = make(map[string][2]*regexp.Regexp, len(r.Evidence.Sections))
	for _, s := range r.Evidence.Sections {
		start := compile("evidence.sections."+s.Label+".start", s.Start)
		end := compile("evidence.sections."+s.Label+".end", s.End)
		c.sections[s.Label] = [2]*regexp.Regexp{start, end}
	}
	if err != nil {
		return err
	}
	if c.leader.NumSubexp() < 2 || c.location.NumSubexp() < 2 || c.coverID.NumSubexp() < 2 {
		return fmt.Errorf("%w: leader, location and coverId need a label group and a value group", ErrInvalidRules)
	}
	if c.tableID.NumSubexp() < 1 || c.measureLeader.NumSubexp() < 1 || c.measureLeaderLoose.NumSubexp() < 1 || c.legacyID.NumSubexp() < 1 {
		return fmt.Errorf("%w: tableId, legacyId and measure leader patterns need a value group", ErrInvalidRules)
	}

	c.aliases = make(map[string][]string, len(r.Evidence.Aliases))
	for _, a := range r.Evidence.Aliases {
		if a.Label == "" {
			return fmt.Errorf("%w: alias set without label", ErrInvalidRules)
		}
		c.aliases[a.Label] = dedup(append([]string{a.Label}, a.Synonyms...))
	}
	for _, req := range r.Category.Requirements {
		for _, label := range req.Evidence {
			if _, ok := c.aliases[label]; !ok {
				return fmt.Errorf("%w: required evidence %q has no alias set", ErrInvalidRules, label)
			}
		}
	}
	r.compiled = c
	return nil
}

// Aliases returns the canonical label followed by its synonyms, deduplicated.
// Unknown labels yield just the label itself.
func (r *Rules) Aliases(label string) []string {
	if a, ok := r.compiled.aliases[label]; ok {
		out := make([]string, len(a))
		copy(out, a)
		return out
	}
	return []string{label}
}

// Barrier returns the compiled numbered-item pattern.
func (r *Rules) Barrier() *regexp.Regexp { return r.compiled.barrier }

// Section returns the section-scoped rule for label, if one is configured.
func (r *Rules) Section(label string) (start, end *regexp.Regexp, ok bool) {
	p, ok := r.compiled.sections[label]
	if !ok {
		return nil, nil, false
	}
	return p[0], p[1], true
}

// Requirement returns the evidence list for a category.
func (r *Rules) Requirement(category string) []string {
	for _, req := range r.Category.Requirements {
		if req.Category == category {
			return append([]string(nil), req.Evidence...)
		}
	}
	return nil
}

// Supported reports whether category is one that requires evidence.
func (r *Rules) Supported(category string) bool {
	for _, s := range r.Category.Supported {
		if s == category {
			return true
		}
	}
	return false
}

// Patterns groups the compiled cross-reference expressions.
type Patterns struct {
	BasicInfoHeading, RiskHeading, PreventionHeading *regexp.Regexp
	RiskTable, PreventionTable                       *regexp.Regexp
	Leader, MeasureLeader, MeasureLeaderLoose        *regexp.Regexp
	Location                                         *regexp.Regexp
	CoverID, TableID, LegacyID                       *regexp.Regexp
}

func (r *Rules) CrossRefPatterns() Patterns {
	c := r.compiled
	return Patterns{
		BasicInfoHeading:   c.basicInfoHeading,
		RiskHeading:        c.riskHeading,
		PreventionHeading:  c.preventionHeading,
		RiskTable:          c.riskTable,
		PreventionTable:    c.preventionTable,
		Leader:             c.leader,
		MeasureLeader:      c.measureLeader,
		MeasureLeaderLoose: c.measureLeaderLoose,
		Location:           c.location,
		CoverID:            c.coverID,
		TableID:            c.tableID,
		LegacyID:           c.legacyID,
	}
}

// Digest is a stable blake3 fingerprint of the rule tables, used to key
// cached results.
func (r *Rules) Digest() string {
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
