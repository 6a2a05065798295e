package category

import (
	"strings"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/rules"
)

// NotRecognized is printed for a basic-info field that could not be located.
const NotRecognized = "未识别"

// BasicInfo holds the located basic-info fields in rule order. A nil Field
// means the label was not found.
type BasicInfo struct {
	Fields []BasicField `json:"fields"`
}

type BasicField struct {
	Name  string                  `json:"name"`
	Field *finding.ExtractedField `json:"field,omitempty"`
}

// Value returns the normalized value or "" when the field is absent.
func (f BasicField) Value() string {
	if f.Field == nil {
		return ""
	}
	return f.Field.NormalizedValue
}

// Get returns the field named name.
func (b BasicInfo) Get(name string) (BasicField, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return BasicField{}, false
}

// Lines renders "name：value" per field, NotRecognized for absent ones.
func (b BasicInfo) Lines() []string {
	out := make([]string, 0, len(b.Fields))
	for _, f := range b.Fields {
		v := f.Value()
		if v == "" {
			v = NotRecognized
		}
		out = append(out, f.Name+"："+v)
	}
	return out
}

// ExtractBasicInfo runs the first-tier-wins lookup for every configured
// field. Keywords are tried in order; the first one that yields a value is
// used.
func ExtractBasicInfo(m *document.Model, r *rules.Rules) BasicInfo {
	grids := m.Grids()
	info := BasicInfo{Fields: make([]BasicField, 0, len(r.BasicInfo))}
	for _, field := range r.BasicInfo {
		bf := BasicField{Name: field.Name}
		for _, kw := range field.Keywords {
			v, ok := Lookup(grids, kw, LookupOptions{Prefer: PreferFirst, DownRows: r.Category.DownRows, Exclude: field.Exclude})
			if !ok {
				continue
			}
			bf.Field = &finding.ExtractedField{
				Name:             field.Name,
				RawValue:         v.Text,
				NormalizedValue:  dedupValue(v.Text),
				SourceBlockIndex: v.Block,
			}
			break
		}
		info.Fields = append(info.Fields, bf)
	}
	return info
}

// dedupValue splits on the first separator present, drops repeats and
// rejoins with "、".
func dedupValue(v string) string {
	if v == "" {
		return v
	}
	parts := []string{v}
	for _, sep := range []string{"、", ",", "，", "|", "/"} {
		if strings.Contains(v, sep) {
			parts = strings.Split(v, sep)
			break
		}
	}
	seen := map[string]struct{}{}
	var uniq []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	if len(uniq) == 0 {
		return v
	}
	return strings.Join(uniq, "、")
}
