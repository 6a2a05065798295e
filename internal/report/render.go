package report

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
)

// RenderText writes the human-readable report: the verdict with its
// reasons, then every section's lines.
func RenderText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	line := func(s string) {
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	line("文档：" + r.Document)
	line("数据逻辑评分：" + strconv.Itoa(r.Score))
	if r.Verdict.Clean {
		line("审核结论：无问题")
	} else {
		line("审核结论：存在问题（" + strconv.Itoa(len(r.Verdict.Reasons)) + " 项）")
		for _, reason := range r.Verdict.Reasons {
			line("- " + reason)
		}
	}
	for _, s := range r.Sections {
		if len(s.Lines) == 0 {
			continue
		}
		line("")
		line("==== " + s.Name + " ====")
		for _, l := range s.Lines {
			line(l)
		}
	}
	return bw.Flush()
}

// RenderJSON writes the report as indented JSON without HTML escaping.
func RenderJSON(w io.Writer, r *Report) error {
	return encodeJSON(w, r)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
