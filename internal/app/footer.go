package app

import (
	"strconv"
	"strings"
)

// reproFooter returns the trailing lines appended to text reports. They
// record what produced the verdict: tool version, rules digest and whether
// the result came from the cache.
func reproFooter(rulesDigest string, cached bool) string {
	short := rulesDigest
	if len(short) > 12 {
		short = short[:12]
	}
	var b strings.Builder
	b.WriteString("\n---\n")
	b.WriteString("Reproducibility: ")
	b.WriteString("version=")
	b.WriteString(BuildVersion)
	b.WriteString("; rules=")
	b.WriteString(short)
	b.WriteString("; cached=")
	b.WriteString(strconv.FormatBool(cached))
	b.WriteString("\n")
	return b.String()
}
