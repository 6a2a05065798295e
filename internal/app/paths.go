package app

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

// deriveReportPath returns a stable per-document report path under the report
// directory. The name keeps the document's base name and adds a short digest
// prefix so documents with the same name in different folders do not collide.
func deriveReportPath(reportDir, docPath, digest, format string) string {
	root := strings.TrimSpace(reportDir)
	if root == "" {
		root = "reports"
	}
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	base = strings.Trim(unsafeNameRe.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "document"
	}
	short := digest
	if len(short) > 12 {
		short = short[:12]
	}
	if short != "" {
		base += "-" + short
	}
	ext := ".txt"
	switch format {
	case "json":
		ext = ".json"
	case "pdf":
		ext = ".pdf"
	}
	return filepath.Join(root, base+ext)
}
