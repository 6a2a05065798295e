package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// manifestEntry records one audited document.
type manifestEntry struct {
	Path    string `json:"path"`
	BLAKE3  string `json:"blake3,omitempty"`
	Size    int64  `json:"size"`
	Verdict string `json:"verdict,omitempty"`
	Score   int    `json:"score"`
	Cached  bool   `json:"cached,omitempty"`
	Error   string `json:"error,omitempty"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	RunID       string    `json:"run_id"`
	Version     string    `json:"version"`
	RulesDigest string    `json:"rules_digest"`
	Documents   int       `json:"documents"`
	Cache       bool      `json:"cache"`
	GeneratedAt time.Time `json:"generated_at"`
}

// marshalManifestJSON encodes the machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta      manifestMeta    `json:"meta"`
		Documents []manifestEntry `json:"documents"`
	}{Meta: meta, Documents: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns the sidecar path next to the batch output.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

func writeManifest(outputPath string, meta manifestMeta, entries []manifestEntry) (string, error) {
	b, err := marshalManifestJSON(meta, entries)
	if err != nil {
		return "", err
	}
	p := deriveManifestSidecarPath(outputPath)
	if dir := filepath.Dir(p); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return p, os.WriteFile(p, append(b, '\n'), 0o644)
}
