package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteManifest_Sidecar(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "batch.json")
	meta := manifestMeta{RunID: "run-1", Version: "1.2.3", RulesDigest: "abc", Documents: 2, GeneratedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	entries := []manifestEntry{
		{Path: "a.docx", BLAKE3: "d1", Size: 10, Verdict: "no issues", Score: 5},
		{Path: "b.docx", Error: "document unavailable: b.docx: not a word document"},
	}
	p, err := writeManifest(out, meta, entries)
	if err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if p != out+".manifest.json" {
		t.Fatalf("expected sidecar path, got %s", p)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var payload struct {
		Meta      manifestMeta    `json:"meta"`
		Documents []manifestEntry `json:"documents"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Meta.RunID != "run-1" || len(payload.Documents) != 2 {
		t.Fatalf("unexpected manifest: %+v", payload)
	}
	if strings.Contains(string(b), `"blake3": ""`) {
		t.Fatalf("expected empty digests to be omitted")
	}
}

func TestReproFooter(t *testing.T) {
	s := reproFooter("0123456789abcdef", true)
	if !strings.Contains(s, "rules=0123456789ab; cached=true") {
		t.Fatalf("unexpected footer %q", s)
	}
}
