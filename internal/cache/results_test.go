package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/hcaudit/internal/finding"
	"github.com/hyperifyio/hcaudit/internal/report"
)

func sampleReport() *report.Report {
	r := report.Build("a.docx", []report.Section{{
		Name:     "数据逻辑正确性",
		Findings: []finding.Finding{finding.Conflicting("fields.potential", "-0.5V 超出-0.85V~-1.2V")},
	}})
	r.Score = 3
	return r
}

func TestResultCache_SaveGet(t *testing.T) {
	c := &ResultCache{Dir: t.TempDir()}
	key := KeyFrom(Digest([]byte("doc")), "rules-v1")
	if _, ok, err := c.Get(context.Background(), key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Save(context.Background(), key, sampleReport()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if got.Score != 3 || got.Verdict.Clean || len(got.Findings) != 1 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if got.Findings[0].Status != finding.Conflict {
		t.Fatalf("expected conflict, got %v", got.Findings[0].Status)
	}
}

func TestKeyFrom_RulesChangeMisses(t *testing.T) {
	doc := Digest([]byte("doc"))
	if KeyFrom(doc, "a") == KeyFrom(doc, "b") {
		t.Fatal("expected distinct keys for distinct rules")
	}
	if len(KeyFrom(doc, "a")) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(KeyFrom(doc, "a")))
	}
}

func TestResultCache_StrictPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	c := &ResultCache{Dir: dir, StrictPerms: true}
	key := KeyFrom("d", "r")
	if err := c.Save(context.Background(), key, sampleReport()); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, key+".json"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, saved time.Time) {
		b, _ := json.Marshal(Entry{Key: name, SavedAt: saved, Report: sampleReport()})
		if err := os.WriteFile(filepath.Join(dir, name+".json"), b, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	write("old", time.Now().Add(-48*time.Hour))
	write("new", time.Now())

	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "new.json")); err != nil {
		t.Fatalf("expected new entry kept: %v", err)
	}
	if n, _ := PurgeByAge(dir, 0); n != 0 {
		t.Fatalf("expected zero maxAge to be a no-op, got %d", n)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
	if err := ClearDir("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
