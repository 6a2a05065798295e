package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")
	t.Setenv("BAZ", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nexport BAR='beta gamma'\nBAZ=delta # trailing\nmalformed\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta gamma" {
		t.Fatalf("BAR=%q, want beta gamma", got)
	}
	if got := os.Getenv("BAZ"); got != "delta" {
		t.Fatalf("BAZ=%q, want delta", got)
	}
}

func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestApplyEnvOverrides_FromEnv(t *testing.T) {
	t.Setenv("HCAUDIT_FORMAT", "JSON")
	t.Setenv("HCAUDIT_WORKERS", "8")
	t.Setenv("HCAUDIT_CACHE_DIR", "/tmp/hcaudit-cache")
	t.Setenv("HCAUDIT_CACHE_MAX_AGE", "48h")
	t.Setenv("HCAUDIT_NOW", "2025-06-01")
	t.Setenv("HCAUDIT_FAIL_ON_ISSUES", "yes")
	t.Setenv("VERBOSE", "0")

	cfg := DefaultConfig()
	cfg.Verbose = true
	ApplyEnvOverrides(&cfg)
	if cfg.Format != "json" {
		t.Fatalf("Format=%q, want json", cfg.Format)
	}
	if cfg.Workers != 8 {
		t.Fatalf("Workers=%d, want 8", cfg.Workers)
	}
	if cfg.CacheDir != "/tmp/hcaudit-cache" || cfg.CacheMaxAge != 48*time.Hour {
		t.Fatalf("cache settings not applied: %q %v", cfg.CacheDir, cfg.CacheMaxAge)
	}
	if !cfg.Now.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Now=%v, want 2025-06-01", cfg.Now)
	}
	if !cfg.FailOnIssues {
		t.Fatalf("expected FailOnIssues from env")
	}
	if cfg.Verbose {
		t.Fatalf("expected VERBOSE=0 to switch verbose off")
	}
}

func TestParseNow(t *testing.T) {
	if _, err := ParseNow("2025-06-01T08:00:00+08:00"); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if _, err := ParseNow("June 1"); err == nil {
		t.Fatalf("expected error for free-form date")
	}
}
