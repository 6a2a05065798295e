package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with HCAUDIT_* environment variables
// when set. Callers apply it after the config file and before explicitly set
// flags.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("HCAUDIT_RULES"); v != "" {
		cfg.RulesPath = v
	}
	if v := os.Getenv("HCAUDIT_OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("HCAUDIT_REPORT_DIR"); v != "" {
		cfg.ReportDir = v
	}
	if v := os.Getenv("HCAUDIT_FORMAT"); v != "" {
		cfg.Format = strings.ToLower(strings.TrimSpace(v))
	}
	if v := strings.TrimSpace(os.Getenv("HCAUDIT_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("HCAUDIT_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if s := os.Getenv("HCAUDIT_CACHE_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}
	if v := os.Getenv("HCAUDIT_HISTORY_DB"); v != "" {
		cfg.HistoryDB = v
	}
	if v := os.Getenv("HCAUDIT_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
	if v := os.Getenv("HCAUDIT_PDF_FONT"); v != "" {
		cfg.PDFFont = v
	}
	if v := strings.TrimSpace(os.Getenv("HCAUDIT_NOW")); v != "" {
		if t, err := ParseNow(v); err == nil {
			cfg.Now = t
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.FailOnIssues, "HCAUDIT_FAIL_ON_ISSUES")
	setBool(&cfg.CacheClear, "HCAUDIT_CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "HCAUDIT_CACHE_STRICT_PERMS")
}

// ParseNow accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseNow(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
