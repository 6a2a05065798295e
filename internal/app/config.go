package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs are files or directories. Directories are walked with Include
	// and Exclude.
	Inputs  []string
	Include []string
	Exclude []string

	// RulesPath is an optional YAML rules file; empty means built-in rules.
	RulesPath string

	// Output
	Format     string // text, json or pdf
	ReportDir  string // per-document reports; empty prints text/json to stdout
	OutputPath string // batch JSON (.json or .json.xz) plus manifest sidecar
	PDFFont    string

	// Behavior
	Workers      int
	Retries      int
	Now          time.Time
	FailOnIssues bool
	Verbose      bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Collaborators
	HistoryDB   string
	MetricsFile string

	// Watch
	Debounce time.Duration
}

// Defaults shared by flag parsing and file overlay.
const (
	formatDefault   = "text"
	workersDefault  = 4
	retriesDefault  = 3
	debounceDefault = 500 * time.Millisecond
)

var includeDefault = []string{"**/*.docx", "**/*.html", "**/*.htm"}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Include:  append([]string{}, includeDefault...),
		Format:   formatDefault,
		Workers:  workersDefault,
		Retries:  retriesDefault,
		Debounce: debounceDefault,
	}
}
