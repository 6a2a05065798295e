package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/hcaudit/internal/app"
)

// options holds raw flag values; only flags the user set are layered over
// file and environment configuration.
type options struct {
	configFile string
	envFiles   []string
	logJSON    bool

	rules        string
	format       string
	reportDir    string
	output       string
	pdfFont      string
	include      []string
	exclude      []string
	workers      int
	retries      int
	now          string
	failOnIssues bool
	verbose      bool

	cacheDir    string
	cacheMaxAge string
	cacheClear  bool
	cacheStrict bool

	historyDB   string
	metricsFile string
	debounce    string
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "hcaudit",
		Short: "Audit pipeline high-consequence-area (HCA) reports for compliance",
		Long: `hcaudit checks HCA identification and risk assessment reports (DOCX or HTML)
for required figures, cross-section consistency, field values and date logic,
and writes a verdict per document.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "YAML or JSON config file")
	pf.StringSliceVar(&o.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	pf.BoolVar(&o.logJSON, "log.json", false, "Write JSON log lines instead of console output")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose logging")
	pf.StringVar(&o.rules, "rules", "", "Rules YAML file (default: built-in rules)")
	pf.StringVar(&o.format, "format", "text", "Report format: text, json or pdf")
	pf.StringVar(&o.reportDir, "report.dir", "", "Directory for per-document reports (default: stdout)")
	pf.StringVar(&o.output, "output", "", "Batch result path (.json or .json.xz); a manifest sidecar is written next to it")
	pf.StringVar(&o.pdfFont, "pdf.font", "", "UTF-8 TTF font for PDF reports")
	pf.StringSliceVar(&o.include, "include", nil, "Glob of files to audit inside directories (default **/*.docx, **/*.html, **/*.htm)")
	pf.StringSliceVar(&o.exclude, "exclude", nil, "Glob of files to skip inside directories")
	pf.IntVar(&o.workers, "workers", 4, "Documents audited in parallel (0 = one per CPU)")
	pf.IntVar(&o.retries, "retries", 3, "Read attempts per document")
	pf.StringVar(&o.now, "now", "", "Reference date for the future-date rule (RFC 3339 or YYYY-MM-DD)")
	pf.BoolVar(&o.failOnIssues, "fail-on-issues", false, "Exit with code 3 when any report has issues")
	pf.StringVar(&o.cacheDir, "cache.dir", "", "Result cache directory (disabled when empty)")
	pf.StringVar(&o.cacheMaxAge, "cache.maxAge", "", "Purge cache entries older than this (e.g. 72h)")
	pf.BoolVar(&o.cacheClear, "cache.clear", false, "Clear the cache before running")
	pf.BoolVar(&o.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	pf.StringVar(&o.historyDB, "history.db", "", "SQLite audit history database")
	pf.StringVar(&o.metricsFile, "metrics.file", "", "Write prometheus textfile metrics here")
	pf.StringVar(&o.debounce, "watch.debounce", "", "Quiet period before a changed file is audited (default 500ms)")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(o.verbose || envTrue("VERBOSE"), o.logJSON)
	}

	root.AddCommand(newAuditCmd(o), newWatchCmd(o), newHistoryCmd(o), newRulesCmd(o), newVersionCmd())
	return root
}

// buildConfig layers defaults, the config file, the environment and then
// explicitly set flags. Positional args replace configured inputs.
func buildConfig(cmd *cobra.Command, o *options, args []string) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}
	if o.configFile != "" {
		fc, err := app.LoadConfigFile(o.configFile)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	changed := cmd.Flags().Changed
	if changed("rules") {
		cfg.RulesPath = o.rules
	}
	if changed("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(o.format))
	}
	if changed("report.dir") {
		cfg.ReportDir = o.reportDir
	}
	if changed("output") {
		cfg.OutputPath = o.output
	}
	if changed("pdf.font") {
		cfg.PDFFont = o.pdfFont
	}
	if changed("include") {
		cfg.Include = o.include
	}
	if changed("exclude") {
		cfg.Exclude = o.exclude
	}
	if changed("workers") {
		cfg.Workers = o.workers
	}
	if changed("retries") {
		cfg.Retries = o.retries
	}
	if changed("now") {
		t, err := app.ParseNow(o.now)
		if err != nil {
			return cfg, fmt.Errorf("config: --now: %w", err)
		}
		cfg.Now = t
	}
	if changed("fail-on-issues") {
		cfg.FailOnIssues = o.failOnIssues
	}
	if changed("verbose") {
		cfg.Verbose = o.verbose
	}
	if changed("cache.dir") {
		cfg.CacheDir = o.cacheDir
	}
	if changed("cache.maxAge") {
		d, err := time.ParseDuration(o.cacheMaxAge)
		if err != nil {
			return cfg, fmt.Errorf("config: --cache.maxAge: %w", err)
		}
		cfg.CacheMaxAge = d
	}
	if changed("cache.clear") {
		cfg.CacheClear = o.cacheClear
	}
	if changed("cache.strictPerms") {
		cfg.CacheStrictPerms = o.cacheStrict
	}
	if changed("history.db") {
		cfg.HistoryDB = o.historyDB
	}
	if changed("metrics.file") {
		cfg.MetricsFile = o.metricsFile
	}
	if changed("watch.debounce") {
		d, err := time.ParseDuration(o.debounce)
		if err != nil {
			return cfg, fmt.Errorf("config: --watch.debounce: %w", err)
		}
		cfg.Debounce = d
	}
	if len(args) > 0 {
		cfg.Inputs = append([]string{}, args...)
	}
	return cfg, nil
}

func envTrue(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
