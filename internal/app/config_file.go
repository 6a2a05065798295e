package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Inputs  []string `yaml:"inputs" json:"inputs"`
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
	Rules   string   `yaml:"rules" json:"rules"`

	Output struct {
		Format    string `yaml:"format" json:"format"`
		ReportDir string `yaml:"reportDir" json:"reportDir"`
		Batch     string `yaml:"batch" json:"batch"`
		PDFFont   string `yaml:"pdfFont" json:"pdfFont"`
	} `yaml:"output" json:"output"`

	Workers      int    `yaml:"workers" json:"workers"`
	Retries      int    `yaml:"retries" json:"retries"`
	Now          string `yaml:"now" json:"now"`
	FailOnIssues bool   `yaml:"failOnIssues" json:"failOnIssues"`
	Verbose      bool   `yaml:"verbose" json:"verbose"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	History struct {
		DB string `yaml:"db" json:"db"`
	} `yaml:"history" json:"history"`

	Metrics struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"metrics" json:"metrics"`

	Watch struct {
		Debounce time.Duration `yaml:"debounce" json:"debounce"`
	} `yaml:"watch" json:"watch"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any field still unset
// or at its default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if len(cfg.Inputs) == 0 && len(fc.Inputs) > 0 {
		cfg.Inputs = append([]string{}, fc.Inputs...)
	}
	if isDefaultInclude(cfg.Include) && len(fc.Include) > 0 {
		cfg.Include = append([]string{}, fc.Include...)
	}
	if len(cfg.Exclude) == 0 && len(fc.Exclude) > 0 {
		cfg.Exclude = append([]string{}, fc.Exclude...)
	}
	if cfg.RulesPath == "" && fc.Rules != "" {
		cfg.RulesPath = fc.Rules
	}

	if (cfg.Format == "" || cfg.Format == formatDefault) && fc.Output.Format != "" {
		cfg.Format = strings.ToLower(fc.Output.Format)
	}
	if cfg.ReportDir == "" && fc.Output.ReportDir != "" {
		cfg.ReportDir = fc.Output.ReportDir
	}
	if cfg.OutputPath == "" && fc.Output.Batch != "" {
		cfg.OutputPath = fc.Output.Batch
	}
	if cfg.PDFFont == "" && fc.Output.PDFFont != "" {
		cfg.PDFFont = fc.Output.PDFFont
	}

	if (cfg.Workers == 0 || cfg.Workers == workersDefault) && fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if (cfg.Retries == 0 || cfg.Retries == retriesDefault) && fc.Retries > 0 {
		cfg.Retries = fc.Retries
	}
	if cfg.Now.IsZero() && fc.Now != "" {
		if t, err := ParseNow(fc.Now); err == nil {
			cfg.Now = t
		}
	}
	if !cfg.FailOnIssues && fc.FailOnIssues {
		cfg.FailOnIssues = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if cfg.HistoryDB == "" && fc.History.DB != "" {
		cfg.HistoryDB = fc.History.DB
	}
	if cfg.MetricsFile == "" && fc.Metrics.File != "" {
		cfg.MetricsFile = fc.Metrics.File
	}
	if (cfg.Debounce == 0 || cfg.Debounce == debounceDefault) && fc.Watch.Debounce > 0 {
		cfg.Debounce = fc.Watch.Debounce
	}
}

func isDefaultInclude(in []string) bool {
	if len(in) == 0 {
		return true
	}
	if len(in) != len(includeDefault) {
		return false
	}
	for i := range in {
		if in[i] != includeDefault[i] {
			return false
		}
	}
	return true
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("config: at least one input path is required")
	}
	for _, in := range cfg.Inputs {
		if strings.TrimSpace(in) == "" {
			return errors.New("config: empty input path")
		}
	}
	switch cfg.Format {
	case "text", "json", "pdf":
	default:
		return fmt.Errorf("config: unknown format %q (want text, json or pdf)", cfg.Format)
	}
	if cfg.Workers < 0 {
		return errors.New("config: workers must not be negative")
	}
	if cfg.Retries < 0 {
		return errors.New("config: retries must not be negative")
	}
	if cfg.Format == "pdf" {
		if strings.TrimSpace(cfg.PDFFont) == "" {
			return errors.New("config: pdf format requires a font (--pdf.font or HCAUDIT_PDF_FONT)")
		}
		if strings.TrimSpace(cfg.ReportDir) == "" {
			return errors.New("config: pdf format requires --report.dir")
		}
	}
	return nil
}
