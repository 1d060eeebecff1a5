// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version     int      `toml:"version"`
	ProjectRoot string   `toml:"project_root"`
	DefaultExt  string   `toml:"default_ext"`
	WatchPaths  []string `toml:"watch_paths"`

	Policy        Policy        `toml:"policy"`
	Languages     Languages     `toml:"languages"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	DB            Database      `toml:"db"`
	Cache         Cache         `toml:"cache"`
	Output        Output        `toml:"output"`
	Alerts        Alerts        `toml:"alerts"`
	Observability Observability `toml:"observability"`
}

// Policy lists the symbols whose export style is pinned regardless of what
// the rest of the tree does.
type Policy struct {
	KeepDefault []string `toml:"keep_default"`
	ForceNamed  []string `toml:"force_named"`
}

type Languages struct {
	TypeScript bool `toml:"typescript"`
}

type Exclude struct {
	Dirs      []string `toml:"dirs"`
	Files     []string `toml:"files"` // Base-name glob patterns (e.g. *.generated.js)
	SkipTests *bool    `toml:"skip_tests"`
}

func (e Exclude) SkipsTests() bool {
	if e.SkipTests == nil {
		return true
	}
	return *e.SkipTests
}

type Watch struct {
	Debounce  time.Duration `toml:"debounce"`
	RateLimit float64       `toml:"rate_limit"` // Max full runs per second
}

type Database struct {
	Enabled     *bool         `toml:"enabled"`
	Driver      string        `toml:"driver"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

func (d Database) IsEnabled() bool {
	if d.Enabled == nil {
		return true
	}
	return *d.Enabled
}

type Cache struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func (c Cache) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

type Output struct {
	Format string `toml:"format"` // console, table, markdown, tsv, sarif
	Path   string `toml:"path"`   // File target for markdown/tsv/sarif; empty writes to stdout

	Report         ReportOutput        `toml:"report"`
	UpdateMarkdown []MarkdownInjection `toml:"update_markdown"`
}

// ReportOutput tunes the generated markdown report.
type ReportOutput struct {
	Verbosity           string `toml:"verbosity"` // summary, standard, detailed
	TableOfContents     *bool  `toml:"table_of_contents"`
	CollapsibleSections *bool  `toml:"collapsible_sections"`
}

func (r ReportOutput) TableOfContentsEnabled() bool {
	if r.TableOfContents == nil {
		return true
	}
	return *r.TableOfContents
}

func (r ReportOutput) CollapsibleSectionsEnabled() bool {
	if r.CollapsibleSections == nil {
		return true
	}
	return *r.CollapsibleSections
}

// MarkdownInjection names a markdown file whose marked section is refreshed
// with the run summary after each non-dry run.
type MarkdownInjection struct {
	File   string `toml:"file"`
	Marker string `toml:"marker"`
}

type Alerts struct {
	Beep     bool `toml:"beep"`
	Terminal bool `toml:"terminal"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	MetricsAddr   string `toml:"metrics_addr"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
	EnableTracing bool   `toml:"enable_tracing"`
}

// Default returns a validated configuration with every default applied,
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validatePolicy(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}

	ext := strings.TrimSpace(cfg.DefaultExt)
	if ext == "" {
		ext = ".js"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	cfg.DefaultExt = strings.ToLower(ext)

	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"node_modules", ".git", "build", "dist", "coverage"}
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RateLimit <= 0 {
		cfg.Watch.RateLimit = 2
	}

	if strings.TrimSpace(cfg.DB.Driver) == "" {
		cfg.DB.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "exportfix.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "console"
	}
	if strings.TrimSpace(cfg.Output.Report.Verbosity) == "" {
		cfg.Output.Report.Verbosity = "standard"
	}

	if strings.TrimSpace(cfg.Observability.MetricsAddr) == "" {
		cfg.Observability.MetricsAddr = "127.0.0.1:9090"
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; this build supports version 1", cfg.Version)
	}
	return nil
}

func validatePolicy(cfg *Config) error {
	keep := make(map[string]bool, len(cfg.Policy.KeepDefault))
	for i, name := range cfg.Policy.KeepDefault {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("policy.keep_default[%d] must not be empty", i)
		}
		keep[name] = true
	}
	for i, name := range cfg.Policy.ForceNamed {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("policy.force_named[%d] must not be empty", i)
		}
		if keep[name] {
			return fmt.Errorf("symbol %q is listed in both policy.keep_default and policy.force_named", name)
		}
	}
	return nil
}

func validateScan(cfg *Config) error {
	switch cfg.DefaultExt {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts":
	default:
		return fmt.Errorf("default_ext must be a JavaScript or TypeScript extension, got %q", cfg.DefaultExt)
	}

	for i, dir := range cfg.Exclude.Dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("exclude.dirs[%d] must not be empty", i)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude.files[%d] must not be empty", i)
		}
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return fmt.Errorf("exclude.files[%d]: invalid pattern %q", i, pattern)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if driver != "sqlite" {
		return fmt.Errorf("db.driver must be sqlite, got %q", cfg.DB.Driver)
	}
	if cfg.DB.IsEnabled() && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	format := strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	switch format {
	case "console", "table", "markdown", "tsv", "sarif":
	default:
		return fmt.Errorf("output.format must be one of: console, table, markdown, tsv, sarif")
	}
	cfg.Output.Format = format

	verbosity := strings.ToLower(strings.TrimSpace(cfg.Output.Report.Verbosity))
	switch verbosity {
	case "summary", "standard", "detailed":
	default:
		return fmt.Errorf("output.report.verbosity must be one of: summary, standard, detailed")
	}
	cfg.Output.Report.Verbosity = verbosity

	seen := make(map[string]bool, len(cfg.Output.UpdateMarkdown))
	for i, injection := range cfg.Output.UpdateMarkdown {
		ref := fmt.Sprintf("output.update_markdown[%d]", i)
		file := strings.TrimSpace(injection.File)
		if file == "" {
			return fmt.Errorf("%s.file must not be empty", ref)
		}
		marker := strings.TrimSpace(injection.Marker)
		if marker == "" {
			return fmt.Errorf("%s.marker must not be empty", ref)
		}
		key := file + "|" + marker
		if seen[key] {
			return fmt.Errorf("duplicate markdown injection target: file=%q marker=%q", file, marker)
		}
		seen[key] = true
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && strings.TrimSpace(cfg.Observability.MetricsAddr) == "" {
		return fmt.Errorf("observability.metrics_addr must not be empty when observability.enabled=true")
	}
	return nil
}
