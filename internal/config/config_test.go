// # internal/config/config_test.go
package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config*.toml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoad(t *testing.T) {
	content := `
project_root = "./web"
default_ext = ".mjs"
watch_paths = ["./src"]

[policy]
keep_default = ["UIComponent"]
force_named = ["ApiClient", "EventBus"]

[languages]
typescript = true

[exclude]
dirs = ["vendor"]
files = ["*.generated.js"]
skip_tests = false

[watch]
debounce = "1s"
rate_limit = 4.0

[db]
enabled = false
path = "runs.db"
busy_timeout = "3s"

[cache]
dir = ".exportfix-cache"

[output]
format = "markdown"
path = "report.md"

[output.report]
verbosity = "Summary"
table_of_contents = false

[[output.update_markdown]]
file = "README.md"
marker = "summary"

[alerts]
beep = true
terminal = true

[observability]
enabled = true
metrics_addr = "127.0.0.1:9200"
enable_tracing = true
otlp_endpoint = "127.0.0.1:4317"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ProjectRoot != "./web" {
		t.Errorf("Expected ProjectRoot ./web, got %s", cfg.ProjectRoot)
	}
	if cfg.DefaultExt != ".mjs" {
		t.Errorf("Expected DefaultExt .mjs, got %s", cfg.DefaultExt)
	}
	if len(cfg.Policy.KeepDefault) != 1 || cfg.Policy.KeepDefault[0] != "UIComponent" {
		t.Errorf("Unexpected keep_default: %v", cfg.Policy.KeepDefault)
	}
	if len(cfg.Policy.ForceNamed) != 2 {
		t.Errorf("Unexpected force_named: %v", cfg.Policy.ForceNamed)
	}
	if !cfg.Languages.TypeScript {
		t.Error("Expected typescript enabled")
	}
	if cfg.Exclude.SkipsTests() {
		t.Error("Expected skip_tests false")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.RateLimit != 4.0 {
		t.Errorf("Expected rate_limit 4, got %v", cfg.Watch.RateLimit)
	}
	if cfg.DB.IsEnabled() {
		t.Error("Expected db disabled")
	}
	if cfg.DB.BusyTimeout != 3*time.Second {
		t.Errorf("Expected busy_timeout 3s, got %v", cfg.DB.BusyTimeout)
	}
	if cfg.Cache.Dir != ".exportfix-cache" {
		t.Errorf("Unexpected cache dir: %s", cfg.Cache.Dir)
	}
	if cfg.Output.Format != "markdown" || cfg.Output.Path != "report.md" {
		t.Errorf("Unexpected output: %+v", cfg.Output)
	}
	if cfg.Output.Report.Verbosity != "summary" {
		t.Errorf("Expected verbosity normalized to summary, got %s", cfg.Output.Report.Verbosity)
	}
	if cfg.Output.Report.TableOfContentsEnabled() {
		t.Error("Expected table_of_contents false")
	}
	if !cfg.Output.Report.CollapsibleSectionsEnabled() {
		t.Error("Expected collapsible_sections default true")
	}
	if len(cfg.Output.UpdateMarkdown) != 1 || cfg.Output.UpdateMarkdown[0].Marker != "summary" {
		t.Errorf("Unexpected update_markdown: %+v", cfg.Output.UpdateMarkdown)
	}
	if !cfg.Observability.Enabled || cfg.Observability.MetricsAddr != "127.0.0.1:9200" {
		t.Errorf("Unexpected observability: %+v", cfg.Observability)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `watch_paths = ["."]`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Expected version 1, got %d", cfg.Version)
	}
	if cfg.DefaultExt != ".js" {
		t.Errorf("Expected default ext .js, got %s", cfg.DefaultExt)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.RateLimit != 2 {
		t.Errorf("Expected default rate_limit 2, got %v", cfg.Watch.RateLimit)
	}
	if !cfg.DB.IsEnabled() || !cfg.Cache.IsEnabled() {
		t.Error("Expected db and cache enabled by default")
	}
	if cfg.DB.BusyTimeout != 5*time.Second {
		t.Errorf("Expected busy_timeout 5s, got %v", cfg.DB.BusyTimeout)
	}
	if !cfg.Exclude.SkipsTests() {
		t.Error("Expected skip_tests default true")
	}
	found := false
	for _, dir := range cfg.Exclude.Dirs {
		if dir == "node_modules" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected node_modules in default excludes, got %v", cfg.Exclude.Dirs)
	}
	if cfg.Output.Format != "console" {
		t.Errorf("Expected default format console, got %s", cfg.Output.Format)
	}
	if cfg.Observability.MetricsAddr != "127.0.0.1:9090" {
		t.Errorf("Unexpected metrics addr: %s", cfg.Observability.MetricsAddr)
	}
}

func TestLoadNormalizesExtension(t *testing.T) {
	cfg, err := Load(writeConfig(t, `default_ext = "TS"`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DefaultExt != ".ts" {
		t.Errorf("Expected .ts, got %s", cfg.DefaultExt)
	}
}

func TestLoadError(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "UnsupportedVersion",
			content: `version = 2`,
			wantErr: "unsupported config version",
		},
		{
			name: "PolicyOverlap",
			content: `[policy]
keep_default = ["Button"]
force_named = ["Button"]`,
			wantErr: "both policy.keep_default and policy.force_named",
		},
		{
			name: "EmptyPolicyEntry",
			content: `[policy]
keep_default = [" "]`,
			wantErr: "policy.keep_default[0]",
		},
		{
			name:    "BadExtension",
			content: `default_ext = ".py"`,
			wantErr: "default_ext",
		},
		{
			name: "BadExcludePattern",
			content: `[exclude]
files = ["["]`,
			wantErr: "invalid pattern",
		},
		{
			name: "BadDriver",
			content: `[db]
driver = "postgres"`,
			wantErr: "db.driver must be sqlite",
		},
		{
			name: "BadOutputFormat",
			content: `[output]
format = "yaml"`,
			wantErr: "output.format",
		},
		{
			name: "BadReportVerbosity",
			content: `[output.report]
verbosity = "loud"`,
			wantErr: "output.report.verbosity",
		},
		{
			name: "InjectionMissingMarker",
			content: `[[output.update_markdown]]
file = "README.md"`,
			wantErr: "output.update_markdown[0].marker",
		},
		{
			name: "DuplicateInjection",
			content: `[[output.update_markdown]]
file = "README.md"
marker = "summary"

[[output.update_markdown]]
file = "README.md"
marker = "summary"`,
			wantErr: "duplicate markdown injection",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := validateVersion(cfg); err != nil {
		t.Errorf("version: %v", err)
	}
	if err := validatePolicy(cfg); err != nil {
		t.Errorf("policy: %v", err)
	}
	if err := validateScan(cfg); err != nil {
		t.Errorf("scan: %v", err)
	}
	if err := validateDatabase(cfg); err != nil {
		t.Errorf("database: %v", err)
	}
	if err := validateOutput(cfg); err != nil {
		t.Errorf("output: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EXPORTFIX_DEFAULT_EXT", ".jsx")
	t.Setenv("EXPORTFIX_DB_ENABLED", "false")
	t.Setenv("EXPORTFIX_WATCH_DEBOUNCE", "2s")
	t.Setenv("EXPORTFIX_OUTPUT_FORMAT", "tsv")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.DefaultExt != ".jsx" {
		t.Errorf("Expected .jsx, got %s", cfg.DefaultExt)
	}
	if cfg.DB.IsEnabled() {
		t.Error("Expected db disabled via env")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Expected debounce 2s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Output.Format != "tsv" {
		t.Errorf("Expected tsv, got %s", cfg.Output.Format)
	}
}
