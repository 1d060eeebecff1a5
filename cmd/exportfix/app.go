// # cmd/exportfix/app.go
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"

	"exportfix/internal/config"
	"exportfix/internal/core/errors"
	"exportfix/internal/data/cache"
	"exportfix/internal/data/history"
	"exportfix/internal/engine/pipeline"
	"exportfix/internal/engine/scanner"
	"exportfix/internal/engine/style"
	"exportfix/internal/shared/observability"
	"exportfix/internal/shared/util"
	"exportfix/internal/ui/report"
	"exportfix/internal/watcher"
)

// Modes carries the run flags that shape every pass.
type Modes struct {
	DryRun         bool
	DuplicatesOnly bool
	Verbose        bool
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Modes  Modes

	scanner  *scanner.Scanner
	policy   style.Policy
	cache    *cache.ScanCache
	store    *history.Store
	recorder *history.Recorder
	watcher  *watcher.Watcher
}

// NewApp wires the scanner, the scan cache, and the run history. Cache and
// history failures degrade to a run without them; only the scanner is
// mandatory.
func NewApp(cfg *config.Config, paths config.ResolvedPaths, modes Modes) (*App, error) {
	loader := scanner.NewGrammarLoader(cfg.Languages.TypeScript)

	app := &App{
		Config:  cfg,
		Paths:   paths,
		Modes:   modes,
		scanner: scanner.NewScanner(loader),
		policy:  style.NewPolicy(cfg.Policy.KeepDefault, cfg.Policy.ForceNamed),
	}

	if cfg.Cache.IsEnabled() {
		sc, err := cache.Open(paths.CacheDir)
		if err != nil {
			slog.Warn("scan cache unavailable", "dir", paths.CacheDir,
				"error", errors.Wrap(err, errors.CodeCacheFailure, "open cache"))
		} else {
			app.cache = sc
		}
	}

	if cfg.DB.IsEnabled() {
		store, err := history.Open(paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			slog.Warn("run history unavailable", "path", paths.DBPath,
				"error", errors.Wrap(err, errors.CodeDatabaseFailure, "open history"))
		} else {
			app.store = store
			app.recorder = history.NewRecorder(store, paths.ProjectRoot, paths.ProjectRoot)
		}
	}

	return app, nil
}

func (a *App) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Discover walks the configured roots and returns the fixable source files
// in walk order.
func (a *App) Discover() ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Dirs))
	for _, p := range a.Config.Exclude.Dirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(a.Config.Exclude.Files))
	for _, p := range a.Config.Exclude.Files {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	skipTests := a.Config.Exclude.SkipsTests()
	seen := make(map[string]bool)
	var files []string

	for _, root := range a.Config.WatchPaths {
		resolved := config.ResolveRelative(a.Paths.ProjectRoot, root)
		err := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)

			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			if !a.scanner.IsSupportedPath(path) || a.scanner.IsMinified(path) {
				return nil
			}
			if skipTests && a.scanner.IsTestFile(path) {
				return nil
			}

			if seen[path] {
				return nil
			}
			seen[path] = true
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func (a *App) runnerFor(dryRun bool) *pipeline.Runner {
	engine := pipeline.NewEngine(a.scanner, pipeline.Options{
		DryRun:         dryRun,
		DuplicatesOnly: a.Modes.DuplicatesOnly,
		DefaultExt:     a.Config.DefaultExt,
		Policy:         a.policy,
	})

	// A typed nil must not reach the runner's interface field.
	var sc pipeline.ScanCache
	if a.cache != nil {
		sc = a.cache
	}
	return pipeline.NewRunner(engine, sc)
}

// executeRun is the quiet discover-run-record pass shared by watch mode
// and the preview TUI.
func (a *App) executeRun(ctx context.Context, dryRun bool) (*pipeline.RunResult, error) {
	files, err := a.Discover()
	if err != nil {
		return nil, err
	}

	result, err := a.runnerFor(dryRun).Run(ctx, files)
	if err != nil {
		return result, err
	}

	a.recordRun(result, dryRun)
	return result, nil
}

// RunOnce executes one full pass and renders it in the configured output
// format. A run where every file failed still completes and renders; the
// returned error only reports cancellation or a discovery failure.
func (a *App) RunOnce(ctx context.Context, dryRun bool) (*pipeline.RunResult, error) {
	narrate := a.narrates()
	console := a.consoleReporter(dryRun)

	if narrate {
		console.PrintBanner()
	}

	files, err := a.Discover()
	if err != nil {
		return nil, err
	}
	if narrate {
		console.PrintDiscovery(len(files))
	}

	result, err := a.runnerFor(dryRun).Run(ctx, files)
	if err != nil {
		return result, err
	}
	a.recordRun(result, dryRun)

	if narrate {
		if !a.Modes.DuplicatesOnly {
			console.PrintAnalysis(result.Tally)
		}
		if a.Config.Output.Format == "table" {
			fmt.Print(report.RenderChangeTable(result))
		}
		console.PrintSummary(result)
	} else if err := a.renderOutputs(result, dryRun); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	if !dryRun {
		a.injectSummaries(result)
	}

	return result, nil
}

// HandleChanges re-runs the whole pipeline after a change batch. The batch
// only tells us something moved; the tally is cross-file, so a full pass
// is the only safe response.
func (a *App) HandleChanges(ctx context.Context, changed []string) {
	slog.Info("detected changes", "count", len(changed))

	result, err := a.executeRun(ctx, a.Modes.DryRun)
	if err != nil {
		slog.Error("re-run failed", "error", err)
		return
	}

	if err := a.renderOutputs(result, a.Modes.DryRun); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}
	if !a.Modes.DryRun {
		a.injectSummaries(result)
	}

	if a.Config.Alerts.Beep && (result.Counters.TotalFixes() > 0 || result.Counters.Errors > 0) {
		fmt.Print("\a")
	}
	if !a.Config.Alerts.Terminal {
		return
	}
	report.NewConsoleReporter(os.Stdout, report.ConsoleOptions{
		DryRun:         a.Modes.DryRun,
		DuplicatesOnly: a.Modes.DuplicatesOnly,
		Verbose:        a.Modes.Verbose,
	}).PrintSummary(result)
}

// StartWatcher begins watch mode. The watcher serializes callbacks, so a
// batch that lands mid-run waits for the current pass to finish.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) { a.HandleChanges(ctx, paths) },
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeWatchFailure, "create watcher")
	}
	w.SetLanguageFilters(a.scanner.SupportedExtensions(), a.Config.Exclude.SkipsTests())
	w.SetRateLimit(a.Config.Watch.RateLimit)

	roots := make([]string, 0, len(a.Config.WatchPaths))
	for _, root := range a.Config.WatchPaths {
		roots = append(roots, config.ResolveRelative(a.Paths.ProjectRoot, root))
	}
	if err := w.Watch(roots); err != nil {
		return errors.Wrap(err, errors.CodeWatchFailure, "watch roots")
	}

	a.watcher = w
	slog.Info("watching for changes", "roots", roots, "debounce", a.Config.Watch.Debounce)
	return nil
}

// RunPreview opens the interactive change browser over a dry run.
func (a *App) RunPreview(ctx context.Context) error {
	p := tea.NewProgram(newPreviewModel(ctx, a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Check reports process health for the observability server.
func (a *App) Check(ctx context.Context) observability.HealthStatus {
	components := map[string]string{
		"scanner": "up",
		"cache":   "disabled",
		"history": "disabled",
		"watcher": "idle",
	}
	if a.cache != nil {
		components["cache"] = "up"
	}
	if a.store != nil {
		components["history"] = "up"
	}
	if a.watcher != nil {
		components["watcher"] = "up"
	}

	return observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: components,
	}
}

func (a *App) recordRun(result *pipeline.RunResult, dryRun bool) {
	if a.recorder == nil {
		return
	}
	if _, err := a.recorder.Record(result, dryRun); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}

func (a *App) narrates() bool {
	return a.Config.Output.Format == "console" || a.Config.Output.Format == "table"
}

func (a *App) consoleReporter(dryRun bool) *report.ConsoleReporter {
	return report.NewConsoleReporter(os.Stdout, report.ConsoleOptions{
		DryRun:         dryRun,
		DuplicatesOnly: a.Modes.DuplicatesOnly,
		Verbose:        a.Modes.Verbose,
		Beep:           a.Config.Alerts.Beep,
	})
}

// renderOutputs writes the configured file-oriented output for one run.
// Console and table formats are handled inline by RunOnce.
func (a *App) renderOutputs(result *pipeline.RunResult, dryRun bool) error {
	switch a.Config.Output.Format {
	case "markdown":
		return a.writeMarkdownReport(result, dryRun)
	case "tsv":
		return a.writeTSVReport(result)
	case "sarif":
		return a.writeSARIFReport(result)
	}
	return nil
}

func (a *App) writeMarkdownReport(result *pipeline.RunResult, dryRun bool) error {
	data := report.MarkdownReportData{Result: result}
	if a.store != nil {
		since := time.Now().AddDate(0, 0, -30).UTC()
		runs, err := a.store.LoadRuns(a.Paths.ProjectRoot, since)
		if err != nil {
			slog.Warn("failed to load run history for trends", "error", err)
		} else if len(runs) > 0 {
			trends, err := history.BuildTrendReport(a.Paths.ProjectRoot, runs, 24*time.Hour)
			if err != nil {
				slog.Warn("failed to build trend report", "error", err)
			} else {
				data.Trends = &trends
			}
		}
	}

	content, err := report.NewMarkdownGenerator().Generate(data, report.MarkdownReportOptions{
		ProjectName:         filepath.Base(a.Paths.ProjectRoot),
		ProjectRoot:         a.Paths.ProjectRoot,
		Version:             VERSION,
		DryRun:              dryRun,
		Verbosity:           a.Config.Output.Report.Verbosity,
		TableOfContents:     a.Config.Output.Report.TableOfContentsEnabled(),
		CollapsibleSections: a.Config.Output.Report.CollapsibleSectionsEnabled(),
	})
	if err != nil {
		return err
	}
	return a.emit(content)
}

func (a *App) writeTSVReport(result *pipeline.RunResult) error {
	g := report.NewTSVGenerator()
	changes, err := g.GenerateChanges(result)
	if err != nil {
		return err
	}

	content := changes
	if len(result.Failures) > 0 {
		failures, err := g.GenerateFailures(result)
		if err != nil {
			return err
		}
		content = strings.TrimRight(changes, "\n") + "\n\n" + strings.TrimRight(failures, "\n") + "\n"
	}
	return a.emit(content)
}

func (a *App) writeSARIFReport(result *pipeline.RunResult) error {
	raw, err := report.GenerateSARIF(a.Paths.ProjectRoot, result, VERSION)
	if err != nil {
		return err
	}

	target := strings.TrimSpace(a.Config.Output.Path)
	if target == "" {
		fmt.Println(string(raw))
		return nil
	}
	return util.WriteFileWithDirs(config.ResolveRelative(a.Paths.ProjectRoot, target), raw, 0o644)
}

// emit writes content to the configured output path, or stdout when none
// is set.
func (a *App) emit(content string) error {
	target := strings.TrimSpace(a.Config.Output.Path)
	if target == "" {
		fmt.Print(content)
		return nil
	}
	return util.WriteStringWithDirs(config.ResolveRelative(a.Paths.ProjectRoot, target), content, 0o644)
}

// injectSummaries refreshes the marked section of each configured markdown
// file with the latest counters. Failures are logged per target; one stale
// README never blocks the others.
func (a *App) injectSummaries(result *pipeline.RunResult) {
	if len(a.Config.Output.UpdateMarkdown) == 0 {
		return
	}

	body := buildInjectionSummary(result)
	for _, target := range a.Config.Output.UpdateMarkdown {
		path := config.ResolveRelative(a.Paths.ProjectRoot, target.File)
		if err := report.InjectSummary(path, target.Marker, body); err != nil {
			slog.Warn("failed to update markdown section", "file", path, "marker", target.Marker, "error", err)
		}
	}
}

func buildInjectionSummary(result *pipeline.RunResult) string {
	c := result.Counters

	var b strings.Builder
	fmt.Fprintf(&b, "Last run: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Files scanned | %d |\n", c.FilesScanned)
	fmt.Fprintf(&b, "| Files changed | %d |\n", c.FilesChanged)
	fmt.Fprintf(&b, "| Total fixes | %d |\n", c.TotalFixes())
	fmt.Fprintf(&b, "| Errors | %d |\n", c.Errors)
	return b.String()
}
