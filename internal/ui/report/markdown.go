// # internal/ui/report/markdown.go
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"exportfix/internal/data/history"
	"exportfix/internal/engine/pipeline"
	"exportfix/internal/engine/project"
	"exportfix/internal/shared/util"
)

type MarkdownReportData struct {
	Result *pipeline.RunResult
	// Trends is optional; the section is omitted when nil.
	Trends *history.TrendReport
}

type MarkdownReportOptions struct {
	ProjectName         string
	ProjectRoot         string
	Version             string
	GeneratedAt         time.Time
	DryRun              bool
	Verbosity           string
	TableOfContents     bool
	CollapsibleSections bool
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(data MarkdownReportData, opts MarkdownReportOptions) (string, error) {
	if data.Result == nil {
		return "", fmt.Errorf("markdown report requires a run result")
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	verbosity := normalizeReportVerbosity(opts.Verbosity)
	result := data.Result

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Export Fix Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Export Fix Report\n\n")
	if opts.TableOfContents {
		b.WriteString("## Table of Contents\n")
		b.WriteString("- [Executive Summary](#executive-summary)\n")
		b.WriteString("- [Changed Files](#changed-files)\n")
		b.WriteString("- [Failed Files](#failed-files)\n")
		b.WriteString("- [Module Style Decisions](#module-style-decisions)\n")
		if data.Trends != nil {
			b.WriteString("- [Trends](#trends)\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Executive Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files Scanned | %d |\n", result.Counters.FilesScanned))
	b.WriteString(fmt.Sprintf("| Files Changed | %d |\n", result.Counters.FilesChanged))
	b.WriteString(fmt.Sprintf("| Duplicate Exports Fixed | %d |\n", result.Counters.DuplicatesFixed))
	b.WriteString(fmt.Sprintf("| Exports Modernized | %d |\n", result.Counters.ExportsModernized))
	b.WriteString(fmt.Sprintf("| Imports Modernized | %d |\n", result.Counters.ImportsFixed))
	b.WriteString(fmt.Sprintf("| Import/Export Mismatches Fixed | %d |\n", result.Counters.MismatchesFixed))
	b.WriteString(fmt.Sprintf("| Double Semicolons Fixed | %d |\n", result.Counters.DoubleSemicolonsFixed))
	b.WriteString(fmt.Sprintf("| Total Fixes | %d |\n", result.Counters.TotalFixes()))
	b.WriteString(fmt.Sprintf("| Errors | %d |\n", result.Counters.Errors))
	b.WriteString(fmt.Sprintf("| Duration | %v |\n", result.Duration))
	b.WriteString(fmt.Sprintf("| Dry Run | %t |\n\n", opts.DryRun))

	m.writeChangedFiles(&b, result.Files, opts.ProjectRoot, opts.CollapsibleSections, verbosity)
	m.writeFailures(&b, result.Failures, opts.ProjectRoot, opts.CollapsibleSections)
	m.writeStyleDecisions(&b, result.Tally, opts.ProjectRoot, opts.CollapsibleSections, verbosity)

	if data.Trends != nil {
		m.writeTrends(&b, data.Trends, opts.CollapsibleSections)
	}

	return b.String(), nil
}

func (m *MarkdownGenerator) writeChangedFiles(b *strings.Builder, files []*pipeline.FileResult, projectRoot string, collapsible bool, verbosity string) {
	b.WriteString("## Changed Files\n")
	if len(files) == 0 {
		b.WriteString("No files needed changes.\n\n")
		return
	}
	rows := make([]string, 0, len(files))
	for _, file := range files {
		if verbosity == "summary" {
			rows = append(rows, fmt.Sprintf("| `%s` | %d |\n", relPath(projectRoot, file.Path), fixCount(file)))
			continue
		}
		rows = append(rows, fmt.Sprintf(
			"| `%s` | %d | %s |\n",
			relPath(projectRoot, file.Path),
			fixCount(file),
			strings.Join(changeList(file), ", "),
		))
	}
	if verbosity == "summary" {
		m.writeTableWithCollapse(
			b,
			"Changed file details",
			collapsible,
			len(rows) > 10,
			[]string{"| File | Fixes |\n", "| --- | --- |\n"},
			rows,
		)
		return
	}
	m.writeTableWithCollapse(
		b,
		"Changed file details",
		collapsible,
		len(rows) > 10,
		[]string{"| File | Fixes | Changes |\n", "| --- | --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeFailures(b *strings.Builder, failures []pipeline.RunError, projectRoot string, collapsible bool) {
	b.WriteString("## Failed Files\n")
	if len(failures) == 0 {
		b.WriteString("No files failed.\n\n")
		return
	}
	rows := make([]string, 0, len(failures))
	for _, failure := range failures {
		rows = append(rows, fmt.Sprintf("| `%s` | %v |\n", relPath(projectRoot, failure.Path), failure.Err))
	}
	m.writeTableWithCollapse(
		b,
		"Failure details",
		collapsible,
		len(rows) > 10,
		[]string{"| File | Error |\n", "| --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeStyleDecisions(b *strings.Builder, tally project.Tally, projectRoot string, collapsible bool, verbosity string) {
	b.WriteString("## Module Style Decisions\n")
	if len(tally) == 0 {
		b.WriteString("No imported modules were tallied.\n\n")
		return
	}
	paths := util.SortedStringKeys(tally)

	rows := make([]string, 0, len(paths))
	for _, path := range paths {
		counts := tally[path]
		style, _ := tally.Decide(path)
		if verbosity == "summary" {
			rows = append(rows, fmt.Sprintf("| `%s` | %s |\n", relPath(projectRoot, path), style))
			continue
		}
		rows = append(rows, fmt.Sprintf(
			"| `%s` | %d | %d | %s |\n",
			relPath(projectRoot, path), counts.Named, counts.Default, style,
		))
	}
	if verbosity == "summary" {
		m.writeTableWithCollapse(
			b,
			"Style decision details",
			collapsible,
			len(rows) > 15,
			[]string{"| Module | Decided Style |\n", "| --- | --- |\n"},
			rows,
		)
		return
	}
	m.writeTableWithCollapse(
		b,
		"Style decision details",
		collapsible,
		len(rows) > 15,
		[]string{"| Module | Named Imports | Default Imports | Decided Style |\n", "| --- | --- | --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeTrends(b *strings.Builder, trends *history.TrendReport, collapsible bool) {
	b.WriteString("## Trends\n")
	if len(trends.Points) == 0 {
		b.WriteString("No runs recorded.\n\n")
		return
	}
	b.WriteString(fmt.Sprintf(
		"%d runs between %s and %s (window %s).\n\n",
		trends.RunCount,
		trends.Since.UTC().Format(time.RFC3339),
		trends.Until.UTC().Format(time.RFC3339),
		trends.Window,
	))
	rows := make([]string, 0, len(trends.Points))
	for _, point := range trends.Points {
		rows = append(rows, fmt.Sprintf(
			"| %s | %d | %+d | %d | %.1f%% |\n",
			point.Timestamp.UTC().Format(time.RFC3339),
			point.TotalFixes,
			point.DeltaTotalFixes,
			point.FilesChanged,
			point.FixReductionPct,
		))
	}
	m.writeTableWithCollapse(
		b,
		"Trend details",
		collapsible,
		len(rows) > 10,
		[]string{"| Timestamp | Total Fixes | Delta | Files Changed | Fix Reduction |\n", "| --- | --- | --- | --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeTableWithCollapse(
	b *strings.Builder,
	summary string,
	collapsible bool,
	collapse bool,
	header []string,
	rows []string,
) {
	if collapsible && collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapsible && collapse {
		b.WriteString("</details>\n\n")
	}
}

func relPath(root, path string) string {
	root = strings.TrimSpace(root)
	path = strings.TrimSpace(path)
	if root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func normalizeReportVerbosity(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return "summary"
	case "detailed":
		return "detailed"
	default:
		return "standard"
	}
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
