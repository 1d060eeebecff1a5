// # internal/ui/report/console.go
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"exportfix/internal/engine/pipeline"
	"exportfix/internal/engine/project"
	"exportfix/internal/shared/util"
)

// ConsoleOptions mirror the run flags that shape the banner and the
// results block.
type ConsoleOptions struct {
	DryRun         bool
	DuplicatesOnly bool
	Verbose        bool
	Beep           bool
}

// ConsoleReporter prints the banner, progress lines, and results block in
// the voice the original fixer scripts used.
type ConsoleReporter struct {
	w    io.Writer
	opts ConsoleOptions
}

func NewConsoleReporter(w io.Writer, opts ConsoleOptions) *ConsoleReporter {
	return &ConsoleReporter{w: w, opts: opts}
}

// PrintBanner announces the run before any file is touched.
func (c *ConsoleReporter) PrintBanner() {
	fmt.Fprintln(c.w, "🚀 MODERN Import/Export Fixer - IMPROVED VERSION")
	fmt.Fprintln(c.w, "===============================================")
	fmt.Fprintln(c.w, "Fixes duplicate exports and modernizes to named exports!")
	if c.opts.DryRun {
		fmt.Fprintln(c.w, "🔍 DRY RUN - No files will be changed")
	}
	if c.opts.DuplicatesOnly {
		fmt.Fprintln(c.w, "🔧 DUPLICATE FIX MODE - Only fixing duplicate exports")
	}
}

// PrintDiscovery reports how many files the walk found.
func (c *ConsoleReporter) PrintDiscovery(fileCount int) {
	fmt.Fprintf(c.w, "\n📊 Found %d JavaScript files\n", fileCount)
}

// PrintAnalysis reports the cross-file style tally. Per-module decisions
// only show up in verbose mode.
func (c *ConsoleReporter) PrintAnalysis(tally project.Tally) {
	fmt.Fprintln(c.w, "Analyzing import/export relationships...")
	if c.opts.Verbose {
		for _, path := range util.SortedStringKeys(tally) {
			counts := tally[path]
			style, _ := tally.Decide(path)
			fmt.Fprintf(c.w, "  File %s: Named imports: %d, Default imports: %d -> %s\n",
				path, counts.Named, counts.Default, style)
		}
	}
	fmt.Fprintf(c.w, "Analyzed %d module relationships\n", len(tally))
}

// PrintSummary writes the per-file change lines followed by the results
// block and the closing verdict.
func (c *ConsoleReporter) PrintSummary(result *pipeline.RunResult) {
	for _, file := range result.Files {
		fmt.Fprintf(c.w, "  ✅ %s: %s\n", filepath.Base(file.Path), strings.Join(changeList(file), ", "))
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(c.w, "  ❌ Error processing %s: %v\n", filepath.Base(failure.Path), failure.Err)
	}

	counters := result.Counters
	fmt.Fprintln(c.w, "\n📊 RESULTS")
	fmt.Fprintln(c.w, "============")
	fmt.Fprintf(c.w, "Files scanned: %d\n", counters.FilesScanned)
	fmt.Fprintf(c.w, "Files changed: %d\n", counters.FilesChanged)
	fmt.Fprintf(c.w, "Duplicate exports fixed: %d\n", counters.DuplicatesFixed)
	if !c.opts.DuplicatesOnly {
		fmt.Fprintf(c.w, "Exports modernized: %d\n", counters.ExportsModernized)
		fmt.Fprintf(c.w, "Imports modernized: %d\n", counters.ImportsFixed)
		fmt.Fprintf(c.w, "Import/export mismatches fixed: %d\n", counters.MismatchesFixed)
	}
	fmt.Fprintf(c.w, "Double semicolons fixed: %d\n", counters.DoubleSemicolonsFixed)
	if counters.Errors > 0 {
		fmt.Fprintf(c.w, "Errors encountered: %d\n", counters.Errors)
		fmt.Fprintln(c.w, "Failed files:")
		for _, failure := range result.Failures {
			fmt.Fprintf(c.w, "  - %s: %v\n", failure.Path, failure.Err)
		}
	}

	total := counters.TotalFixes()
	fmt.Fprintf(c.w, "\n🎯 TOTAL %d FIXES APPLIED!\n", total)
	if c.opts.Beep && (total > 0 || counters.Errors > 0) {
		fmt.Fprint(c.w, "\a")
	}

	if c.opts.DryRun {
		fmt.Fprintln(c.w, "\n🔍 DRY RUN - No files were changed")
		fmt.Fprintln(c.w, "Run without --dry-run to apply changes")
		return
	}
	fmt.Fprintln(c.w, "\n✅ CODEBASE FIXED!")
	if c.opts.DuplicatesOnly {
		fmt.Fprintln(c.w, "🎉 Duplicate exports have been cleaned up!")
		fmt.Fprintln(c.w, "\nRun without --fix-duplicates-only to also modernize exports")
		return
	}
	fmt.Fprintln(c.w, "🎉 Exports modernized and duplicates fixed!")
}
