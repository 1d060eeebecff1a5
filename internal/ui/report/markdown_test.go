// # internal/ui/report/markdown_test.go
package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"exportfix/internal/data/history"
	"exportfix/internal/engine/pipeline"
	"exportfix/internal/engine/rewrite"
)

func TestMarkdownGenerator_FrontMatterAndSummary(t *testing.T) {
	gen := NewMarkdownGenerator()
	out, err := gen.Generate(
		MarkdownReportData{Result: sampleResult()},
		MarkdownReportOptions{
			ProjectName:     "webapp",
			Version:         "0.3.0",
			GeneratedAt:     time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
			TableOfContents: true,
		},
	)
	if err != nil {
		t.Fatalf("generate markdown: %v", err)
	}

	for _, want := range []string{
		"title: Export Fix Report",
		"project: webapp",
		"generated_at: 2026-08-25T10:00:00Z",
		"version: 0.3.0",
		"- [Changed Files](#changed-files)",
		"| Files Scanned | 5 |",
		"| Total Fixes | 6 |",
		"| Dry Run | false |",
		"| `src/api.js` | 3 | Removed duplicate export { getUser }",
		"## Failed Files",
		"| `src/broken.js` | unexpected token |",
		"## Module Style Decisions",
		"| `src/api.js` | 3 | 1 | named |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownGenerator_RequiresResult(t *testing.T) {
	_, err := NewMarkdownGenerator().Generate(MarkdownReportData{}, MarkdownReportOptions{})
	if err == nil {
		t.Fatal("expected error for missing run result")
	}
	if !strings.Contains(err.Error(), "requires a run result") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMarkdownGenerator_TrendsSectionOnlyWithData(t *testing.T) {
	gen := NewMarkdownGenerator()

	out, err := gen.Generate(
		MarkdownReportData{Result: sampleResult()},
		MarkdownReportOptions{TableOfContents: true},
	)
	if err != nil {
		t.Fatalf("generate markdown: %v", err)
	}
	if strings.Contains(out, "## Trends") {
		t.Fatal("expected trends section to be omitted without data")
	}
	if strings.Contains(out, "- [Trends](#trends)") {
		t.Fatal("expected trends TOC entry to be omitted without data")
	}

	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	out, err = gen.Generate(
		MarkdownReportData{
			Result: sampleResult(),
			Trends: &history.TrendReport{
				RunCount: 2,
				Since:    ts.Add(-24 * time.Hour),
				Until:    ts,
				Window:   "24h0m0s",
				Points: []history.TrendPoint{
					{Timestamp: ts, TotalFixes: 15, DeltaTotalFixes: -5, FilesChanged: 3, FixReductionPct: 25},
				},
			},
		},
		MarkdownReportOptions{TableOfContents: true},
	)
	if err != nil {
		t.Fatalf("generate markdown with trends: %v", err)
	}
	if !strings.Contains(out, "## Trends") {
		t.Fatal("expected trends section to be included")
	}
	if !strings.Contains(out, "2 runs between") {
		t.Errorf("expected trend summary line, got:\n%s", out)
	}
	if !strings.Contains(out, "| 2026-08-25T10:00:00Z | 15 | -5 | 3 | 25.0% |") {
		t.Errorf("expected trend row, got:\n%s", out)
	}
}

func TestMarkdownGenerator_SummaryVerbosityDropsChangeColumns(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(
		MarkdownReportData{Result: sampleResult()},
		MarkdownReportOptions{Verbosity: "summary"},
	)
	if err != nil {
		t.Fatalf("generate markdown: %v", err)
	}
	if !strings.Contains(out, "| `src/api.js` | 3 |\n") {
		t.Errorf("expected compact changed-file row, got:\n%s", out)
	}
	if strings.Contains(out, "Removed duplicate export") {
		t.Error("summary verbosity must not list change descriptions")
	}
}

func TestMarkdownGenerator_CollapsesLongTables(t *testing.T) {
	result := &pipeline.RunResult{}
	for i := 0; i < 12; i++ {
		result.Files = append(result.Files, &pipeline.FileResult{
			Path:            fmt.Sprintf("src/f%02d.js", i),
			Changed:         true,
			DuplicatesFixed: 1,
			Changes: []rewrite.ChangeRecord{
				{Description: "Removed duplicate export { x }", Symbol: "x"},
			},
		})
	}

	out, err := NewMarkdownGenerator().Generate(
		MarkdownReportData{Result: result},
		MarkdownReportOptions{CollapsibleSections: true},
	)
	if err != nil {
		t.Fatalf("generate markdown: %v", err)
	}
	if !strings.Contains(out, "<details>") || !strings.Contains(out, "<summary>Changed file details</summary>") {
		t.Errorf("expected collapsible changed-file table, got:\n%s", out)
	}
}

func TestRelPath(t *testing.T) {
	cases := []struct {
		root string
		path string
		want string
	}{
		{"/project", "/project/src/api.js", "src/api.js"},
		{"", "/abs/file.js", "/abs/file.js"},
		{"/project", "", ""},
	}
	for _, tc := range cases {
		if got := relPath(tc.root, tc.path); got != tc.want {
			t.Errorf("relPath(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
		}
	}
}
