// # internal/ui/report/table.go
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"exportfix/internal/engine/pipeline"
)

// RenderChangeTable renders the changed files as an aligned text table,
// one row per file, with fix totals in the footer.
func RenderChangeTable(result *pipeline.RunResult) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"File", "Fixes", "Changes"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	for _, file := range result.Files {
		table.Append([]string{
			file.Path,
			fmt.Sprintf("%d", fixCount(file)),
			strings.Join(changeList(file), ", "),
		})
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", result.Counters.TotalFixes()),
		fmt.Sprintf("%d files changed", result.Counters.FilesChanged),
	})
	table.Render()
	return buf.String()
}

func fixCount(file *pipeline.FileResult) int {
	return file.DuplicatesFixed +
		file.ExportsModernized +
		file.ImportsFixed +
		file.MismatchesFixed +
		file.DoubleSemicolonsFixed
}

func changeList(file *pipeline.FileResult) []string {
	out := make([]string, 0, len(file.Changes))
	for _, change := range file.Changes {
		out = append(out, change.Description)
	}
	return out
}
