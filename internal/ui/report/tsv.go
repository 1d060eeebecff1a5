// # internal/ui/report/tsv.go
package report

import (
	"fmt"
	"strings"

	"exportfix/internal/engine/pipeline"
)

// TSVGenerator renders run results for spreadsheet ingestion.
type TSVGenerator struct{}

func NewTSVGenerator() *TSVGenerator {
	return &TSVGenerator{}
}

// GenerateChanges writes one row per applied change.
func (g *TSVGenerator) GenerateChanges(result *pipeline.RunResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("tsv report requires a run result")
	}
	var buf strings.Builder
	buf.WriteString("File\tSymbol\tChange\n")
	for _, file := range result.Files {
		for _, change := range file.Changes {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\n", file.Path, change.Symbol, change.Description))
		}
	}
	return buf.String(), nil
}

// GenerateFailures writes one row per skipped file.
func (g *TSVGenerator) GenerateFailures(result *pipeline.RunResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("tsv report requires a run result")
	}
	var buf strings.Builder
	buf.WriteString("File\tError\n")
	for _, failure := range result.Failures {
		buf.WriteString(fmt.Sprintf("%s\t%v\n", failure.Path, failure.Err))
	}
	return buf.String(), nil
}
