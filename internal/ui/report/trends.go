package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"exportfix/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRunID\tCommit\tFilesScanned\tFilesChanged\tDuplicates\tExports\tImports\tMismatches\tDoubleSemicolons\tTotalFixes\tErrors\tDeltaFilesScanned\tDeltaFilesChanged\tDeltaDuplicates\tDeltaExports\tDeltaImports\tDeltaMismatches\tDeltaTotalFixes\tFixReductionPct\tAvgTotalFixes\tAvgFilesChanged\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.CommitHash,
			point.FilesScanned,
			point.FilesChanged,
			point.DuplicatesFixed,
			point.ExportsModernized,
			point.ImportsFixed,
			point.MismatchesFixed,
			point.DoubleSemicolonsFixed,
			point.TotalFixes,
			point.ErrorCount,
			point.DeltaFilesScanned,
			point.DeltaFilesChanged,
			point.DeltaDuplicates,
			point.DeltaExports,
			point.DeltaImports,
			point.DeltaMismatches,
			point.DeltaTotalFixes,
			point.FixReductionPct,
			point.AvgTotalFixes,
			point.AvgFilesChanged,
			point.WindowHours,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
