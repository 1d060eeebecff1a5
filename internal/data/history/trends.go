package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport derives per-run deltas and moving averages from runs,
// which must be ordered oldest first. The window bounds the moving
// averages; a non-positive window degenerates to the current run alone.
func BuildTrendReport(projectKey string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			Timestamp:             current.Timestamp,
			RunID:                 current.RunID,
			CommitHash:            current.CommitHash,
			FilesScanned:          current.FilesScanned,
			FilesChanged:          current.FilesChanged,
			DuplicatesFixed:       current.DuplicatesFixed,
			ExportsModernized:     current.ExportsModernized,
			ImportsFixed:          current.ImportsFixed,
			MismatchesFixed:       current.MismatchesFixed,
			DoubleSemicolonsFixed: current.DoubleSemicolonsFixed,
			TotalFixes:            current.TotalFixes,
			ErrorCount:            current.ErrorCount,
		}

		if i > 0 {
			prev := runs[i-1]
			point.DeltaFilesScanned = current.FilesScanned - prev.FilesScanned
			point.DeltaFilesChanged = current.FilesChanged - prev.FilesChanged
			point.DeltaDuplicates = current.DuplicatesFixed - prev.DuplicatesFixed
			point.DeltaExports = current.ExportsModernized - prev.ExportsModernized
			point.DeltaImports = current.ImportsFixed - prev.ImportsFixed
			point.DeltaMismatches = current.MismatchesFixed - prev.MismatchesFixed
			point.DeltaTotalFixes = current.TotalFixes - prev.TotalFixes
			if prev.TotalFixes > 0 {
				point.FixReductionPct = (float64(prev.TotalFixes-current.TotalFixes) / float64(prev.TotalFixes)) * 100
			}
		}

		avgFixes, avgChanged := movingAverages(runs, i, window)
		point.AvgTotalFixes = round2(avgFixes)
		point.AvgFilesChanged = round2(avgChanged)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		ProjectKey:    projectKey,
		Since:         runs[0].Timestamp,
		Until:         runs[len(runs)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverages(runs []Run, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(runs[index].TotalFixes), float64(runs[index].FilesChanged)
	}

	cutoff := runs[index].Timestamp.Add(-window)
	var fixesTotal int
	var changedTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		fixesTotal += runs[i].TotalFixes
		changedTotal += runs[i].FilesChanged
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(fixesTotal) / float64(count), float64(changedTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
