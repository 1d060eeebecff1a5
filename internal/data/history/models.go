package history

import "time"

const SchemaVersion = 2

// Run is one persisted fix-run outcome.
type Run struct {
	ProjectKey            string    `json:"project_key,omitempty"`
	SchemaVersion         int       `json:"schema_version"`
	RunID                 string    `json:"run_id"`
	Timestamp             time.Time `json:"timestamp"`
	CommitHash            string    `json:"commit_hash,omitempty"`
	CommitTimestamp       time.Time `json:"commit_timestamp,omitempty"`
	DryRun                bool      `json:"dry_run"`
	FilesScanned          int       `json:"files_scanned"`
	FilesChanged          int       `json:"files_changed"`
	DuplicatesFixed       int       `json:"duplicates_fixed"`
	ExportsModernized     int       `json:"exports_modernized"`
	ImportsFixed          int       `json:"imports_fixed"`
	MismatchesFixed       int       `json:"mismatches_fixed"`
	DoubleSemicolonsFixed int       `json:"double_semicolons_fixed"`
	TotalFixes            int       `json:"total_fixes"`
	ErrorCount            int       `json:"error_count"`
	DurationMS            int64     `json:"duration_ms"`
}

type TrendPoint struct {
	Timestamp             time.Time `json:"timestamp"`
	RunID                 string    `json:"run_id"`
	CommitHash            string    `json:"commit_hash,omitempty"`
	FilesScanned          int       `json:"files_scanned"`
	FilesChanged          int       `json:"files_changed"`
	DuplicatesFixed       int       `json:"duplicates_fixed"`
	ExportsModernized     int       `json:"exports_modernized"`
	ImportsFixed          int       `json:"imports_fixed"`
	MismatchesFixed       int       `json:"mismatches_fixed"`
	DoubleSemicolonsFixed int       `json:"double_semicolons_fixed"`
	TotalFixes            int       `json:"total_fixes"`
	ErrorCount            int       `json:"error_count"`
	DeltaFilesScanned     int       `json:"delta_files_scanned"`
	DeltaFilesChanged     int       `json:"delta_files_changed"`
	DeltaDuplicates       int       `json:"delta_duplicates"`
	DeltaExports          int       `json:"delta_exports"`
	DeltaImports          int       `json:"delta_imports"`
	DeltaMismatches       int       `json:"delta_mismatches"`
	DeltaTotalFixes       int       `json:"delta_total_fixes"`
	// FixReductionPct is how far the total fix count fell since the
	// previous run, as a percentage of that run's total.
	FixReductionPct float64 `json:"fix_reduction_pct"`
	AvgTotalFixes   float64 `json:"avg_total_fixes"`
	AvgFilesChanged float64 `json:"avg_files_changed"`
	WindowHours     float64 `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	ProjectKey    string       `json:"project_key"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
