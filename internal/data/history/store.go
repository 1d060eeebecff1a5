package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"exportfix/internal/shared/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	defaultBusyTimeout = 2 * time.Second
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the run history database at path. A non-positive
// busyTimeout falls back to two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists one run outcome. Missing fields are defaulted: the run
// id gets a fresh UUID, the timestamp the current UTC time, the project
// key "default", and the fix total the sum of the category counters.
// Saving the same (project key, run id) pair again overwrites the row.
func (s *Store) SaveRun(projectKey string, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	defer func() {
		observability.HistoryWriteDuration.Observe(time.Since(started).Seconds())
	}()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	run.RunID = strings.TrimSpace(run.RunID)
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}
	if run.TotalFixes == 0 {
		run.TotalFixes = run.DuplicatesFixed + run.ExportsModernized + run.ImportsFixed +
			run.MismatchesFixed + run.DoubleSemicolonsFixed
	}

	commitTS := ""
	if !run.CommitTimestamp.IsZero() {
		commitTS = run.CommitTimestamp.UTC().Format(time.RFC3339Nano)
	}

	query := `
INSERT INTO runs (
  project_key, schema_version, run_id, ts_utc, commit_hash, commit_ts_utc,
  files_scanned, files_changed, duplicates_fixed, exports_modernized, imports_fixed,
  mismatches_fixed, double_semicolons_fixed, total_fixes, error_count, dry_run, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, run_id) DO UPDATE SET
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  commit_hash=excluded.commit_hash,
  commit_ts_utc=excluded.commit_ts_utc,
  files_scanned=excluded.files_scanned,
  files_changed=excluded.files_changed,
  duplicates_fixed=excluded.duplicates_fixed,
  exports_modernized=excluded.exports_modernized,
  imports_fixed=excluded.imports_fixed,
  mismatches_fixed=excluded.mismatches_fixed,
  double_semicolons_fixed=excluded.double_semicolons_fixed,
  total_fixes=excluded.total_fixes,
  error_count=excluded.error_count,
  dry_run=excluded.dry_run,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(
			query,
			projectKey,
			run.SchemaVersion,
			run.RunID,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.CommitHash,
			commitTS,
			run.FilesScanned,
			run.FilesChanged,
			run.DuplicatesFixed,
			run.ExportsModernized,
			run.ImportsFixed,
			run.MismatchesFixed,
			run.DoubleSemicolonsFixed,
			run.TotalFixes,
			run.ErrorCount,
			run.DryRun,
			run.DurationMS,
		)
		return err
	})
}

// LoadRuns returns the runs recorded for projectKey ordered oldest first.
// A zero since loads the full history.
func (s *Store) LoadRuns(projectKey string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	query := `
SELECT
  project_key, schema_version, run_id, ts_utc, commit_hash, commit_ts_utc,
  files_scanned, files_changed, duplicates_fixed, exports_modernized, imports_fixed,
  mismatches_fixed, double_semicolons_fixed, total_fixes, error_count, dry_run, duration_ms
FROM runs
`
	query += " WHERE project_key = ?"
	args := make([]any, 0, 2)
	args = append(args, projectKey)
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw       string
			commitTSRaw string
			run         Run
		)
		if err := rows.Scan(
			&run.ProjectKey,
			&run.SchemaVersion,
			&run.RunID,
			&tsRaw,
			&run.CommitHash,
			&commitTSRaw,
			&run.FilesScanned,
			&run.FilesChanged,
			&run.DuplicatesFixed,
			&run.ExportsModernized,
			&run.ImportsFixed,
			&run.MismatchesFixed,
			&run.DoubleSemicolonsFixed,
			&run.TotalFixes,
			&run.ErrorCount,
			&run.DryRun,
			&run.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()

		if commitTSRaw != "" {
			commitTS, err := time.Parse(time.RFC3339Nano, commitTSRaw)
			if err != nil {
				return nil, fmt.Errorf("parse commit timestamp %q: %w", commitTSRaw, err)
			}
			run.CommitTimestamp = commitTS.UTC()
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
