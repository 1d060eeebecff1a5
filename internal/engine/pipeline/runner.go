// # internal/engine/pipeline/runner.go
package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"exportfix/internal/core/errors"
	"exportfix/internal/engine/project"
	"exportfix/internal/engine/scanner"
	"exportfix/internal/shared/observability"
)

// RunError records a file the run had to skip.
type RunError struct {
	Path string
	Err  error
}

// RunResult is the outcome of one whole-tree run.
type RunResult struct {
	Counters Counters
	// Files holds the per-file results that produced changes, in scan
	// order. Unchanged files are counted but not listed.
	Files    []*FileResult
	Failures []RunError
	Tally    project.Tally
	Duration time.Duration
}

// ScanCache serves scan results for unchanged file content.
// Implementations must return a scan equivalent to rescanning the same
// bytes at the same path.
type ScanCache interface {
	Get(path string, content []byte) (*scanner.FileScan, bool, error)
	Put(scan *scanner.FileScan) error
}

// Runner executes the two-phase run: snapshot every file and build the
// import tally from that frozen view, then rewrite each file against it.
// Rewrites during phase two never feed back into the tally.
type Runner struct {
	engine *Engine
	cache  ScanCache
}

// NewRunner wires the engine and an optional scan cache. A nil cache
// scans every file fresh.
func NewRunner(engine *Engine, cache ScanCache) *Runner {
	return &Runner{engine: engine, cache: cache}
}

// Run processes paths in order and returns aggregate counters plus the
// changed files. Per-file failures are recorded and skipped; Run only
// returns an error when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, paths []string) (*RunResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "runner.Run",
		trace.WithAttributes(attribute.Int("files.requested", len(paths))))
	defer span.End()

	started := time.Now()
	result := &RunResult{}

	snapshots := r.snapshot(ctx, paths, result)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if !r.engine.opts.DuplicatesOnly {
		result.Tally = project.BuildTally(snapshots, r.engine.opts.DefaultExt)
	}

	for _, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := r.engine.FixFile(snap.Path, snap.Source, result.Tally)
		if err != nil {
			r.fail(result, snap.Path, err)
			continue
		}
		if !res.Changed {
			continue
		}

		if !r.engine.opts.DryRun {
			if err := writeFile(snap.Path, res.Output); err != nil {
				r.fail(result, snap.Path, err)
				continue
			}
		}

		result.Counters.FilesChanged++
		result.Counters.add(res)
		result.Files = append(result.Files, res)
		recordFixMetrics(res)
	}

	result.Duration = time.Since(started)
	span.SetAttributes(
		attribute.Int("files.changed", result.Counters.FilesChanged),
		attribute.Int("fixes.total", result.Counters.TotalFixes()))
	observability.RunsTotal.Inc()
	observability.RunDuration.Observe(result.Duration.Seconds())
	observability.FilesChangedTotal.Add(float64(result.Counters.FilesChanged))
	return result, nil
}

// snapshot reads and scans every path before any rewriting starts, so the
// tally reflects the tree as it was at the start of the run.
func (r *Runner) snapshot(ctx context.Context, paths []string, result *RunResult) []*scanner.FileScan {
	ctx, span := observability.Tracer.Start(ctx, "runner.snapshot")
	defer span.End()

	snapshots := make([]*scanner.FileScan, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			return snapshots
		}

		result.Counters.FilesScanned++
		observability.FilesScannedTotal.Inc()

		content, err := os.ReadFile(path)
		if err != nil {
			r.fail(result, path, errors.Wrap(err, errors.CodeIOFailure, "read failed"))
			continue
		}

		scan, ok := r.cachedScan(path, content)
		if !ok {
			scanStart := time.Now()
			scan, err = r.engine.scanner.ScanFile(path, content)
			if err != nil {
				r.fail(result, path, err)
				continue
			}
			observability.ScanDuration.WithLabelValues(scan.Language).Observe(time.Since(scanStart).Seconds())
			r.storeScan(scan)
		}

		snapshots = append(snapshots, scan)
	}
	return snapshots
}

// cachedScan serves path from the cache when one is wired. Cache read
// failures degrade to a fresh scan.
func (r *Runner) cachedScan(path string, content []byte) (*scanner.FileScan, bool) {
	if r.cache == nil {
		return nil, false
	}
	scan, ok, err := r.cache.Get(path, content)
	if err != nil {
		slog.Warn("scan cache read failed", "path", path, "error", err)
		return nil, false
	}
	return scan, ok
}

func (r *Runner) storeScan(scan *scanner.FileScan) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(scan); err != nil {
		slog.Warn("scan cache write failed", "path", scan.Path, "error", err)
	}
}

func (r *Runner) fail(result *RunResult, path string, err error) {
	result.Counters.Errors++
	observability.RunErrorsTotal.Inc()
	result.Failures = append(result.Failures, RunError{Path: path, Err: err})
	slog.Warn("failed to process file", "path", path, "error", err)
}

func recordFixMetrics(res *FileResult) {
	categories := []struct {
		name  string
		count int
	}{
		{observability.FixDuplicate, res.DuplicatesFixed},
		{observability.FixExport, res.ExportsModernized},
		{observability.FixImport, res.ImportsFixed},
		{observability.FixMismatch, res.MismatchesFixed},
		{observability.FixTerminator, res.DoubleSemicolonsFixed},
	}
	for _, c := range categories {
		if c.count > 0 {
			observability.FixesAppliedTotal.WithLabelValues(c.name).Add(float64(c.count))
		}
	}
}

// writeFile rewrites path in place, keeping its existing permissions.
func writeFile(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return errors.Wrap(err, errors.CodeIOFailure, "write failed")
	}
	return nil
}
