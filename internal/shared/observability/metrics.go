package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exportfix_scan_seconds",
		Help:    "Time spent scanning a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exportfix_run_seconds",
		Help:    "Wall time for a full normalization run.",
		Buckets: prometheus.DefBuckets,
	})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_runs_total",
		Help: "Total number of completed normalization runs.",
	})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_files_scanned_total",
		Help: "Total number of files scanned across runs.",
	})

	FilesChangedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_files_changed_total",
		Help: "Total number of files rewritten across runs.",
	})

	FixesAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exportfix_fixes_total",
		Help: "Total number of fixes applied, by category.",
	}, []string{"category"})

	RunErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_run_errors_total",
		Help: "Total number of per-file errors encountered during runs.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_cache_hits_total",
		Help: "Total number of scan cache hits.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exportfix_cache_misses_total",
		Help: "Total number of scan cache misses.",
	})

	HistoryWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exportfix_history_write_seconds",
		Help:    "Latency for persisting a run snapshot.",
		Buckets: prometheus.DefBuckets,
	})
)

// Fix categories used as label values on FixesAppliedTotal.
const (
	FixDuplicate  = "duplicate"
	FixExport     = "export"
	FixImport     = "import"
	FixMismatch   = "mismatch"
	FixTerminator = "terminator"
)
