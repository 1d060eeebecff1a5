// # internal/engine/pipeline/pipeline.go
package pipeline

import (
	"bytes"

	"exportfix/internal/engine/dedup"
	"exportfix/internal/engine/project"
	"exportfix/internal/engine/rewrite"
	"exportfix/internal/engine/scanner"
	"exportfix/internal/engine/style"
)

type Options struct {
	// DryRun plans and reports rewrites without writing them back.
	DryRun bool
	// DuplicatesOnly stops the per-file pipeline after duplicate
	// resolution; style and cross-file passes are skipped.
	DuplicatesOnly bool
	// DefaultExt is appended to extensionless import specifiers when
	// resolving them against the scanned tree. Defaults to ".js".
	DefaultExt string
	Policy     style.Policy
}

// Counters aggregates fix totals across a run.
type Counters struct {
	FilesScanned          int
	FilesChanged          int
	DuplicatesFixed       int
	ExportsModernized     int
	ImportsFixed          int
	MismatchesFixed       int
	DoubleSemicolonsFixed int
	Errors                int
}

// TotalFixes sums every applied fix category.
func (c Counters) TotalFixes() int {
	return c.DuplicatesFixed +
		c.ExportsModernized +
		c.ImportsFixed +
		c.MismatchesFixed +
		c.DoubleSemicolonsFixed
}

func (c *Counters) add(res *FileResult) {
	c.DuplicatesFixed += res.DuplicatesFixed
	c.ExportsModernized += res.ExportsModernized
	c.ImportsFixed += res.ImportsFixed
	c.MismatchesFixed += res.MismatchesFixed
	c.DoubleSemicolonsFixed += res.DoubleSemicolonsFixed
}

// FileResult is the outcome of running the full per-file pipeline over one
// source file.
type FileResult struct {
	Path    string
	Changed bool
	Output  []byte
	Changes []rewrite.ChangeRecord

	DuplicatesFixed       int
	ExportsModernized     int
	ImportsFixed          int
	MismatchesFixed       int
	DoubleSemicolonsFixed int
}

// Engine runs the per-file fix pipeline: duplicate resolution, export and
// import style normalization, cross-file reconciliation, then terminator
// cleanup. Each phase rescans the buffer produced by the previous one so
// spans always describe the text being edited.
type Engine struct {
	scanner    *scanner.Scanner
	resolver   *dedup.Resolver
	classifier *style.Classifier
	opts       Options
}

func NewEngine(sc *scanner.Scanner, opts Options) *Engine {
	if opts.DefaultExt == "" {
		opts.DefaultExt = ".js"
	}
	return &Engine{
		scanner:    sc,
		resolver:   dedup.NewResolver(sc.ScanFile),
		classifier: style.NewClassifier(opts.Policy),
		opts:       opts,
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

// FixFile runs every enabled phase over content and returns the rewritten
// text with its change records. The file on disk is never touched here.
// The cross-file pass only runs when tally holds a decision for path.
func (e *Engine) FixFile(path string, content []byte, tally project.Tally) (*FileResult, error) {
	res := &FileResult{Path: path}

	buf, records, err := e.resolver.Resolve(path, content)
	if err != nil {
		return nil, err
	}
	res.DuplicatesFixed = len(records)
	res.Changes = append(res.Changes, records...)

	if !e.opts.DuplicatesOnly {
		buf, records, err = e.applyPlan(path, buf, e.classifier.PlanExports)
		if err != nil {
			return nil, err
		}
		res.ExportsModernized = len(records)
		res.Changes = append(res.Changes, records...)

		buf, records, err = e.applyPlan(path, buf, e.classifier.PlanImports)
		if err != nil {
			return nil, err
		}
		res.ImportsFixed = len(records)
		res.Changes = append(res.Changes, records...)

		if decided, ok := tally.Decide(path); ok {
			buf, records, err = e.applyPlan(path, buf, func(scan *scanner.FileScan) []rewrite.Edit {
				return project.Reconcile(scan, decided, e.opts.Policy)
			})
			if err != nil {
				return nil, err
			}
			res.MismatchesFixed = len(records)
			res.Changes = append(res.Changes, records...)
		}
	}

	out, collapsed := rewrite.CollapseTerminators(buf)
	if collapsed {
		res.DoubleSemicolonsFixed = 1
		res.Changes = append(res.Changes, rewrite.ChangeRecord{Description: "Double semicolons fixed"})
	}

	res.Output = out
	res.Changed = !bytes.Equal(out, content)
	return res, nil
}

// applyPlan rescans content, plans edits against the fresh scan, and
// applies them. Content comes back unchanged when the plan is empty.
func (e *Engine) applyPlan(path string, content []byte, plan func(*scanner.FileScan) []rewrite.Edit) ([]byte, []rewrite.ChangeRecord, error) {
	scan, err := e.scanner.ScanFile(path, content)
	if err != nil {
		return nil, nil, err
	}
	edits := plan(scan)
	if len(edits) == 0 {
		return content, nil, nil
	}
	buffer := rewrite.NewBuffer(content)
	records := buffer.Apply(edits)
	return buffer.Bytes(), records, nil
}
