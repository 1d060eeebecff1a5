package history

import (
	"bytes"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"exportfix/internal/engine/pipeline"
)

// Recorder bridges run results to the history store, stamping each run
// with a fresh id and whatever git metadata the project root yields.
type Recorder struct {
	store       *Store
	projectKey  string
	projectRoot string
}

func NewRecorder(store *Store, projectKey, projectRoot string) *Recorder {
	return &Recorder{store: store, projectKey: projectKey, projectRoot: projectRoot}
}

// Record persists the outcome of one run and returns the row as saved.
func (r *Recorder) Record(result *pipeline.RunResult, dryRun bool) (Run, error) {
	run := NewRun(result, dryRun)
	run.RunID = uuid.NewString()
	run.CommitHash, run.CommitTimestamp = ResolveGitMetadata(r.projectRoot)
	if err := r.store.SaveRun(r.projectKey, run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// NewRun flattens a run result into a history row without assigning a
// run id.
func NewRun(result *pipeline.RunResult, dryRun bool) Run {
	c := result.Counters
	return Run{
		SchemaVersion:         SchemaVersion,
		Timestamp:             time.Now().UTC(),
		DryRun:                dryRun,
		FilesScanned:          c.FilesScanned,
		FilesChanged:          c.FilesChanged,
		DuplicatesFixed:       c.DuplicatesFixed,
		ExportsModernized:     c.ExportsModernized,
		ImportsFixed:          c.ImportsFixed,
		MismatchesFixed:       c.MismatchesFixed,
		DoubleSemicolonsFixed: c.DoubleSemicolonsFixed,
		TotalFixes:            c.TotalFixes(),
		ErrorCount:            c.Errors,
		DurationMS:            result.Duration.Milliseconds(),
	}
}

// ResolveGitMetadata reports the short commit hash and commit time of
// HEAD, or zero values when projectRoot is not a git checkout.
func ResolveGitMetadata(projectRoot string) (string, time.Time) {
	commitHash := runGit(projectRoot, "rev-parse", "--short=12", "HEAD")
	commitTimeRaw := runGit(projectRoot, "show", "-s", "--format=%cI", "HEAD")
	if commitHash == "" || commitTimeRaw == "" {
		return "", time.Time{}
	}

	commitTime, err := time.Parse(time.RFC3339, commitTimeRaw)
	if err != nil {
		return commitHash, time.Time{}
	}
	return commitHash, commitTime.UTC()
}

func runGit(projectRoot string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", projectRoot}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
