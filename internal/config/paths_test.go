package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRelative(t *testing.T) {
	if got := ResolveRelative("/base", "sub/dir"); got != filepath.Clean("/base/sub/dir") {
		t.Errorf("relative: got %q", got)
	}
	if got := ResolveRelative("/base", "/abs/dir"); got != filepath.Clean("/abs/dir") {
		t.Errorf("absolute: got %q", got)
	}
	if got := ResolveRelative("/base", "  "); got != filepath.Clean("/base") {
		t.Errorf("blank: got %q", got)
	}
}

func TestDetectProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "components")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot([]string{nested})
	if err != nil {
		t.Fatalf("DetectProjectRoot: %v", err)
	}
	if got != filepath.Clean(root) {
		t.Errorf("Expected %q, got %q", root, got)
	}
}

func TestResolvePaths(t *testing.T) {
	state := t.TempDir()
	cache := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	t.Setenv("XDG_CACHE_HOME", cache)

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	resolved, err := ResolvePaths(cfg, project)
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}

	if resolved.ProjectRoot != filepath.Clean(project) {
		t.Errorf("ProjectRoot = %q", resolved.ProjectRoot)
	}
	if resolved.StateDir != filepath.Join(state, "exportfix") {
		t.Errorf("StateDir = %q", resolved.StateDir)
	}
	if resolved.CacheDir != filepath.Join(cache, "exportfix") {
		t.Errorf("CacheDir = %q", resolved.CacheDir)
	}
	if resolved.DBPath != filepath.Join(state, "exportfix", "exportfix.db") {
		t.Errorf("DBPath = %q", resolved.DBPath)
	}
	if resolved.LogPath != filepath.Join(state, "exportfix", "exportfix.log") {
		t.Errorf("LogPath = %q", resolved.LogPath)
	}
}

func TestResolvePathsCacheOverride(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Cache.Dir = ".cache-local"
	resolved, err := ResolvePaths(cfg, project)
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if resolved.CacheDir != filepath.Join(filepath.Clean(project), ".cache-local") {
		t.Errorf("CacheDir = %q", resolved.CacheDir)
	}
}
