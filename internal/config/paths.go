// # internal/config/paths.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	StateDir    string
	CacheDir    string
	DBPath      string
	LogPath     string
}

// ResolvePaths turns the configured locations into absolute paths. Nothing
// is created here; callers make the directories they actually use.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.ProjectRoot)
	if projectRoot == "" || projectRoot == "." {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	} else {
		projectRoot = ResolveRelative(cwd, projectRoot)
	}

	stateDir := stateHome()

	cacheDir := strings.TrimSpace(cfg.Cache.Dir)
	if cacheDir == "" {
		var err error
		cacheDir, err = cacheHome()
		if err != nil {
			return ResolvedPaths{}, err
		}
	} else {
		cacheDir = ResolveRelative(projectRoot, cacheDir)
	}

	dbPath := strings.TrimSpace(cfg.DB.Path)
	if filepath.IsAbs(dbPath) {
		dbPath = filepath.Clean(dbPath)
	} else {
		dbPath = filepath.Join(stateDir, dbPath)
	}

	return ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		StateDir:    filepath.Clean(stateDir),
		CacheDir:    filepath.Clean(cacheDir),
		DBPath:      dbPath,
		LogPath:     filepath.Join(stateDir, "exportfix.log"),
	}, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate looking for a project
// marker, falling back to the working directory when none is found.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"package.json",
		".git",
		"exportfix.toml",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}

func stateHome() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "exportfix")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "exportfix")
	}
	return filepath.Join(os.TempDir(), "exportfix")
}

func cacheHome() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "exportfix"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "exportfix"), nil
}
