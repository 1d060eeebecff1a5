// # internal/engine/project/tally.go
package project

import (
	"path/filepath"
	"strings"

	"exportfix/internal/engine/scanner"
)

// Style is the export style a module's importers collectively expect.
type Style int

const (
	StyleNamed Style = iota
	StyleDefault
)

func (s Style) String() string {
	if s == StyleDefault {
		return "default"
	}
	return "named"
}

// Counts tallies how a module is imported across the whole run. Each import
// record counts once, so a two-name import list counts twice.
type Counts struct {
	Named   int
	Default int
}

// Tally maps resolved module paths to their import counts. It is computed
// once from the pre-run snapshot and frozen; later rewrites never feed back
// into it.
type Tally map[string]Counts

// BuildTally folds every snapshot's import records into one project-wide
// tally. Only relative specifiers participate; package imports resolve to
// nothing on disk.
func BuildTally(snapshots []*scanner.FileScan, defaultExt string) Tally {
	tally := make(Tally)
	for _, scan := range snapshots {
		for _, imp := range scan.Imports {
			resolved, ok := ResolveSpecifier(scan.Path, imp.Module, defaultExt)
			if !ok {
				continue
			}
			c := tally[resolved]
			if imp.Kind == scanner.ImportNamed {
				c.Named++
			} else {
				c.Default++
			}
			tally[resolved] = c
		}
	}
	return tally
}

// Decide returns the expected style for a module path. Named wins only when
// strictly more importers use it; any default usage otherwise decides
// default. The second return is false for modules nobody imports.
func (t Tally) Decide(path string) (Style, bool) {
	c, ok := t[filepath.Clean(path)]
	if !ok {
		return StyleNamed, false
	}
	if c.Named > c.Default {
		return StyleNamed, true
	}
	if c.Default > 0 {
		return StyleDefault, true
	}
	return StyleNamed, true
}

// ResolveSpecifier resolves a relative import specifier against the
// importing file's directory, appending the default extension when the
// specifier has none. Bare package specifiers return false.
func ResolveSpecifier(importerPath, spec, defaultExt string) (string, bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return "", false
	}
	resolved := filepath.Join(filepath.Dir(importerPath), spec)
	if filepath.Ext(resolved) == "" {
		resolved += defaultExt
	}
	return resolved, true
}
