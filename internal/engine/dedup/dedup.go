// # internal/engine/dedup/dedup.go
package dedup

import (
	"fmt"
	"sort"
	"strings"

	"exportfix/internal/engine/rewrite"
	"exportfix/internal/engine/scanner"
)

// ScanFunc re-scans a buffer. The resolver works one conflicted symbol at a
// time against a fresh scan, so spans never go stale while the buffer
// shrinks under it.
type ScanFunc func(path string, content []byte) (*scanner.FileScan, error)

// Resolver removes duplicate export declarations. For every symbol exported
// more than once exactly one declaration is retained: the highest-priority
// kind (class > function > const > destructured > default), first occurrence
// in scan order among equals.
type Resolver struct {
	scan ScanFunc
}

func NewResolver(scan ScanFunc) *Resolver {
	return &Resolver{scan: scan}
}

// Resolve returns content with duplicate exports removed, plus one change
// record per removal. Anonymous default exports and bare classes are never
// conflict participants.
func (r *Resolver) Resolve(path string, content []byte) ([]byte, []rewrite.ChangeRecord, error) {
	scan, err := r.scan(path, content)
	if err != nil {
		return content, nil, err
	}
	symbols := conflictedSymbols(scan)
	if len(symbols) == 0 {
		return content, nil, nil
	}

	buf := content
	var records []rewrite.ChangeRecord
	for i, symbol := range symbols {
		if i > 0 {
			scan, err = r.scan(path, buf)
			if err != nil {
				return content, nil, err
			}
		}
		edits := removalEdits(scan, symbol)
		if len(edits) == 0 {
			continue
		}
		b := rewrite.NewBuffer(buf)
		records = append(records, b.Apply(edits)...)
		buf = b.Bytes()
	}

	buf, _ = rewrite.CollapseTerminators(buf)
	buf, _ = rewrite.CollapseBlankRuns(buf)
	return buf, records, nil
}

// Priority ranks duplicate-export kinds; lower wins the retention contest.
func Priority(kind scanner.DeclKind) int {
	switch kind {
	case scanner.KindClass:
		return 0
	case scanner.KindFunction:
		return 1
	case scanner.KindConst:
		return 2
	case scanner.KindDestructured:
		return 3
	case scanner.KindDefault:
		return 4
	}
	return 5
}

func conflictedSymbols(scan *scanner.FileScan) []string {
	var symbols []string
	for _, symbol := range scan.Exports.Symbols() {
		if len(exportDecls(scan, symbol)) > 1 {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

func exportDecls(scan *scanner.FileScan, symbol string) []scanner.Declaration {
	var decls []scanner.Declaration
	for _, d := range scan.Exports.Of(symbol) {
		if d.IsExport() {
			decls = append(decls, d)
		}
	}
	return decls
}

func retainedIndex(decls []scanner.Declaration) int {
	best := 0
	for i, d := range decls {
		if Priority(d.Kind) < Priority(decls[best].Kind) {
			best = i
		}
	}
	return best
}

func removalEdits(scan *scanner.FileScan, symbol string) []rewrite.Edit {
	decls := exportDecls(scan, symbol)
	if len(decls) < 2 {
		return nil
	}
	keep := retainedIndex(decls)

	var edits []rewrite.Edit
	stmts := make(map[int]*stmtRemoval)
	var stmtOrder []int
	for i, d := range decls {
		if i == keep {
			continue
		}
		if d.Kind == scanner.KindDestructured {
			s, ok := stmts[d.Span.Start]
			if !ok {
				s = &stmtRemoval{decl: d, removed: make(map[int]bool)}
				stmts[d.Span.Start] = s
				stmtOrder = append(stmtOrder, d.Span.Start)
			}
			s.removed[d.EntryIndex] = true
			continue
		}
		edits = append(edits, rewrite.Edit{
			Span:   d.Span,
			Line:   true,
			Guard:  "export",
			Desc:   fmt.Sprintf("Removed duplicate %s export of %s", d.Kind, symbol),
			Symbol: symbol,
		})
	}

	sort.Ints(stmtOrder)
	for _, start := range stmtOrder {
		s := stmts[start]
		var remaining []string
		for i, entry := range s.decl.Entries {
			if !s.removed[i] {
				remaining = append(remaining, entry)
			}
		}
		if len(remaining) == 0 {
			edits = append(edits, rewrite.Edit{
				Span:    s.decl.Span,
				OldText: string(scan.Source[s.decl.Span.Start:s.decl.Span.End]),
				NewText: "",
				Desc:    fmt.Sprintf("Removed duplicate export { %s }", symbol),
				Symbol:  symbol,
			})
			continue
		}
		edits = append(edits, rewrite.Edit{
			Span:    s.decl.Clause,
			OldText: string(scan.Source[s.decl.Clause.Start:s.decl.Clause.End]),
			NewText: "{ " + strings.Join(remaining, ", ") + " }",
			Desc:    fmt.Sprintf("Removed %s from export statement", symbol),
			Symbol:  symbol,
		})
	}
	return edits
}

type stmtRemoval struct {
	decl    scanner.Declaration
	removed map[int]bool
}
