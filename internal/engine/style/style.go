// # internal/engine/style/style.go
package style

import (
	"path/filepath"
	"strings"

	"exportfix/internal/engine/rewrite"
	"exportfix/internal/engine/scanner"
)

// Policy names the symbols with a pinned export style. It is built once from
// configuration and never mutated afterwards.
type Policy struct {
	keepDefault map[string]bool
	forceNamed  map[string]bool
}

func NewPolicy(keepDefault, forceNamed []string) Policy {
	p := Policy{
		keepDefault: make(map[string]bool, len(keepDefault)),
		forceNamed:  make(map[string]bool, len(forceNamed)),
	}
	for _, name := range keepDefault {
		p.keepDefault[name] = true
	}
	for _, name := range forceNamed {
		p.forceNamed[name] = true
	}
	return p
}

// KeepsDefault reports whether the symbol (or module basename) must stay a
// default export.
func (p Policy) KeepsDefault(name string) bool {
	return p.keepDefault[name]
}

// ForcesNamed reports whether the symbol must become a named export.
func (p Policy) ForcesNamed(name string) bool {
	return p.forceNamed[name]
}

// ModuleBasename is the policy identity of a file: its name without
// directory or extension, case preserved.
func ModuleBasename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Classifier rewrites per-file export and import statements toward the
// policy's style. All edits come from one scan of the current buffer and
// never overlap.
type Classifier struct {
	policy Policy
}

func NewClassifier(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// PlanExports builds the export-side edits for one file.
func (c *Classifier) PlanExports(scan *scanner.FileScan) []rewrite.Edit {
	base := ModuleBasename(scan.Path)
	if c.policy.KeepsDefault(base) {
		return c.planKeepDefault(scan, base)
	}

	var edits []rewrite.Edit
	for _, d := range scan.Exports.All() {
		if d.Kind != scanner.KindDefault || d.Anonymous() {
			continue
		}
		if !c.policy.ForcesNamed(d.Symbol) && d.Symbol != base {
			continue
		}
		// The duplicate resolver owns symbols that already have another
		// declaration; converting here would collide with it.
		if scan.Exports.Has(d.Symbol, scanner.KindClass, scanner.KindFunction, scanner.KindConst, scanner.KindDestructured) {
			continue
		}
		switch d.Form {
		case scanner.FormIdentifier:
			edits = append(edits, rewrite.Edit{
				Span:    d.Span,
				OldText: sourceText(scan, d.Span),
				NewText: "export { " + d.Symbol + " };",
				Desc:    "Default to Named export: " + d.Symbol,
				Symbol:  d.Symbol,
			})
		case scanner.FormClass, scanner.FormFunction:
			edits = append(edits, rewrite.Edit{
				Span:    d.Prefix,
				OldText: sourceText(scan, d.Prefix),
				NewText: "export ",
				Desc:    "Default to Named export: " + d.Symbol,
				Symbol:  d.Symbol,
			})
		}
	}

	var appendStatements []string
	for _, d := range scan.Exports.All() {
		if d.Kind != scanner.KindClass || !c.policy.ForcesNamed(d.Symbol) {
			continue
		}
		if scan.Exports.Has(d.Symbol, scanner.KindDestructured) {
			continue
		}
		edits = append(edits, rewrite.Edit{
			Span:    d.Prefix,
			OldText: sourceText(scan, d.Prefix),
			NewText: "",
			Desc:    "Class export to Named: " + d.Symbol,
			Symbol:  d.Symbol,
		})
		appendStatements = append(appendStatements, "export { "+d.Symbol+" };")
	}
	if len(appendStatements) > 0 {
		edits = append(edits, rewrite.AppendEdit("", "", appendStatements...))
	}
	return edits
}

// planKeepDefault makes sure the basename's class leaves the file as its
// default export, removing any destructured form of the name first.
func (c *Classifier) planKeepDefault(scan *scanner.FileScan, base string) []rewrite.Edit {
	for _, d := range scan.Exports.Of(base) {
		if d.Kind == scanner.KindDefault && !d.Anonymous() {
			return nil
		}
	}
	cls, haveClass := scan.Exports.Find(base, scanner.KindClass)
	bare, haveBare := scan.Exports.Find(base, scanner.KindBareClass)
	if !haveClass && !haveBare {
		return nil
	}

	edits := RemoveNamedExportEdits(scan, base)
	if haveClass {
		edits = append(edits, rewrite.Edit{
			Span:    cls.Prefix,
			OldText: sourceText(scan, cls.Prefix),
			NewText: "export default ",
			Desc:    "Class to Default export: " + base,
			Symbol:  base,
		})
		return edits
	}
	edits = append(edits, rewrite.Edit{
		Span:    rewrite.Span{Start: bare.Span.Start, End: bare.Span.Start},
		NewText: "export default ",
		Desc:    "Added default export for " + base,
		Symbol:  base,
	})
	return edits
}

// RemoveNamedExportEdits deletes the symbol from every destructured export
// statement, dropping statements that end up empty.
func RemoveNamedExportEdits(scan *scanner.FileScan, symbol string) []rewrite.Edit {
	type group struct {
		decl    scanner.Declaration
		removed map[int]bool
	}
	groups := make(map[int]*group)
	var order []int
	for _, d := range scan.Exports.Of(symbol) {
		if d.Kind != scanner.KindDestructured {
			continue
		}
		g, ok := groups[d.Span.Start]
		if !ok {
			g = &group{decl: d, removed: make(map[int]bool)}
			groups[d.Span.Start] = g
			order = append(order, d.Span.Start)
		}
		g.removed[d.EntryIndex] = true
	}

	var edits []rewrite.Edit
	for _, start := range order {
		g := groups[start]
		var remaining []string
		for i, entry := range g.decl.Entries {
			if !g.removed[i] {
				remaining = append(remaining, entry)
			}
		}
		if len(remaining) == 0 {
			edits = append(edits, rewrite.Edit{
				Span:    g.decl.Span,
				OldText: sourceText(scan, g.decl.Span),
				NewText: "",
				Desc:    "Removed named export for " + symbol,
				Symbol:  symbol,
			})
			continue
		}
		edits = append(edits, rewrite.Edit{
			Span:    g.decl.Clause,
			OldText: sourceText(scan, g.decl.Clause),
			NewText: "{ " + strings.Join(remaining, ", ") + " }",
			Desc:    "Removed " + symbol + " from named exports",
			Symbol:  symbol,
		})
	}
	return edits
}

// PlanImports builds the import-side edits for one file. Only plain forms
// are ever rewritten; aliased bindings and multi-name lists stay put.
func (c *Classifier) PlanImports(scan *scanner.FileScan) []rewrite.Edit {
	var edits []rewrite.Edit
	for _, imp := range scan.Imports {
		switch imp.Kind {
		case scanner.ImportDefault:
			if !c.policy.ForcesNamed(imp.Local) {
				continue
			}
			edits = append(edits, rewrite.Edit{
				Span:    imp.ClauseSpan,
				OldText: imp.Local,
				NewText: "{ " + imp.Local + " }",
				Desc:    "Import modernized: " + imp.Local,
				Symbol:  imp.Local,
			})
		case scanner.ImportNamed:
			if !imp.Sole || imp.Aliased || !c.policy.KeepsDefault(imp.Imported) {
				continue
			}
			edits = append(edits, rewrite.Edit{
				Span:    imp.ClauseSpan,
				OldText: sourceText(scan, imp.ClauseSpan),
				NewText: imp.Imported,
				Desc:    "Base class import fixed: " + imp.Imported,
				Symbol:  imp.Imported,
			})
		}
	}
	return edits
}

func sourceText(scan *scanner.FileScan, span rewrite.Span) string {
	return string(scan.Source[span.Start:span.End])
}
