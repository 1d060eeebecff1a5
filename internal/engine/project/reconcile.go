// # internal/engine/project/reconcile.go
package project

import (
	"exportfix/internal/engine/rewrite"
	"exportfix/internal/engine/scanner"
	"exportfix/internal/engine/style"
)

// Reconcile aligns one file's exports with the style its importers expect.
// Explicit per-symbol policy always beats the inferred style, and anonymous
// defaults are never converted.
func Reconcile(scan *scanner.FileScan, decided Style, policy style.Policy) []rewrite.Edit {
	if decided == StyleNamed {
		return reconcileToNamed(scan, policy)
	}
	return reconcileToDefault(scan, policy)
}

func reconcileToNamed(scan *scanner.FileScan, policy style.Policy) []rewrite.Edit {
	if policy.KeepsDefault(style.ModuleBasename(scan.Path)) {
		return nil
	}
	var edits []rewrite.Edit
	for _, d := range scan.Exports.All() {
		if d.Kind != scanner.KindDefault || d.Anonymous() {
			continue
		}
		if policy.KeepsDefault(d.Symbol) {
			continue
		}
		// A destructured form of the same name means the named style is
		// already served.
		if scan.Exports.Has(d.Symbol, scanner.KindDestructured) {
			continue
		}
		switch d.Form {
		case scanner.FormIdentifier:
			edits = append(edits, rewrite.Edit{
				Span:    d.Span,
				OldText: string(scan.Source[d.Span.Start:d.Span.End]),
				NewText: "export { " + d.Symbol + " };",
				Desc:    "Converted default export to named export: " + d.Symbol,
				Symbol:  d.Symbol,
			})
		case scanner.FormClass, scanner.FormFunction:
			edits = append(edits, rewrite.Edit{
				Span:    d.Prefix,
				OldText: string(scan.Source[d.Prefix.Start:d.Prefix.End]),
				NewText: "export ",
				Desc:    "Converted default export to named export: " + d.Symbol,
				Symbol:  d.Symbol,
			})
		}
	}
	return edits
}

// reconcileToDefault promotes the file's main export, the one matching its
// basename, to a default export. It fires only when the file has no default
// export at all, the anonymous kind included.
func reconcileToDefault(scan *scanner.FileScan, policy style.Policy) []rewrite.Edit {
	for _, d := range scan.Exports.All() {
		if d.Kind == scanner.KindDefault {
			return nil
		}
	}

	base := style.ModuleBasename(scan.Path)
	if policy.ForcesNamed(base) {
		return nil
	}

	main, ok := mainExport(scan, base)
	if !ok {
		return nil
	}
	switch main.Kind {
	case scanner.KindClass:
		return []rewrite.Edit{{
			Span:    main.Prefix,
			OldText: string(scan.Source[main.Prefix.Start:main.Prefix.End]),
			NewText: "export default ",
			Desc:    "Converted named class export to default: " + base,
			Symbol:  base,
		}}
	case scanner.KindFunction:
		return []rewrite.Edit{{
			Span:    main.Prefix,
			OldText: string(scan.Source[main.Prefix.Start:main.Prefix.End]),
			NewText: "export default ",
			Desc:    "Converted named function export to default: " + base,
			Symbol:  base,
		}}
	case scanner.KindDestructured:
		edits := style.RemoveNamedExportEdits(scan, base)
		edits = append(edits, rewrite.AppendEdit(
			"Added default export for "+base, base,
			"export default "+base+";"))
		return edits
	}
	return nil
}

// mainExport picks the declaration whose symbol matches the basename,
// preferring class over function over destructured forms.
func mainExport(scan *scanner.FileScan, base string) (scanner.Declaration, bool) {
	for _, kind := range []scanner.DeclKind{scanner.KindClass, scanner.KindFunction, scanner.KindDestructured} {
		if d, ok := scan.Exports.Find(base, kind); ok {
			return d, true
		}
	}
	return scanner.Declaration{}, false
}
