// # internal/engine/scanner/scanner_test.go
package scanner

import (
	"testing"

	"exportfix/internal/core/errors"
	"exportfix/internal/engine/rewrite"
)

func mustScan(t *testing.T, path, src string) *FileScan {
	t.Helper()
	s := NewScanner(NewGrammarLoader(true))
	scan, err := s.ScanFile(path, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return scan
}

func spanText(scan *FileScan, span rewrite.Span) string {
	return string(scan.Source[span.Start:span.End])
}

func TestScanExportKinds(t *testing.T) {
	code := `export default Foo;
export class Widget {}
export function render() {}
export const THEME = 'dark';
export { helperA, helperB };
class Foo {}
`
	scan := mustScan(t, "app.js", code)

	byKind := make(map[DeclKind][]Declaration)
	for _, d := range scan.Exports.All() {
		byKind[d.Kind] = append(byKind[d.Kind], d)
	}

	if len(byKind[KindDefault]) != 1 || byKind[KindDefault][0].Symbol != "Foo" {
		t.Errorf("Expected one default export Foo, got %+v", byKind[KindDefault])
	}
	if byKind[KindDefault][0].Form != FormIdentifier {
		t.Errorf("Expected identifier form, got %v", byKind[KindDefault][0].Form)
	}
	if got := spanText(scan, byKind[KindDefault][0].Span); got != "export default Foo;" {
		t.Errorf("Unexpected default span text: %q", got)
	}

	if len(byKind[KindClass]) != 1 || byKind[KindClass][0].Symbol != "Widget" {
		t.Errorf("Expected class export Widget, got %+v", byKind[KindClass])
	}
	if got := spanText(scan, byKind[KindClass][0].Prefix); got != "export " {
		t.Errorf("Unexpected class prefix text: %q", got)
	}

	if len(byKind[KindFunction]) != 1 || byKind[KindFunction][0].Symbol != "render" {
		t.Errorf("Expected function export render, got %+v", byKind[KindFunction])
	}
	if len(byKind[KindConst]) != 1 || byKind[KindConst][0].Symbol != "THEME" {
		t.Errorf("Expected const export THEME, got %+v", byKind[KindConst])
	}

	if len(byKind[KindDestructured]) != 2 {
		t.Fatalf("Expected two destructured entries, got %+v", byKind[KindDestructured])
	}
	if byKind[KindDestructured][0].Symbol != "helperA" || byKind[KindDestructured][1].Symbol != "helperB" {
		t.Errorf("Unexpected destructured symbols: %+v", byKind[KindDestructured])
	}
	if got := spanText(scan, byKind[KindDestructured][0].Clause); got != "{ helperA, helperB }" {
		t.Errorf("Unexpected clause text: %q", got)
	}

	if len(byKind[KindBareClass]) != 1 || byKind[KindBareClass][0].Symbol != "Foo" {
		t.Errorf("Expected bare class Foo, got %+v", byKind[KindBareClass])
	}
	if byKind[KindBareClass][0].IsExport() {
		t.Error("Bare class must not count as an export")
	}
}

func TestScanDefaultForms(t *testing.T) {
	cases := []struct {
		name   string
		code   string
		form   DeclForm
		symbol string
	}{
		{"Identifier", "export default Foo;\n", FormIdentifier, "Foo"},
		{"NamedClass", "export default class Foo {}\n", FormClass, "Foo"},
		{"NamedFunction", "export default function foo() {}\n", FormFunction, "foo"},
		{"AnonymousClass", "export default class {}\n", FormAnonymous, ""},
		{"AnonymousFunction", "export default function () {}\n", FormAnonymous, ""},
		{"ArrowFunction", "export default () => {};\n", FormAnonymous, ""},
		{"ObjectLiteral", "export default { a: 1 };\n", FormAnonymous, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scan := mustScan(t, "mod.js", tc.code)
			decls := scan.Exports.All()
			if len(decls) != 1 {
				t.Fatalf("Expected one declaration, got %d", len(decls))
			}
			d := decls[0]
			if d.Kind != KindDefault {
				t.Errorf("Expected default kind, got %v", d.Kind)
			}
			if d.Form != tc.form {
				t.Errorf("Expected form %v, got %v", tc.form, d.Form)
			}
			if d.Symbol != tc.symbol {
				t.Errorf("Expected symbol %q, got %q", tc.symbol, d.Symbol)
			}
			if tc.symbol == "" && !d.Anonymous() {
				t.Error("Expected anonymous declaration")
			}
		})
	}
}

func TestScanDefaultPrefixSpan(t *testing.T) {
	scan := mustScan(t, "mod.js", "export default class Foo {}\n")
	d := scan.Exports.All()[0]
	if got := spanText(scan, d.Prefix); got != "export default " {
		t.Errorf("Unexpected prefix text: %q", got)
	}
}

func TestScanDestructuredAliases(t *testing.T) {
	code := `export {
	helperA,
	internalName as publicName, // renamed on purpose
	helperB,
};
`
	scan := mustScan(t, "util.js", code)
	decls := scan.Exports.All()
	if len(decls) != 3 {
		t.Fatalf("Expected three entries, got %d", len(decls))
	}
	aliased := decls[1]
	if aliased.Symbol != "internalName" {
		t.Errorf("Expected pre-alias symbol internalName, got %q", aliased.Symbol)
	}
	if aliased.RawEntry != "internalName as publicName" {
		t.Errorf("Unexpected raw entry: %q", aliased.RawEntry)
	}
	if len(aliased.Entries) != 3 || aliased.EntryIndex != 1 {
		t.Errorf("Unexpected entry bookkeeping: %+v", aliased)
	}
}

func TestScanReExport(t *testing.T) {
	code := "export { shared } from './shared.js';\n"
	scan := mustScan(t, "index.js", code)
	decls := scan.Exports.All()
	if len(decls) != 1 || decls[0].Kind != KindDestructured {
		t.Fatalf("Expected one destructured entry, got %+v", decls)
	}
	if got := spanText(scan, decls[0].Clause); got != "{ shared }" {
		t.Errorf("Unexpected clause text: %q", got)
	}
	if got := spanText(scan, decls[0].Span); got != "export { shared } from './shared.js';" {
		t.Errorf("Unexpected statement text: %q", got)
	}
}

func TestScanBareClass(t *testing.T) {
	code := `class Standalone {}
export { Exported };
class Exported {}
`
	scan := mustScan(t, "classes.js", code)

	bare, ok := scan.Exports.Find("Standalone", KindBareClass)
	if !ok {
		t.Fatal("Expected bare class Standalone")
	}
	if got := spanText(scan, bare.Span); got != "class Standalone {}" {
		t.Errorf("Unexpected bare class span: %q", got)
	}

	// A destructured export and the bare class it re-exports are both
	// recorded; the bare one stays a rename target only.
	if _, ok := scan.Exports.Find("Exported", KindBareClass); !ok {
		t.Error("Expected bare class record for Exported")
	}
	if !scan.Exports.Has("Exported", KindDestructured) {
		t.Error("Expected destructured record for Exported")
	}
}

func TestScanIgnoresStringsAndComments(t *testing.T) {
	code := "const doc = \"export default Ghost;\";\n" +
		"// export class Phantom {}\n" +
		"/* export { Shadow }; */\n" +
		"const tpl = `export function spectre() {}`;\n"
	scan := mustScan(t, "haunted.js", code)
	if got := len(scan.Exports.All()); got != 0 {
		t.Errorf("Expected no declarations, got %+v", scan.Exports.All())
	}
}

func TestScanImports(t *testing.T) {
	code := `import Foo from './foo.js';
import { helperA, helperB } from './helpers.js';
import { original as renamed } from './alias.js';
import Combined, { extra } from './combined.js';
import * as ns from './namespace.js';
import './side-effect.js';
`
	scan := mustScan(t, "consumer.js", code)

	if len(scan.Imports) != 4 {
		t.Fatalf("Expected 4 import records, got %d: %+v", len(scan.Imports), scan.Imports)
	}

	def := scan.Imports[0]
	if def.Kind != ImportDefault || def.Local != "Foo" || def.Module != "./foo.js" {
		t.Errorf("Unexpected default import: %+v", def)
	}
	if got := spanText(scan, def.ClauseSpan); got != "Foo" {
		t.Errorf("Unexpected default clause text: %q", got)
	}

	a, b := scan.Imports[1], scan.Imports[2]
	if a.Kind != ImportNamed || a.Imported != "helperA" || a.Local != "helperA" || a.Sole {
		t.Errorf("Unexpected named import: %+v", a)
	}
	if b.Imported != "helperB" || b.Module != "./helpers.js" {
		t.Errorf("Unexpected named import: %+v", b)
	}
	if got := spanText(scan, a.ClauseSpan); got != "{ helperA, helperB }" {
		t.Errorf("Unexpected named clause text: %q", got)
	}

	al := scan.Imports[3]
	if al.Imported != "original" || al.Local != "renamed" || !al.Aliased || !al.Sole {
		t.Errorf("Unexpected aliased import: %+v", al)
	}
}

func TestScanConstDeclarators(t *testing.T) {
	code := `export const first = 1, second = 2;
export const { a, b } = source;
export let counter = 0;
export var legacy = true;
`
	scan := mustScan(t, "consts.js", code)
	decls := scan.Exports.All()
	if len(decls) != 3 {
		t.Fatalf("Expected 3 const records, got %+v", decls)
	}
	if decls[0].Symbol != "first" {
		t.Errorf("Expected first declarator only, got %q", decls[0].Symbol)
	}
	if decls[1].Symbol != "counter" || decls[2].Symbol != "legacy" {
		t.Errorf("Unexpected symbols: %q, %q", decls[1].Symbol, decls[2].Symbol)
	}
	for _, d := range decls {
		if d.Kind != KindConst {
			t.Errorf("Expected const kind for %s, got %v", d.Symbol, d.Kind)
		}
	}
}

func TestScanTypeScript(t *testing.T) {
	code := `export default Widget;
export interface Props {}
import type { Config } from './config';
import { load } from './loader';
class Widget {}
`
	scan := mustScan(t, "widget.ts", code)

	if scan.Language != "typescript" {
		t.Errorf("Expected typescript, got %s", scan.Language)
	}
	if _, ok := scan.Exports.Find("Widget", KindDefault); !ok {
		t.Error("Expected default export Widget")
	}
	// Interfaces are never rewritten and stay invisible.
	if scan.Exports.Has("Props", KindClass, KindFunction, KindConst, KindDestructured) {
		t.Error("Interface should not be recorded as an export declaration")
	}
	if len(scan.Imports) != 1 || scan.Imports[0].Imported != "load" {
		t.Errorf("Type-only imports should be skipped, got %+v", scan.Imports)
	}
}

func TestScannerPathChecks(t *testing.T) {
	s := NewScanner(NewGrammarLoader(false))

	if !s.IsSupportedPath("src/App.jsx") {
		t.Error("Expected .jsx to be supported")
	}
	if s.IsSupportedPath("src/widget.ts") {
		t.Error("TypeScript should be off without the toggle")
	}
	if !s.IsTestFile("src/App.test.js") || !s.IsTestFile("src/App.spec.js") {
		t.Error("Expected test file detection")
	}
	if s.IsTestFile("src/App.js") {
		t.Error("App.js is not a test file")
	}
	if !s.IsMinified("dist/app.min.js") {
		t.Error("Expected minified detection")
	}
	if s.IsMinified("src/admin.js") {
		t.Error("admin.js is not minified")
	}

	_, err := s.ScanFile("README.md", []byte("# readme"))
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Errorf("Expected NOT_SUPPORTED, got %v", err)
	}
}
