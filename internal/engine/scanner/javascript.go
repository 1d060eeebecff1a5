package scanner

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"exportfix/internal/engine/rewrite"
)

// JSExtractor extracts export declarations and import records from
// JavaScript and TypeScript sources. The grammars share the node kinds this
// extractor touches, so one extractor serves all supported languages.
type JSExtractor struct{}

func NewJSExtractor() *JSExtractor {
	return &JSExtractor{}
}

func (e *JSExtractor) Extract(root *sitter.Node, source []byte, filePath, language string) (*FileScan, error) {
	scan := &FileScan{
		Path:      filePath,
		Language:  language,
		Source:    source,
		ScannedAt: time.Now(),
	}
	ctx := &ExtractionContext{Source: source, Scan: scan}

	engine := NewExtractorEngine(map[string]NodeHandler{
		"export_statement":  e.extractExport,
		"import_statement":  e.extractImport,
		"class_declaration": e.extractBareClass,
	})
	engine.Walk(ctx, root)
	return scan, nil
}

func (e *JSExtractor) extractExport(ctx *ExtractionContext, node *sitter.Node) bool {
	if clause := childOfKind(node, "export_clause"); clause != nil {
		e.extractDestructured(ctx, node, clause)
		return true
	}
	if hasChildOfKind(node, "default") {
		e.extractDefault(ctx, node)
		return true
	}
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		e.extractDeclared(ctx, node, decl)
	}
	// export * from ... and other forms are left untouched.
	return true
}

func (e *JSExtractor) extractDestructured(ctx *ExtractionContext, stmt, clause *sitter.Node) {
	var specs []*sitter.Node
	for i := uint(0); i < clause.ChildCount(); i++ {
		if child := clause.Child(i); child.Kind() == "export_specifier" {
			specs = append(specs, child)
		}
	}
	entries := make([]string, len(specs))
	for i, spec := range specs {
		entries[i] = ctx.Text(spec)
	}
	for i, spec := range specs {
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		ctx.Scan.Exports.Add(Declaration{
			Kind:       KindDestructured,
			Symbol:     ctx.Text(name),
			Span:       span(stmt),
			Clause:     span(clause),
			Entries:    entries,
			EntryIndex: i,
			RawEntry:   entries[i],
			Location:   ctx.Location(spec),
		})
	}
}

func (e *JSExtractor) extractDefault(ctx *ExtractionContext, stmt *sitter.Node) {
	inner := stmt.ChildByFieldName("declaration")
	if inner == nil {
		inner = stmt.ChildByFieldName("value")
	}
	if inner == nil {
		return
	}
	d := Declaration{
		Kind:     KindDefault,
		Span:     span(stmt),
		Prefix:   rewrite.Span{Start: int(stmt.StartByte()), End: int(inner.StartByte())},
		Location: ctx.Location(stmt),
	}
	switch inner.Kind() {
	case "identifier":
		d.Form = FormIdentifier
		d.Symbol = ctx.Text(inner)
	case "class", "class_declaration":
		d.Form = FormAnonymous
		if name := inner.ChildByFieldName("name"); name != nil {
			d.Form = FormClass
			d.Symbol = ctx.Text(name)
		}
	case "function_declaration", "generator_function_declaration",
		"function_expression", "generator_function", "function":
		d.Form = FormAnonymous
		if name := inner.ChildByFieldName("name"); name != nil {
			d.Form = FormFunction
			d.Symbol = ctx.Text(name)
		}
	default:
		// Object literals, calls, arrow functions. Nothing downstream may
		// touch these, same as an anonymous function or class.
		d.Form = FormAnonymous
	}
	ctx.Scan.Exports.Add(d)
}

func (e *JSExtractor) extractDeclared(ctx *ExtractionContext, stmt, decl *sitter.Node) {
	prefix := rewrite.Span{Start: int(stmt.StartByte()), End: int(decl.StartByte())}
	switch decl.Kind() {
	case "class_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			ctx.Scan.Exports.Add(Declaration{
				Kind:     KindClass,
				Symbol:   ctx.Text(name),
				Span:     span(stmt),
				Prefix:   prefix,
				Location: ctx.Location(stmt),
			})
		}
	case "function_declaration", "generator_function_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			ctx.Scan.Exports.Add(Declaration{
				Kind:     KindFunction,
				Symbol:   ctx.Text(name),
				Span:     span(stmt),
				Prefix:   prefix,
				Location: ctx.Location(stmt),
			})
		}
	case "lexical_declaration", "variable_declaration":
		// Only the first declarator names the export, and only when it
		// binds a plain identifier. Pattern bindings are left alone.
		declarator := childOfKind(decl, "variable_declarator")
		if declarator == nil {
			return
		}
		name := declarator.ChildByFieldName("name")
		if name == nil || name.Kind() != "identifier" {
			return
		}
		ctx.Scan.Exports.Add(Declaration{
			Kind:     KindConst,
			Symbol:   ctx.Text(name),
			Span:     span(stmt),
			Prefix:   prefix,
			Location: ctx.Location(stmt),
		})
	}
}

func (e *JSExtractor) extractBareClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := node.ChildByFieldName("name")
	if name == nil {
		return false
	}
	ctx.Scan.Exports.Add(Declaration{
		Kind:     KindBareClass,
		Symbol:   ctx.Text(name),
		Span:     span(node),
		Location: ctx.Location(node),
	})
	return false
}

func (e *JSExtractor) extractImport(ctx *ExtractionContext, stmt *sitter.Node) bool {
	source := stmt.ChildByFieldName("source")
	if source == nil {
		return true
	}
	if hasChildOfKind(stmt, "type") {
		// import type { X } from ... binds no runtime value.
		return true
	}
	clause := childOfKind(stmt, "import_clause")
	if clause == nil {
		// Side effect import.
		return true
	}

	var def, named *sitter.Node
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		switch child.Kind() {
		case "identifier":
			def = child
		case "named_imports":
			named = child
		case "namespace_import":
			return true
		}
	}
	if def != nil && named != nil {
		// Combined default plus named clause, left untouched.
		return true
	}
	module := stringContent(ctx, source)

	if def != nil {
		name := ctx.Text(def)
		ctx.Scan.Imports = append(ctx.Scan.Imports, ImportRecord{
			Kind:       ImportDefault,
			Imported:   name,
			Local:      name,
			Module:     module,
			Span:       span(stmt),
			ClauseSpan: span(def),
			Sole:       true,
			Location:   ctx.Location(stmt),
		})
		return true
	}
	if named == nil {
		return true
	}

	var specs []*sitter.Node
	for i := uint(0); i < named.ChildCount(); i++ {
		if child := named.Child(i); child.Kind() == "import_specifier" {
			specs = append(specs, child)
		}
	}
	for _, spec := range specs {
		if hasChildOfKind(spec, "type") {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		imported := ctx.Text(nameNode)
		local := imported
		aliased := false
		if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
			local = ctx.Text(aliasNode)
			aliased = true
		}
		ctx.Scan.Imports = append(ctx.Scan.Imports, ImportRecord{
			Kind:       ImportNamed,
			Imported:   imported,
			Local:      local,
			Aliased:    aliased,
			Module:     module,
			Span:       span(stmt),
			ClauseSpan: span(named),
			Sole:       len(specs) == 1,
			Location:   ctx.Location(spec),
		})
	}
	return true
}

func stringContent(ctx *ExtractionContext, node *sitter.Node) string {
	if fragment := childOfKind(node, "string_fragment"); fragment != nil {
		return ctx.Text(fragment)
	}
	return ""
}
