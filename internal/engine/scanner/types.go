// # internal/engine/scanner/types.go
package scanner

import (
	"strings"
	"time"

	"exportfix/internal/engine/rewrite"
)

// FileScan is the result of scanning a single file: every export declaration
// and import record found in the source, with byte spans into Source.
type FileScan struct {
	Path      string
	Language  string
	Source    []byte
	Exports   ExportSet
	Imports   []ImportRecord
	ScannedAt time.Time
}

type DeclKind int

const (
	KindDefault DeclKind = iota
	KindClass
	KindFunction
	KindConst
	KindDestructured
	KindBareClass
)

func (k DeclKind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindConst:
		return "const"
	case KindDestructured:
		return "destructured"
	case KindBareClass:
		return "bare-class"
	}
	return "unknown"
}

// DeclForm distinguishes the syntactic shapes a default export can take.
// Conversions differ per form: an identifier default is replaced as a whole
// statement, a declaration default only has its keyword prefix rewritten.
type DeclForm int

const (
	FormNone DeclForm = iota
	FormIdentifier
	FormClass
	FormFunction
	FormAnonymous
)

type Declaration struct {
	Kind   DeclKind
	Form   DeclForm
	Symbol string // empty for anonymous default exports

	// Span covers the whole statement. Prefix covers the leading
	// export / export default keyword region up to the inner declaration,
	// for kinds where rewriting the prefix alone is a valid conversion.
	Span   rewrite.Span
	Prefix rewrite.Span

	// Destructured exports: the span of the { ... } specifier list, the raw
	// entries of the statement this declaration belongs to, and this entry's
	// position in it. Partial removals rewrite Clause so that re-export
	// from-clauses survive untouched.
	Clause     rewrite.Span
	Entries    []string
	EntryIndex int
	RawEntry   string

	Location Location
}

// Anonymous reports whether this is an anonymous default export, which no
// pass may merge, rename, or remove.
func (d Declaration) Anonymous() bool {
	return d.Kind == KindDefault && d.Form == FormAnonymous
}

// IsExport reports whether the declaration actually exposes a binding.
// Bare classes are recorded as rename targets only.
func (d Declaration) IsExport() bool {
	return d.Kind != KindBareClass
}

// ExportSet holds a file's declarations in scan order, indexed by symbol.
type ExportSet struct {
	decls []Declaration
	index map[string][]int
}

func (s *ExportSet) Add(d Declaration) {
	if s.index == nil {
		s.index = make(map[string][]int)
	}
	s.decls = append(s.decls, d)
	if d.Symbol != "" {
		s.index[d.Symbol] = append(s.index[d.Symbol], len(s.decls)-1)
	}
}

// All returns every declaration in scan order.
func (s *ExportSet) All() []Declaration {
	return s.decls
}

// Of returns the declarations for a symbol in scan order.
func (s *ExportSet) Of(symbol string) []Declaration {
	idx := s.index[symbol]
	out := make([]Declaration, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.decls[i])
	}
	return out
}

// Symbols returns symbol names in order of first appearance.
func (s *ExportSet) Symbols() []string {
	seen := make(map[string]bool, len(s.index))
	out := make([]string, 0, len(s.index))
	for _, d := range s.decls {
		if d.Symbol == "" || seen[d.Symbol] {
			continue
		}
		seen[d.Symbol] = true
		out = append(out, d.Symbol)
	}
	return out
}

// Has reports whether the symbol has a declaration of any of the given kinds.
func (s *ExportSet) Has(symbol string, kinds ...DeclKind) bool {
	for _, i := range s.index[symbol] {
		for _, k := range kinds {
			if s.decls[i].Kind == k {
				return true
			}
		}
	}
	return false
}

// Find returns the first declaration of the symbol with the given kind.
func (s *ExportSet) Find(symbol string, kind DeclKind) (Declaration, bool) {
	for _, i := range s.index[symbol] {
		if s.decls[i].Kind == kind {
			return s.decls[i], true
		}
	}
	return Declaration{}, false
}

type ImportKind int

const (
	ImportDefault ImportKind = iota
	ImportNamed
)

func (k ImportKind) String() string {
	if k == ImportDefault {
		return "default"
	}
	return "named"
}

// ImportRecord is one imported binding. A named import list produces one
// record per listed symbol; all records of one statement share Span.
type ImportRecord struct {
	Kind     ImportKind
	Imported string // name as exported by the target module
	Local    string // local binding name (post-alias); usage counting uses this
	Aliased  bool
	Module   string // module path as written

	Span       rewrite.Span // whole import statement
	ClauseSpan rewrite.Span // default: the identifier; named: the { ... } list
	Sole       bool         // named: this is the only specifier in the list

	Location Location
}

type Location struct {
	File   string
	Line   int
	Column int
}

// EntrySymbol extracts the policy-relevant symbol from a raw destructured
// entry: the pre-alias name ("X" in "X as Y").
func EntrySymbol(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
