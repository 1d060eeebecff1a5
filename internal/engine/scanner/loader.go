// # internal/engine/scanner/loader.go
package scanner

import (
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GrammarLoader owns the compiled tree-sitter grammars and the mapping from
// file extensions to language identifiers.
type GrammarLoader struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

// NewGrammarLoader registers the JavaScript grammar and, when enabled, the
// TypeScript and TSX grammars.
func NewGrammarLoader(typescript bool) *GrammarLoader {
	gl := &GrammarLoader{
		languages:  make(map[string]*sitter.Language),
		extensions: make(map[string]string),
	}

	gl.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs"} {
		gl.extensions[ext] = "javascript"
	}

	if typescript {
		gl.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		gl.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		for _, ext := range []string{".ts", ".mts", ".cts"} {
			gl.extensions[ext] = "typescript"
		}
		gl.extensions[".tsx"] = "tsx"
	}

	return gl
}

func (gl *GrammarLoader) Language(lang string) *sitter.Language {
	return gl.languages[lang]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	extensions := make([]string, 0, len(gl.extensions))
	for ext := range gl.extensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
