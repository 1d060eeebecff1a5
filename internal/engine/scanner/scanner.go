// # internal/engine/scanner/scanner.go
package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"exportfix/internal/core/errors"
)

// Scanner parses source files and extracts their declaration records.
// Scanning never mutates anything; all rewriting happens downstream on the
// spans a scan reports.
type Scanner struct {
	loader       *GrammarLoader
	extractor    *JSExtractor
	testSuffixes []string
}

func NewScanner(loader *GrammarLoader) *Scanner {
	return &Scanner{
		loader:       loader,
		extractor:    NewJSExtractor(),
		testSuffixes: []string{".test", ".spec"},
	}
}

// ScanFile parses content and returns the file's export declarations and
// import records.
func (s *Scanner) ScanFile(path string, content []byte) (*FileScan, error) {
	lang := s.detectLanguage(path)
	if lang == "" {
		err := errors.New(errors.CodeNotSupported, "unsupported language")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}

	grammar := s.loader.Language(lang)
	if grammar == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		err := errors.New(errors.CodeParseFailure, "parse failed")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()

	scan, err := s.extractor.Extract(tree.RootNode(), content, path, lang)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailure, "extraction failed")
	}
	return scan, nil
}

func (s *Scanner) detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return s.loader.extensions[ext]
}

func (s *Scanner) IsSupportedPath(path string) bool {
	return s.detectLanguage(path) != ""
}

func (s *Scanner) Language(path string) string {
	return s.detectLanguage(path)
}

// IsTestFile reports whether the file looks like a test module
// (Component.test.js, Component.spec.ts).
func (s *Scanner) IsTestFile(path string) bool {
	stem := pathStem(path)
	for _, suffix := range s.testSuffixes {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// IsMinified reports whether the file is a minified bundle (app.min.js),
// which is never worth rewriting.
func (s *Scanner) IsMinified(path string) bool {
	return strings.HasSuffix(pathStem(path), ".min")
}

func (s *Scanner) SupportedExtensions() []string {
	return s.loader.SupportedExtensions()
}

func pathStem(path string) string {
	base := strings.ToLower(filepath.Base(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
