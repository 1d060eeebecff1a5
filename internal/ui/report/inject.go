// # internal/ui/report/inject.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InjectSummary refreshes the marked section of a markdown file with the
// latest run summary. The file is rewritten atomically so a crash never
// leaves a half-updated document behind.
func InjectSummary(filePath, marker, body string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read markdown file %q: %w", filePath, err)
	}

	next, err := ReplaceBetweenMarkers(string(content), marker, body)
	if err != nil {
		return err
	}
	return writeAtomic(filePath, next)
}

// ReplaceBetweenMarkers swaps the text between the exportfix start and end
// comments for marker. Both comments must appear exactly once. The file's
// newline convention is preserved.
func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", fmt.Errorf("markdown marker must not be empty")
	}

	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	start := fmt.Sprintf("<!-- exportfix:%s:start -->", marker)
	end := fmt.Sprintf("<!-- exportfix:%s:end -->", marker)

	if strings.Count(content, start) != 1 || strings.Count(content, end) != 1 {
		return "", fmt.Errorf("markdown marker %q must appear exactly once for start and end", marker)
	}
	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if endIdx < startIdx {
		return "", fmt.Errorf("invalid marker order for %q", marker)
	}

	prefix := content[:startIdx+len(start)]
	suffix := content[endIdx:]
	body := strings.TrimRight(replacement, "\r\n")
	return prefix + newline + body + newline + suffix, nil
}

func writeAtomic(filePath, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".markdown-inject-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", filePath, err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.WriteString(content)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Rename(tmpName, filePath)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace markdown file %q: %w", filePath, writeErr)
	}
	return nil
}
