// # internal/ui/report/sarif.go
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"exportfix/internal/engine/pipeline"
	"exportfix/internal/engine/rewrite"
)

// SARIF v2.1.0, see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDDuplicate  = "EXF001"
	ruleIDExport     = "EXF002"
	ruleIDImport     = "EXF003"
	ruleIDMismatch   = "EXF004"
	ruleIDTerminator = "EXF005"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from a run result, one
// result per file and fix category. All file URIs are made relative to
// projectRoot; absolute paths are never included so that reports are safe
// to share.
func GenerateSARIF(projectRoot string, result *pipeline.RunResult, toolVersion string) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("sarif report requires a run result")
	}

	counters := result.Counters
	results := make([]sarifResult, 0)
	for _, file := range result.Files {
		// Change records keep phase order, so the per-file counters
		// slice the list by category.
		records := file.Changes
		duplicates, records := splitRecords(records, file.DuplicatesFixed)
		exports, records := splitRecords(records, file.ExportsModernized)
		imports, records := splitRecords(records, file.ImportsFixed)
		mismatches, _ := splitRecords(records, file.MismatchesFixed)

		uri := relativeURI(projectRoot, file.Path)
		if file.DuplicatesFixed > 0 {
			results = append(results, fileResult(
				ruleIDDuplicate, "warning", uri,
				categoryMessage("%d duplicate export(s) removed", file.DuplicatesFixed, duplicates),
			))
		}
		if file.ExportsModernized > 0 {
			results = append(results, fileResult(
				ruleIDExport, "note", uri,
				categoryMessage("%d export(s) modernized", file.ExportsModernized, exports),
			))
		}
		if file.ImportsFixed > 0 {
			results = append(results, fileResult(
				ruleIDImport, "note", uri,
				categoryMessage("%d import(s) modernized", file.ImportsFixed, imports),
			))
		}
		if file.MismatchesFixed > 0 {
			results = append(results, fileResult(
				ruleIDMismatch, "warning", uri,
				categoryMessage("%d import/export mismatch(es) reconciled", file.MismatchesFixed, mismatches),
			))
		}
		if file.DoubleSemicolonsFixed > 0 {
			results = append(results, fileResult(ruleIDTerminator, "note", uri, "Double semicolons collapsed"))
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "exportfix",
						Version: nonEmpty(toolVersion, "unknown"),
						Rules:   buildSARIFRules(counters),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules relevant to the run's findings.
func buildSARIFRules(counters pipeline.Counters) []sarifRule {
	rules := make([]sarifRule, 0, 5)
	if counters.DuplicatesFixed > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDDuplicate,
			Name:             "DuplicateExport",
			ShortDescription: sarifMessage{Text: "A symbol was exported more than once from the same module."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	if counters.ExportsModernized > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDExport,
			Name:             "LegacyExportStyle",
			ShortDescription: sarifMessage{Text: "An export did not follow the project's named-export style."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
		})
	}
	if counters.ImportsFixed > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDImport,
			Name:             "LegacyImportStyle",
			ShortDescription: sarifMessage{Text: "An import did not match the exporting module's style."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
		})
	}
	if counters.MismatchesFixed > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDMismatch,
			Name:             "ImportExportMismatch",
			ShortDescription: sarifMessage{Text: "A module's export style disagreed with how its importers consume it."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	if counters.DoubleSemicolonsFixed > 0 {
		rules = append(rules, sarifRule{
			ID:               ruleIDTerminator,
			Name:             "DoubleSemicolon",
			ShortDescription: sarifMessage{Text: "A statement ended with a doubled semicolon."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "note"},
		})
	}
	return rules
}

func splitRecords(records []rewrite.ChangeRecord, n int) ([]rewrite.ChangeRecord, []rewrite.ChangeRecord) {
	if n > len(records) {
		n = len(records)
	}
	return records[:n], records[n:]
}

func categoryMessage(format string, count int, records []rewrite.ChangeRecord) string {
	msg := fmt.Sprintf(format, count)
	symbols := symbolList(records)
	if len(symbols) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(symbols, ", ")
}

func symbolList(records []rewrite.ChangeRecord) []string {
	seen := make(map[string]bool, len(records))
	out := make([]string, 0, len(records))
	for _, record := range records {
		if record.Symbol == "" || seen[record.Symbol] {
			continue
		}
		seen[record.Symbol] = true
		out = append(out, record.Symbol)
	}
	return out
}

func fileResult(ruleID, level, uri, message string) sarifResult {
	return sarifResult{
		RuleID:  ruleID,
		Level:   level,
		Message: sarifMessage{Text: message},
		Locations: []sarifLocation{
			{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       uri,
						URIBaseID: "%SRCROOT%",
					},
				},
			},
		},
	}
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
