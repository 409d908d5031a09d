package manifest

import (
	"regexp"
	"strings"

	"github.com/specterhq/specter-scan/internal/models"
)

// RequirementsExtractor extracts dependencies from requirements.txt files
type RequirementsExtractor struct{}

// CanExtract returns true for requirements.txt style files
func (e *RequirementsExtractor) CanExtract(filename string) bool {
	return filename == "requirements.txt" ||
		strings.HasSuffix(filename, "-requirements.txt") ||
		strings.HasSuffix(filename, "_requirements.txt") ||
		(strings.HasPrefix(filename, "requirements") && strings.HasSuffix(filename, ".txt"))
}

// namePattern matches the leading package identifier of a requirement line.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+`)

// versionAfterOpPattern captures the version following a comparison
// operator, up to whitespace or an extras bracket.
var versionAfterOpPattern = regexp.MustCompile(`(?:==|>=|<=|~=|>|<)\s*([^\s\[;,]+)`)

// Extract walks the file line by line. Blank lines, full-line comments, and
// option/continuation lines (-r, -e, --...) are skipped; inline comments are
// stripped before matching. Positions point at the name within its line.
func (e *RequirementsExtractor) Extract(path string, content []byte) ([]models.Record, error) {
	var records []models.Record

	lines := strings.Split(string(content), "\n")
	for lineNum, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			continue
		}

		// Strip inline comments
		spec := trimmed
		if idx := strings.Index(spec, "#"); idx > 0 {
			spec = strings.TrimSpace(spec[:idx])
		}

		name := namePattern.FindString(spec)
		if name == "" {
			continue
		}

		version := ""
		if m := versionAfterOpPattern.FindStringSubmatch(spec); m != nil {
			version = m[1]
		}

		col := strings.Index(raw, name)
		records = append(records, models.Record{
			Coordinate: models.Coordinate{
				Name:      strings.ToLower(name), // PyPI is case-insensitive
				Version:   version,
				Ecosystem: models.EcosystemPyPI,
			},
			File: path,
			Pos:  &models.Position{Line: lineNum, Column: col},
		})
	}

	return records, nil
}
