package manifest

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/specterhq/specter-scan/internal/models"
)

// PackageJSONExtractor extracts direct dependencies from package.json files
type PackageJSONExtractor struct{}

// CanExtract returns true for package.json files
func (e *PackageJSONExtractor) CanExtract(filename string) bool {
	return filename == "package.json"
}

// packageJSON represents the structure of package.json
type packageJSON struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// Extract merges the dependency sections of package.json. Sections merge
// shallowly with devDependencies first and dependencies last, so the
// production entry wins when a name appears in more than one section.
func (e *PackageJSONExtractor) Extract(path string, content []byte) ([]models.Record, error) {
	var pkg packageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, err
	}

	merged := make(map[string]string)
	for _, section := range []map[string]string{pkg.DevDependencies, pkg.OptionalDependencies, pkg.Dependencies} {
		for name, rng := range section {
			merged[name] = rng
		}
	}

	lines := strings.Split(string(content), "\n")

	var records []models.Record
	for name, rng := range merged {
		records = append(records, models.Record{
			Coordinate: models.Coordinate{
				Name:      name,
				Version:   cleanNpmVersion(rng),
				Ecosystem: models.EcosystemNpm,
			},
			File: path,
			Pos:  findQuotedName(lines, name),
		})
	}

	// Position order keeps the output stable and matches the file layout;
	// records without a position sort last by name.
	sort.Slice(records, func(i, j int) bool {
		pi, pj := records[i].Pos, records[j].Pos
		switch {
		case pi != nil && pj != nil:
			if pi.Line != pj.Line {
				return pi.Line < pj.Line
			}
			return pi.Column < pj.Column
		case pi != nil:
			return true
		case pj != nil:
			return false
		default:
			return records[i].Name < records[j].Name
		}
	})

	return records, nil
}

// findQuotedName locates the first occurrence of the quoted package name in
// the raw text and points at the name's first character.
func findQuotedName(lines []string, name string) *models.Position {
	needle := `"` + name + `"`
	for i, line := range lines {
		if idx := strings.Index(line, needle); idx >= 0 {
			return &models.Position{Line: i, Column: idx + 1}
		}
	}
	return nil
}

// cleanNpmVersion reduces a range expression to a bare version: a leading ^
// or ~ qualifier and any -prerelease suffix are stripped. Ranges that do not
// reduce to a plain semver version (wildcards, tags, compound ranges) carry
// no usable version.
func cleanNpmVersion(rng string) string {
	v := strings.TrimSpace(rng)
	v = strings.TrimPrefix(v, "^")
	v = strings.TrimPrefix(v, "~")
	if idx := strings.Index(v, "-"); idx >= 0 {
		v = v[:idx]
	}
	if v == "" || v == "*" || v == "latest" {
		return ""
	}
	if !semver.IsValid("v" + v) {
		return ""
	}
	return v
}
