package manifest

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/specterhq/specter-scan/internal/models"
)

// PyProjectExtractor extracts dependencies from pyproject.toml files
type PyProjectExtractor struct{}

// CanExtract returns true for pyproject.toml files
func (e *PyProjectExtractor) CanExtract(filename string) bool {
	return filename == "pyproject.toml"
}

// pyproject represents the structure of pyproject.toml
type pyproject struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Extract applies two independent strategies to the same document: the PEP
// 621 [project.dependencies] array and the Poetry dependency table. The
// interpreter pseudo-dependency ("python") is excluded. Names are
// canonicalized to the registry form.
func (e *PyProjectExtractor) Extract(path string, content []byte) ([]models.Record, error) {
	var proj pyproject
	if err := toml.Unmarshal(content, &proj); err != nil {
		return nil, err
	}

	var records []models.Record

	for _, spec := range proj.Project.Dependencies {
		name, version := splitRequirement(spec)
		if name == "" {
			continue
		}
		records = append(records, models.Record{
			Coordinate: models.Coordinate{
				Name:      canonicalPyPIName(name),
				Version:   version,
				Ecosystem: models.EcosystemPyPI,
			},
			File: path,
		})
	}

	// TOML tables decode into maps, so sort for a stable record order.
	poetry := make(map[string]interface{}, len(proj.Tool.Poetry.Dependencies))
	for name, val := range proj.Tool.Poetry.Dependencies {
		if strings.EqualFold(name, "python") {
			continue
		}
		poetry[canonicalPyPIName(name)] = val
	}

	poetryNames := make([]string, 0, len(poetry))
	for name := range poetry {
		poetryNames = append(poetryNames, name)
	}
	sort.Strings(poetryNames)

	for _, name := range poetryNames {
		records = append(records, models.Record{
			Coordinate: models.Coordinate{
				Name:      name,
				Version:   poetryVersion(poetry[name]),
				Ecosystem: models.EcosystemPyPI,
			},
			File: path,
		})
	}

	return records, nil
}

// splitRequirement splits a requirement spec like "requests>=2.28.0" into a
// bare name and an optional version.
func splitRequirement(spec string) (name string, version string) {
	spec = strings.TrimSpace(spec)

	// Drop environment markers
	if idx := strings.Index(spec, ";"); idx >= 0 {
		spec = strings.TrimSpace(spec[:idx])
	}

	name = spec
	for _, op := range []string{"==", ">=", "<=", "~=", "!=", ">", "<"} {
		if idx := strings.Index(spec, op); idx >= 0 && idx < len(name) {
			candidate := strings.TrimSpace(spec[:idx])
			if len(candidate) < len(name) {
				name = candidate
				version = strings.TrimSpace(spec[idx+len(op):])
			}
		}
	}

	// Drop extras like [security]
	if idx := strings.Index(name, "["); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}

	if idx := strings.IndexAny(version, " ,"); idx >= 0 {
		version = version[:idx]
	}

	return name, version
}

// poetryVersion pulls a bare version out of a Poetry constraint value,
// which may be a plain string or a table with a "version" key.
func poetryVersion(val interface{}) string {
	switch v := val.(type) {
	case string:
		return cleanPoetryConstraint(v)
	case map[string]interface{}:
		if ver, ok := v["version"].(string); ok {
			return cleanPoetryConstraint(ver)
		}
	}
	return ""
}

func cleanPoetryConstraint(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "^")
	v = strings.TrimPrefix(v, "~")
	if v == "" || v == "*" {
		return ""
	}
	return v
}

// canonicalPyPIName lower-cases and normalizes underscores to hyphens, the
// registry's canonical naming.
func canonicalPyPIName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}
