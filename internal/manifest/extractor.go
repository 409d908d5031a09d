package manifest

import (
	"path/filepath"

	"github.com/specterhq/specter-scan/internal/models"
)

// Extractor is the interface for manifest-format extractors
type Extractor interface {
	// CanExtract returns true if this extractor handles the given filename
	CanExtract(filename string) bool

	// Extract pulls dependency records out of the file content
	Extract(path string, content []byte) ([]models.Record, error)
}

// All returns all available extractors
func All() []Extractor {
	return []Extractor{
		&PackageJSONExtractor{},
		&RequirementsExtractor{},
		&PyProjectExtractor{},
	}
}

// For returns the extractor handling the given path, or nil.
func For(path string) Extractor {
	name := filepath.Base(path)
	for _, e := range All() {
		if e.CanExtract(name) {
			return e
		}
	}
	return nil
}

// ExtractFile runs the matching extractor over content. A malformed manifest
// degrades to an empty record set, never an error: there is simply nothing
// to scan.
func ExtractFile(path string, content []byte) []models.Record {
	e := For(path)
	if e == nil {
		return nil
	}
	records, err := e.Extract(path, content)
	if err != nil {
		return nil
	}
	return records
}
