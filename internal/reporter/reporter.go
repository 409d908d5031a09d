package reporter

import (
	"sort"

	"github.com/specterhq/specter-scan/internal/binder"
	"github.com/specterhq/specter-scan/internal/models"
)

// Report is the batch-mode result handed to output formatters.
type Report struct {
	Records   []models.Record
	Verdicts  []models.Verdict
	Flagged   []models.Verdict
	Passed    bool
	Threshold float64
}

// Build assembles a Report from a scan result and its classification.
func Build(result *models.ScanResult, cls binder.Classification, threshold float64) *Report {
	return &Report{
		Records:   result.Records,
		Verdicts:  result.Verdicts,
		Flagged:   cls.Flagged,
		Passed:    cls.Passed,
		Threshold: threshold,
	}
}

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given scan report
	Report(rep *Report) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "sarif":
		return &SARIFReporter{}
	case "markdown":
		return &MarkdownReporter{}
	default:
		return &TerminalReporter{}
	}
}

// sortVerdicts orders verdicts by ecosystem then name so every formatter
// emits rows deterministically.
func sortVerdicts(verdicts []models.Verdict) []models.Verdict {
	out := make([]models.Verdict, len(verdicts))
	copy(out, verdicts)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ecosystem != out[j].Ecosystem {
			return out[i].Ecosystem < out[j].Ecosystem
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// recordIndex maps coordinate identity back to the extracted record, which
// carries the file and position context.
func recordIndex(records []models.Record) map[string]models.Record {
	idx := make(map[string]models.Record, len(records))
	for _, r := range records {
		if _, ok := idx[r.Identity()]; !ok {
			idx[r.Identity()] = r
		}
	}
	return idx
}

// flaggedSet marks the identities of flagged verdicts.
func flaggedSet(flagged []models.Verdict) map[string]struct{} {
	set := make(map[string]struct{}, len(flagged))
	for _, v := range flagged {
		set[v.Identity()] = struct{}{}
	}
	return set
}
