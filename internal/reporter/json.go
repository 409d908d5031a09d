package reporter

import "encoding/json"

// JSONReporter outputs the scan result in JSON format
type JSONReporter struct{}

// jsonOutput represents the JSON output structure
type jsonOutput struct {
	Summary  jsonSummary   `json:"summary"`
	Packages []jsonPackage `json:"packages"`
}

type jsonSummary struct {
	TotalScanned int     `json:"total_scanned"`
	TotalFlagged int     `json:"total_flagged"`
	Threshold    float64 `json:"threshold"`
	Passed       bool    `json:"passed"`
}

type jsonPackage struct {
	Name           string   `json:"name"`
	Version        string   `json:"version,omitempty"`
	Ecosystem      string   `json:"ecosystem"`
	Score          float64  `json:"score"`
	Verdict        string   `json:"verdict"`
	Flagged        bool     `json:"flagged"`
	TopReasons     []string `json:"top_reasons,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	SourceFile     string   `json:"source_file,omitempty"`
	Line           int      `json:"line,omitempty"`
}

// Report generates JSON output for the given scan report
func (r *JSONReporter) Report(rep *Report) ([]byte, error) {
	output := jsonOutput{
		Summary: jsonSummary{
			TotalScanned: len(rep.Verdicts),
			TotalFlagged: len(rep.Flagged),
			Threshold:    rep.Threshold,
			Passed:       rep.Passed,
		},
		Packages: make([]jsonPackage, 0, len(rep.Verdicts)),
	}

	records := recordIndex(rep.Records)
	flagged := flaggedSet(rep.Flagged)

	for _, v := range sortVerdicts(rep.Verdicts) {
		pkg := jsonPackage{
			Name:           v.Name,
			Ecosystem:      v.Ecosystem,
			Score:          v.Score,
			Verdict:        v.Verdict,
			TopReasons:     v.TopReasons,
			Recommendation: v.Recommendation,
		}
		if v.Version != nil {
			pkg.Version = *v.Version
		}
		if _, ok := flagged[v.Identity()]; ok {
			pkg.Flagged = true
		}
		if rec, ok := records[v.Identity()]; ok {
			pkg.SourceFile = rec.File
			if rec.Pos != nil {
				pkg.Line = rec.Pos.Line + 1
			}
		}
		output.Packages = append(output.Packages, pkg)
	}

	return json.MarshalIndent(output, "", "  ")
}
