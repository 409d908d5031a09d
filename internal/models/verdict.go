package models

// Verdict categories returned by the scoring service. The pipeline never
// computes these, it only routes them.
const (
	VerdictSafe    = "safe"
	VerdictReview  = "review"
	VerdictBlocked = "blocked"
	VerdictUnknown = "unknown"
	VerdictError   = "error"
)

// Verdict is the scoring service's risk judgment for one package.
type Verdict struct {
	Name           string   `json:"name"`
	Ecosystem      string   `json:"ecosystem"`
	Version        *string  `json:"version"`
	Score          float64  `json:"score"`
	Verdict        string   `json:"verdict"`
	TopReasons     []string `json:"top_reasons"`
	Recommendation string   `json:"recommendation"`
}

// Identity returns the join key matching Coordinate.Identity.
func (v Verdict) Identity() string {
	return Coordinate{Name: v.Name, Ecosystem: Ecosystem(v.Ecosystem)}.Identity()
}

// Annotation associates an extracted record with its verdict, keeping the
// file/position context needed for inline diagnostics.
type Annotation struct {
	Record  Record
	Verdict Verdict
}

// ScanResult is the outcome of one pipeline run over one or more manifests.
// Files lists every manifest the run covered, including those that yielded
// no records, so consumers can replace stale per-file state.
type ScanResult struct {
	RunID    string
	Files    []string
	Records  []Record
	Verdicts []Verdict
}
