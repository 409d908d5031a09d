package reporter

import (
	"fmt"
	"strings"
)

// TerminalReporter outputs the scan result in a human-readable terminal format
type TerminalReporter struct{}

// Report generates terminal output for the given scan report
func (r *TerminalReporter) Report(rep *Report) ([]byte, error) {
	var sb strings.Builder

	if len(rep.Verdicts) == 0 {
		return []byte("No dependencies scanned.\n"), nil
	}

	if rep.Passed {
		sb.WriteString(fmt.Sprintf("✅ %d dependencies scanned, nothing flagged\n", len(rep.Verdicts)))
		return []byte(sb.String()), nil
	}

	sb.WriteString("\n⚠️  RISKY DEPENDENCIES FOUND\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	sb.WriteString(fmt.Sprintf("Flagged %d of %d scanned dependencies (threshold %.2f)\n\n",
		len(rep.Flagged), len(rep.Verdicts), rep.Threshold))

	records := recordIndex(rep.Records)

	for _, v := range sortVerdicts(rep.Flagged) {
		sb.WriteString(fmt.Sprintf("📦 %s (%s)\n", v.Name, v.Ecosystem))
		if rec, ok := records[v.Identity()]; ok {
			sb.WriteString(fmt.Sprintf("   Source: %s", rec.File))
			if rec.Pos != nil {
				sb.WriteString(fmt.Sprintf(":%d", rec.Pos.Line+1))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("   Score: %.2f | Verdict: %s\n", v.Score, v.Verdict))

		for _, reason := range v.TopReasons {
			sb.WriteString(fmt.Sprintf("   - %s\n", reason))
		}
		if v.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", v.Recommendation))
		}
		sb.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	}

	return []byte(sb.String()), nil
}
