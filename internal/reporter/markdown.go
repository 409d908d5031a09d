package reporter

import (
	"fmt"
	"strings"
)

// CommentMarker is the stable marker identifying the summary comment this
// tool owns on a change request, so reruns update instead of stacking.
const CommentMarker = "<!-- specter-scan-report -->"

// MarkdownReporter renders the deterministic summary table posted on pull
// requests.
type MarkdownReporter struct{}

// Report generates a Markdown report for the given scan
func (r *MarkdownReporter) Report(rep *Report) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(CommentMarker + "\n")
	sb.WriteString("## Specter dependency scan\n\n")

	if len(rep.Verdicts) == 0 {
		sb.WriteString("No dependencies found to scan.\n")
		return []byte(sb.String()), nil
	}

	if rep.Passed {
		sb.WriteString(fmt.Sprintf("✅ **%d dependencies scanned, nothing flagged** (threshold %.2f)\n\n",
			len(rep.Verdicts), rep.Threshold))
	} else {
		sb.WriteString(fmt.Sprintf("⚠️ **%d of %d dependencies flagged** (threshold %.2f)\n\n",
			len(rep.Flagged), len(rep.Verdicts), rep.Threshold))
	}

	flagged := flaggedSet(rep.Flagged)

	sb.WriteString("| Package | Ecosystem | Score | Verdict | Reasons |\n")
	sb.WriteString("|---------|-----------|-------|---------|---------|\n")
	for _, v := range sortVerdicts(rep.Verdicts) {
		name := v.Name
		if _, ok := flagged[v.Identity()]; ok {
			name = "**" + name + "**"
		}

		reasons := v.TopReasons
		if len(reasons) > 2 {
			reasons = reasons[:2]
		}

		sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %s | %s |\n",
			name, v.Ecosystem, v.Score, v.Verdict, strings.Join(reasons, "; ")))
	}

	return []byte(sb.String()), nil
}
