// Package host defines the small capability contract the pipeline uses to
// talk to an editor collaborator. The pipeline publishes through these
// interfaces and never touches the host runtime directly, so it stays
// testable without an editor attached.
package host

import (
	"fmt"
	"strings"

	"github.com/specterhq/specter-scan/internal/models"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityBlocking Severity = "error"
	SeverityAdvisory Severity = "warning"
)

// Range is a half-open span within a file, zero-based.
type Range struct {
	Start models.Position `json:"start"`
	End   models.Position `json:"end"`
}

// Diagnostic is one position-anchored annotation.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// DiagnosticsSink receives position-anchored annotations keyed by file.
// Publish replaces everything previously published for that file.
type DiagnosticsSink interface {
	Publish(file string, diags []Diagnostic)
	Clear(file string)
}

// StatusState mirrors the scan lifecycle for the status indicator.
type StatusState string

const (
	StatusIdle     StatusState = "idle"
	StatusScanning StatusState = "scanning"
	StatusError    StatusState = "error"
)

// Status is the status-line triple shown by the host.
type Status struct {
	State   StatusState `json:"state"`
	Text    string      `json:"text"`
	Tooltip string      `json:"tooltip"`
}

// StatusItem receives status updates.
type StatusItem interface {
	SetStatus(s Status)
}

// Diagnostics derives per-file diagnostics from a bound annotation map.
// Identities with no bound verdict yield nothing: "not yet scored" is not
// an error. Records without a source position cannot be anchored and are
// skipped.
func Diagnostics(bound map[string][]models.Annotation, threshold float64) map[string][]Diagnostic {
	out := make(map[string][]Diagnostic, len(bound))
	for file, anns := range bound {
		var diags []Diagnostic
		for _, a := range anns {
			d, ok := diagnosticFor(a, threshold)
			if ok {
				diags = append(diags, d)
			}
		}
		out[file] = diags
	}
	return out
}

func diagnosticFor(a models.Annotation, threshold float64) (Diagnostic, bool) {
	if a.Record.Pos == nil || a.Verdict.Score < threshold {
		return Diagnostic{}, false
	}

	severity := SeverityAdvisory
	if a.Verdict.Score > 0.7 {
		severity = SeverityBlocking
	}

	msg := fmt.Sprintf("%s: %s (risk score %.2f)", a.Record.Name, a.Verdict.Verdict, a.Verdict.Score)
	if len(a.Verdict.TopReasons) > 0 {
		msg += " - " + a.Verdict.TopReasons[0]
	}

	start := *a.Record.Pos
	end := models.Position{Line: start.Line, Column: start.Column + len(a.Record.Name)}
	return Diagnostic{
		Range:    Range{Start: start, End: end},
		Severity: severity,
		Message:  msg,
	}, true
}

// HoverText renders the hover explanation for one annotation: score,
// verdict, top reasons, and the service's recommendation.
func HoverText(a models.Annotation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s)\n\n", a.Record.Name, a.Record.Ecosystem)
	fmt.Fprintf(&sb, "Risk score: %.2f (%s)\n", a.Verdict.Score, a.Verdict.Verdict)

	reasons := a.Verdict.TopReasons
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	for _, reason := range reasons {
		sb.WriteString("- " + reason + "\n")
	}

	if a.Verdict.Recommendation != "" {
		sb.WriteString("\n" + a.Verdict.Recommendation + "\n")
	}
	return sb.String()
}

// SummaryText builds the compact status text shown after a scan.
func SummaryText(total, flagged int) string {
	if flagged > 0 {
		return fmt.Sprintf("%d flagged", flagged)
	}
	return fmt.Sprintf("%d clean", total)
}
