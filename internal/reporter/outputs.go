package reporter

import (
	"fmt"
	"os"
	"strings"

	"github.com/specterhq/specter-scan/internal/models"
)

// WriteCIOutputs appends machine-readable outputs to the file named by the
// GITHUB_OUTPUT environment variable, when running under a CI job.
func WriteCIOutputs(scanned, flagged int, reportRef string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "scanned=%d\nflagged=%d\nreport=%s\n", scanned, flagged, reportRef)
	return err
}

// FailureMessage names every flagged package, for the failing job's output.
func FailureMessage(flagged []models.Verdict) string {
	names := make([]string, 0, len(flagged))
	for _, v := range sortVerdicts(flagged) {
		names = append(names, fmt.Sprintf("%s (%s)", v.Name, v.Ecosystem))
	}
	return fmt.Sprintf("%d risky dependencies flagged: %s", len(flagged), strings.Join(names, ", "))
}
