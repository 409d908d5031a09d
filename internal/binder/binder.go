package binder

import "github.com/specterhq/specter-scan/internal/models"

// Bind joins extracted records with returned verdicts on coordinate
// identity and groups the matches by owning file. Records with no matching
// verdict are simply not yet scored and yield no annotation. The returned
// map is a full replacement for any prior map covering the same files:
// stale annotations from an earlier file revision must never survive a
// rescan.
func Bind(records []models.Record, verdicts []models.Verdict) map[string][]models.Annotation {
	byIdentity := make(map[string]models.Verdict, len(verdicts))
	for _, v := range verdicts {
		byIdentity[v.Identity()] = v
	}

	bound := make(map[string][]models.Annotation)
	for _, r := range records {
		v, ok := byIdentity[r.Identity()]
		if !ok {
			continue
		}
		bound[r.File] = append(bound[r.File], models.Annotation{Record: r, Verdict: v})
	}
	return bound
}

// Classification is the batch-mode pass/fail decision.
type Classification struct {
	Flagged []models.Verdict
	Passed  bool
}

// Classify flags every verdict whose score exceeds the threshold, that the
// service blocked outright, or that needs review when failOnReview is set.
func Classify(verdicts []models.Verdict, threshold float64, failOnReview bool) Classification {
	var flagged []models.Verdict
	for _, v := range verdicts {
		switch {
		case v.Score > threshold:
			flagged = append(flagged, v)
		case v.Verdict == models.VerdictBlocked:
			flagged = append(flagged, v)
		case failOnReview && v.Verdict == models.VerdictReview:
			flagged = append(flagged, v)
		}
	}
	return Classification{Flagged: flagged, Passed: len(flagged) == 0}
}
