package manifest

import "github.com/specterhq/specter-scan/internal/models"

// Dedupe collapses records sharing an identity (ecosystem + lowercased
// name) into a single record. The first occurrence wins, keeping its
// position metadata; the scoring service bills per unique coordinate, not
// per occurrence. Idempotent.
func Dedupe(records []models.Record) []models.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		id := r.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

// FilterEcosystems drops records whose ecosystem is not enabled.
func FilterEcosystems(records []models.Record, enabled []models.Ecosystem) []models.Record {
	want := make(map[models.Ecosystem]struct{}, len(enabled))
	for _, e := range enabled {
		want[e] = struct{}{}
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if _, ok := want[r.Ecosystem]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Coordinates projects records onto their coordinates, preserving order.
func Coordinates(records []models.Record) []models.Coordinate {
	coords := make([]models.Coordinate, len(records))
	for i, r := range records {
		coords[i] = r.Coordinate
	}
	return coords
}
