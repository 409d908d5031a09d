package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/specterhq/specter-scan/internal/models"
)

// SARIFReporter outputs flagged packages in SARIF format for GitHub Code Scanning
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	Help             sarifText       `json:"help"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags             []string `json:"tags"`
	SecuritySeverity string   `json:"security-severity,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

var sarifRules = []sarifRule{
	{
		ID:               "specter/blocked",
		Name:             "BlockedDependency",
		ShortDescription: sarifText{Text: "Dependency blocked by Specter risk analysis"},
		Help:             sarifText{Text: "The Specter scoring service judged this package high-risk. Do not install it."},
		DefaultConfig:    sarifRuleConfig{Level: "error"},
		Properties: sarifProperties{
			Tags:             []string{"security", "supply-chain"},
			SecuritySeverity: "9.0",
		},
	},
	{
		ID:               "specter/review",
		Name:             "SuspiciousDependency",
		ShortDescription: sarifText{Text: "Dependency flagged for manual review"},
		Help:             sarifText{Text: "The Specter scoring service found suspicious signals. Review before installing."},
		DefaultConfig:    sarifRuleConfig{Level: "warning"},
		Properties: sarifProperties{
			Tags:             []string{"security", "supply-chain"},
			SecuritySeverity: "5.5",
		},
	},
}

// Report generates SARIF output for the flagged packages
func (r *SARIFReporter) Report(rep *Report) ([]byte, error) {
	report := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "specter-scan",
					Version:        "1.0.0",
					InformationURI: "https://github.com/specterhq/specter-scan",
					Rules:          sarifRules,
				},
			},
			Results: r.buildResults(rep),
		}},
	}

	return json.MarshalIndent(report, "", "  ")
}

func (r *SARIFReporter) buildResults(rep *Report) []sarifResult {
	records := recordIndex(rep.Records)
	results := make([]sarifResult, 0, len(rep.Flagged))

	for _, v := range sortVerdicts(rep.Flagged) {
		ruleIndex := 1
		level := "warning"
		if v.Verdict == models.VerdictBlocked || v.Score > 0.7 {
			ruleIndex = 0
			level = "error"
		}

		msg := fmt.Sprintf("Dependency %s (%s) flagged with risk score %.2f (%s)",
			v.Name, v.Ecosystem, v.Score, v.Verdict)
		if len(v.TopReasons) > 0 {
			msg += ": " + v.TopReasons[0]
		}

		location := sarifLocation{}
		if rec, ok := records[v.Identity()]; ok {
			location.PhysicalLocation.ArtifactLocation.URI = rec.File
			if rec.Pos != nil {
				location.PhysicalLocation.Region = &sarifRegion{
					StartLine:   rec.Pos.Line + 1,
					StartColumn: rec.Pos.Column + 1,
				}
			}
		}

		results = append(results, sarifResult{
			RuleID:    sarifRules[ruleIndex].ID,
			RuleIndex: ruleIndex,
			Level:     level,
			Message:   sarifText{Text: msg},
			Locations: []sarifLocation{location},
			PartialFingerprints: map[string]string{
				"packageIdentity": v.Identity(),
			},
		})
	}

	return results
}
