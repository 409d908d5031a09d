package models

import "time"

// Config holds the merged runtime configuration shared by both modes.
type Config struct {
	// Remote scoring service
	Endpoint string
	APIKey   string

	// Pipeline settings
	Threshold  float64 // flag verdicts with score above this (0-1)
	Ecosystems []Ecosystem
	BatchLimit int

	// Batch (CI) settings
	FailOnReview bool
	Comment      bool // upsert a PR comment with the report
	OutputFormat string
	OutputFile   string

	// Interactive settings
	AutoScan   bool
	Debounce   time.Duration
	ListenAddr string

	// Cache settings
	NoCache  bool
	CacheTTL time.Duration

	// API settings
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Endpoint:     "https://api.specter.dev",
		Threshold:    0.5,
		Ecosystems:   []Ecosystem{EcosystemNpm, EcosystemPyPI},
		BatchLimit:   50,
		FailOnReview: false,
		Comment:      true,
		OutputFormat: "terminal",
		AutoScan:     true,
		Debounce:     time.Second,
		ListenAddr:   "127.0.0.1:7430",
		CacheTTL:     time.Hour,
		Timeout:      30 * time.Second,
	}
}

// WantsEcosystem reports whether eco is enabled for this run.
func (c *Config) WantsEcosystem(eco Ecosystem) bool {
	for _, e := range c.Ecosystems {
		if e == eco {
			return true
		}
	}
	return false
}
