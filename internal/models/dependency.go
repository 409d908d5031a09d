package models

import "strings"

// Ecosystem represents a package registry namespace
type Ecosystem string

const (
	EcosystemNpm  Ecosystem = "npm"
	EcosystemPyPI Ecosystem = "pypi"
)

// ParseEcosystem maps user input to a known ecosystem.
func ParseEcosystem(s string) (Ecosystem, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "npm", "node", "javascript":
		return EcosystemNpm, true
	case "pypi", "python", "pip":
		return EcosystemPyPI, true
	}
	return "", false
}

// Coordinate identifies a package in a registry. Version is informational
// and never part of identity: a manifest may pin a version the registry no
// longer serves exactly.
type Coordinate struct {
	Name      string
	Version   string // empty means unknown/unpinned
	Ecosystem Ecosystem
}

// Identity returns the dedupe/join key for this coordinate.
func (c Coordinate) Identity() string {
	return string(c.Ecosystem) + ":" + strings.ToLower(c.Name)
}

// String returns a human-readable representation
func (c Coordinate) String() string {
	if c.Version == "" {
		return c.Name
	}
	return c.Name + "@" + c.Version
}

// Position points at the first character of a package-name token within its
// declaring file. Line and Column are zero-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Record is a single dependency occurrence extracted from a manifest file.
// Immutable after creation.
type Record struct {
	Coordinate
	File string    // owning manifest file
	Pos  *Position // nil when the format does not track positions
}
