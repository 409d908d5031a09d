package host

import (
	"sync"

	"github.com/specterhq/specter-scan/internal/models"
)

// Store is the in-process result arena backing the host surface. Each
// file's entry is written only by that file's own scan completion and is
// fully replaced on every publish, so no stale annotation survives a
// rescan. Everything here dies with the process.
type Store struct {
	mu     sync.RWMutex
	diags  map[string][]Diagnostic
	anns   map[string][]models.Annotation
	status Status
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		diags:  make(map[string][]Diagnostic),
		anns:   make(map[string][]models.Annotation),
		status: Status{State: StatusIdle},
	}
}

var (
	_ DiagnosticsSink = (*Store)(nil)
	_ StatusItem      = (*Store)(nil)
)

// Publish replaces the diagnostics for a file.
func (s *Store) Publish(file string, diags []Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags[file] = diags
}

// PublishAnnotations replaces the bound annotations for a file, backing
// the hover provider.
func (s *Store) PublishAnnotations(file string, anns []models.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anns[file] = anns
}

// Clear drops all state for a file, e.g. when the editor closes it.
func (s *Store) Clear(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.diags, file)
	delete(s.anns, file)
}

// Diagnostics returns the current diagnostics for a file.
func (s *Store) Diagnostics(file string) []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diags[file]
}

// Files lists every file with published results.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]string, 0, len(s.diags))
	for f := range s.diags {
		files = append(files, f)
	}
	return files
}

// HoverAt returns hover text for the record covering the given position,
// if any.
func (s *Store) HoverAt(file string, line, col int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.anns[file] {
		if a.Record.Pos == nil || a.Record.Pos.Line != line {
			continue
		}
		start := a.Record.Pos.Column
		if col >= start && col < start+len(a.Record.Name) {
			return HoverText(a), true
		}
	}
	return "", false
}

// SetStatus updates the status indicator.
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Status returns the current status triple.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
