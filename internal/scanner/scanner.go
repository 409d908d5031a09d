package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/specterhq/specter-scan/internal/cache"
	"github.com/specterhq/specter-scan/internal/client"
	"github.com/specterhq/specter-scan/internal/manifest"
	"github.com/specterhq/specter-scan/internal/models"
)

// excludedDirs are path segments that hold installed or vendored
// dependencies. Manifests under them are never scanned.
var excludedDirs = map[string]struct{}{
	"node_modules":  {},
	".git":          {},
	"vendor":        {},
	"__pycache__":   {},
	".venv":         {},
	"venv":          {},
	"site-packages": {},
	"dist":          {},
	"build":         {},
}

// Excluded reports whether any segment of path is an excluded directory.
func Excluded(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := excludedDirs[seg]; ok {
			return true
		}
	}
	return false
}

// Scanner runs the extract -> dedupe -> dispatch pipeline over manifests.
type Scanner struct {
	cfg    *models.Config
	client *client.Client
	logger *slog.Logger
}

// New creates a Scanner with the given configuration
func New(cfg *models.Config, logger *slog.Logger) *Scanner {
	var vc *cache.VerdictCache
	if !cfg.NoCache {
		// Non-fatal: continue without cache
		vc, _ = cache.New("specter-scan", cfg.CacheTTL)
	}

	return &Scanner{
		cfg:    cfg,
		client: client.New(cfg, vc),
		logger: logger,
	}
}

// ScanPaths discovers manifests under the given paths and runs the full
// pipeline over everything found.
func (s *Scanner) ScanPaths(ctx context.Context, paths []string) (*models.ScanResult, error) {
	files, err := s.Discover(paths)
	if err != nil {
		return nil, fmt.Errorf("discover manifests: %w", err)
	}

	var covered []string
	var records []models.Record
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			s.logger.Warn("skipping unreadable manifest", "file", file, "error", err)
			continue
		}
		covered = append(covered, file)
		records = append(records, manifest.ExtractFile(file, content)...)
	}

	result, err := s.ScanRecords(ctx, records)
	if err != nil {
		return nil, err
	}
	result.Files = covered
	return result, nil
}

// ScanFile re-reads a single manifest and runs the pipeline over it. The
// interactive mode relies on the re-read: a scan must cover the file's
// current content, not the content present when the trigger fired.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*models.ScanResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	result, err := s.ScanRecords(ctx, manifest.ExtractFile(path, content))
	if err != nil {
		return nil, err
	}
	result.Files = []string{path}
	return result, nil
}

// ScanRecords filters, dedupes, and dispatches already-extracted records.
func (s *Scanner) ScanRecords(ctx context.Context, records []models.Record) (*models.ScanResult, error) {
	result := &models.ScanResult{RunID: uuid.NewString()}

	records = manifest.FilterEcosystems(records, s.cfg.Ecosystems)
	records = manifest.Dedupe(records)
	result.Records = records

	if len(records) == 0 {
		return result, nil
	}

	logger := s.logger.With("run_id", result.RunID)
	logger.Info("dispatching scan", "coordinates", len(records))

	verdicts, err := s.client.Scan(ctx, manifest.Coordinates(records))
	if err != nil {
		return nil, err
	}
	result.Verdicts = verdicts

	logger.Info("scan complete", "verdicts", len(verdicts))
	return result, nil
}

// Discover walks the given paths and collects manifest files, skipping
// excluded directories.
func (s *Scanner) Discover(paths []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat path %s: %w", path, err)
		}

		if !info.IsDir() {
			if manifest.For(path) != nil && !Excluded(path) {
				files = append(files, path)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if _, skip := excludedDirs[d.Name()]; skip {
					return filepath.SkipDir
				}
				return nil
			}
			if manifest.For(p) != nil {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
