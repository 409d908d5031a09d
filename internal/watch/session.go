package watch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/specterhq/specter-scan/internal/binder"
	"github.com/specterhq/specter-scan/internal/client"
	"github.com/specterhq/specter-scan/internal/host"
	"github.com/specterhq/specter-scan/internal/models"
	"github.com/specterhq/specter-scan/internal/scanner"
)

// Session wires the pipeline to the host surface for interactive use: it
// reacts to triggers, runs scans, and publishes bound results into the
// store the host serves from.
type Session struct {
	cfg     *models.Config
	scanner *scanner.Scanner
	store   *host.Store
	ctrl    *Controller
	logger  *slog.Logger
	paths   []string
}

// NewSession creates an interactive session over the given workspace paths.
func NewSession(cfg *models.Config, sc *scanner.Scanner, store *host.Store, logger *slog.Logger, paths []string) *Session {
	s := &Session{
		cfg:     cfg,
		scanner: sc,
		store:   store,
		logger:  logger,
		paths:   paths,
	}
	s.ctrl = NewController(cfg.Debounce, s.scanFile, logger)
	return s
}

// Controller exposes the trigger controller for the watcher and host.
func (s *Session) Controller() *Controller { return s.ctrl }

// scanFile runs the pipeline for one file and publishes the outcome. This
// is the ScanFunc the controller invokes after debounce settles.
func (s *Session) scanFile(ctx context.Context, file string) {
	s.store.SetStatus(host.Status{State: host.StatusScanning, Text: "scanning", Tooltip: file})

	result, err := s.scanner.ScanFile(ctx, file)
	if err != nil {
		s.publishFailure(err)
		return
	}
	s.publish(result)
}

// ScanAll runs the pipeline over every manifest in the workspace
// immediately, bypassing debounce. Per-file debounce state is untouched.
func (s *Session) ScanAll(ctx context.Context) error {
	s.store.SetStatus(host.Status{State: host.StatusScanning, Text: "scanning", Tooltip: "full workspace scan"})

	result, err := s.scanner.ScanPaths(ctx, s.paths)
	if err != nil {
		s.publishFailure(err)
		return err
	}
	s.publish(result)
	return nil
}

// publish binds verdicts to records and replaces the store's per-file
// entries for every file the scan covered.
func (s *Session) publish(result *models.ScanResult) {
	bound := binder.Bind(result.Records, result.Verdicts)
	diags := host.Diagnostics(bound, s.cfg.Threshold)

	// Every file the scan covered gets its entries replaced, including
	// files that extracted no records at all: a manifest whose
	// dependencies were deleted, or that turned malformed, must shed the
	// previous revision's annotations.
	covered := make(map[string]struct{}, len(result.Files))
	for _, f := range result.Files {
		covered[f] = struct{}{}
	}
	for _, r := range result.Records {
		covered[r.File] = struct{}{}
	}
	for file := range covered {
		s.store.Publish(file, diags[file])
		s.store.PublishAnnotations(file, bound[file])
	}

	cls := binder.Classify(result.Verdicts, s.cfg.Threshold, false)
	s.store.SetStatus(host.Status{
		State:   host.StatusIdle,
		Text:    host.SummaryText(len(result.Verdicts), len(cls.Flagged)),
		Tooltip: "last scan " + result.RunID,
	})
}

// publishFailure surfaces a transport or configuration failure on the
// status item. No annotations change: the worst outcome of a failed round
// is "nothing new this round".
func (s *Session) publishFailure(err error) {
	if errors.Is(err, client.ErrMissingCredential) {
		s.logger.Warn("scan skipped", "error", err)
		s.store.SetStatus(host.Status{State: host.StatusIdle, Text: "not configured", Tooltip: err.Error()})
		return
	}
	s.logger.Error("scan failed", "error", err)
	s.store.SetStatus(host.Status{State: host.StatusError, Text: "scan failed", Tooltip: err.Error()})
}
