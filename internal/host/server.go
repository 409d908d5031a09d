package host

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// ScanAllFunc forces a full-workspace scan, bypassing debounce.
type ScanAllFunc func(ctx context.Context) error

// Server exposes the host surface over loopback HTTP so an editor plugin
// can render diagnostics, hovers, and the status item without linking
// against this process.
type Server struct {
	store   *Store
	scanAll ScanAllFunc
}

// NewServer creates the host surface handler.
func NewServer(store *Store, scanAll ScanAllFunc) http.Handler {
	s := &Server{store: store, scanAll: scanAll}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/files", s.handleFiles)
		rt.Get("/diagnostics", s.handleDiagnostics)
		rt.Get("/hover", s.handleHover)
		rt.Get("/status", s.handleStatus)
		rt.Post("/scan", s.handleScanAll)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// GET /v1/files
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"files": s.store.Files()})
}

// GET /v1/diagnostics?file=...
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	diags := s.store.Diagnostics(file)
	if diags == nil {
		diags = []Diagnostic{}
	}
	writeJSON(w, map[string]any{"file": file, "diagnostics": diags})
}

// GET /v1/hover?file=...&line=...&col=...
func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := q.Get("file")
	line, lineErr := strconv.Atoi(q.Get("line"))
	col, colErr := strconv.Atoi(q.Get("col"))
	if file == "" || lineErr != nil || colErr != nil {
		http.Error(w, "file, line, and col are required", http.StatusBadRequest)
		return
	}

	text, ok := s.store.HoverAt(file, line, col)
	if !ok {
		http.Error(w, "no annotation at position", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"contents": text})
}

// GET /v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Status())
}

// POST /v1/scan
func (s *Server) handleScanAll(w http.ResponseWriter, r *http.Request) {
	if err := s.scanAll(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, s.store.Status())
}
