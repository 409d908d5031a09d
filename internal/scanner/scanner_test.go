package scanner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specterhq/specter-scan/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded("node_modules/lodash/package.json"))
	assert.True(t, Excluded("app/.venv/lib/requirements.txt"))
	assert.True(t, Excluded(filepath.FromSlash("web/dist/package.json")))
	assert.False(t, Excluded("services/api/package.json"))
	assert.False(t, Excluded("requirements.txt"))
}

func TestDiscoverSkipsVendoredTrees(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{}`)
	writeFile(t, filepath.Join(dir, "api", "requirements.txt"), "")
	writeFile(t, filepath.Join(dir, "api", "pyproject.toml"), "")
	writeFile(t, filepath.Join(dir, "node_modules", "left-pad", "package.json"), `{}`)
	writeFile(t, filepath.Join(dir, "api", "__pycache__", "requirements.txt"), "")
	writeFile(t, filepath.Join(dir, "README.md"), "docs")

	cfg := models.DefaultConfig()
	s := New(cfg, discardLogger())

	files, err := s.Discover([]string{dir})
	require.NoError(t, err)

	require.Len(t, files, 3)
	for _, f := range files {
		assert.False(t, Excluded(f), "discovered excluded path %s", f)
	}
}

func TestDiscoverSingleFile(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "requirements.txt")
	writeFile(t, manifest, "requests==2.28.0\n")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, other, "")

	cfg := models.DefaultConfig()
	s := New(cfg, discardLogger())

	files, err := s.Discover([]string{manifest})
	require.NoError(t, err)
	assert.Equal(t, []string{manifest}, files)

	files, err = s.Discover([]string{other})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanPathsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{
  "dependencies": {"lodash": "^4.17.21"}
}`)
	writeFile(t, filepath.Join(dir, "requirements.txt"), "requests==2.28.0\nlodash==1.0.0\n")

	var gotAuth string
	var gotNames []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Specter-Key")

		var req struct {
			Packages []struct {
				Name      string `json:"name"`
				Ecosystem string `json:"ecosystem"`
			} `json:"packages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, p := range req.Packages {
			gotNames = append(gotNames, p.Ecosystem+":"+p.Name)
		}

		resp := map[string]any{
			"session_id": "s-1",
			"packages": []map[string]any{
				{"name": "lodash", "ecosystem": "npm", "score": 0.1, "verdict": "safe"},
				{"name": "requests", "ecosystem": "pypi", "score": 0.2, "verdict": "safe"},
				{"name": "lodash", "ecosystem": "pypi", "score": 0.9, "verdict": "blocked"},
			},
			"total_scanned": 3,
			"total_flagged": 1,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := models.DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.APIKey = "sk-test"
	cfg.NoCache = true
	cfg.Timeout = 5 * time.Second

	s := New(cfg, discardLogger())

	result, err := s.ScanPaths(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "sk-test", gotAuth)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "package.json"),
		filepath.Join(dir, "requirements.txt"),
	}, result.Files)

	// Same name in different ecosystems stays distinct through dedupe.
	assert.Len(t, result.Records, 3)
	assert.Contains(t, gotNames, "npm:lodash")
	assert.Contains(t, gotNames, "pypi:lodash")
	assert.Contains(t, gotNames, "pypi:requests")
	assert.Len(t, result.Verdicts, 3)
}

func TestScanRecordsFiltersEcosystems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Packages []struct {
				Ecosystem string `json:"ecosystem"`
			} `json:"packages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, p := range req.Packages {
			assert.Equal(t, "npm", p.Ecosystem)
		}
		json.NewEncoder(w).Encode(map[string]any{"session_id": "s-2", "packages": []any{}})
	}))
	defer srv.Close()

	cfg := models.DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.APIKey = "sk-test"
	cfg.NoCache = true
	cfg.Ecosystems = []models.Ecosystem{models.EcosystemNpm}

	s := New(cfg, discardLogger())

	records := []models.Record{
		{Coordinate: models.Coordinate{Name: "lodash", Ecosystem: models.EcosystemNpm}, File: "package.json"},
		{Coordinate: models.Coordinate{Name: "requests", Ecosystem: models.EcosystemPyPI}, File: "requirements.txt"},
	}

	result, err := s.ScanRecords(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "lodash", result.Records[0].Name)
}

func TestScanRecordsEmptySkipsDispatch(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Endpoint = "http://127.0.0.1:1" // would fail if contacted
	cfg.APIKey = "sk-test"
	cfg.NoCache = true

	s := New(cfg, discardLogger())

	result, err := s.ScanRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Verdicts)
}
