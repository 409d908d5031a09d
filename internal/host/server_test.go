package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specterhq/specter-scan/internal/models"
)

func testServer(t *testing.T, store *Store, scanAll ScanAllFunc) *httptest.Server {
	t.Helper()
	if scanAll == nil {
		scanAll = func(ctx context.Context) error { return nil }
	}
	srv := httptest.NewServer(NewServer(store, scanAll))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestServerDiagnostics(t *testing.T) {
	store := NewStore()
	store.Publish("package.json", []Diagnostic{{
		Range:    Range{Start: models.Position{Line: 2, Column: 5}, End: models.Position{Line: 2, Column: 11}},
		Severity: SeverityBlocking,
		Message:  "lodash: blocked",
	}})

	srv := testServer(t, store, nil)

	var body struct {
		File        string       `json:"file"`
		Diagnostics []Diagnostic `json:"diagnostics"`
	}
	resp := getJSON(t, srv.URL+"/v1/diagnostics?file=package.json", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Diagnostics, 1)
	assert.Equal(t, SeverityBlocking, body.Diagnostics[0].Severity)

	// Unknown file yields an empty list, not an error.
	resp = getJSON(t, srv.URL+"/v1/diagnostics?file=unknown.json", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body.Diagnostics)

	resp = getJSON(t, srv.URL+"/v1/diagnostics", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerHover(t *testing.T) {
	store := NewStore()
	store.PublishAnnotations("package.json", []models.Annotation{{
		Record: models.Record{
			Coordinate: models.Coordinate{Name: "lodash", Ecosystem: models.EcosystemNpm},
			File:       "package.json",
			Pos:        &models.Position{Line: 1, Column: 4},
		},
		Verdict: models.Verdict{Name: "lodash", Score: 0.8, Verdict: models.VerdictReview},
	}})

	srv := testServer(t, store, nil)

	var body struct {
		Contents string `json:"contents"`
	}
	resp := getJSON(t, srv.URL+"/v1/hover?file=package.json&line=1&col=6", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body.Contents, "lodash")

	resp = getJSON(t, srv.URL+"/v1/hover?file=package.json&line=9&col=0", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerStatusAndScan(t *testing.T) {
	store := NewStore()
	called := false
	scanAll := func(ctx context.Context) error {
		called = true
		store.SetStatus(Status{State: StatusIdle, Text: "3 clean"})
		return nil
	}

	srv := testServer(t, store, scanAll)

	resp, err := http.Post(srv.URL+"/v1/scan", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, called)

	var status Status
	getJSON(t, srv.URL+"/v1/status", &status)
	assert.Equal(t, "3 clean", status.Text)
}
