package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specterhq/specter-scan/internal/cache"
	"github.com/specterhq/specter-scan/internal/models"
)

func coords(n int) []models.Coordinate {
	out := make([]models.Coordinate, n)
	for i := range out {
		out[i] = models.Coordinate{
			Name:      fmt.Sprintf("pkg-%03d", i),
			Version:   "1.0.0",
			Ecosystem: models.EcosystemNpm,
		}
	}
	return out
}

func respondWithVerdicts(t *testing.T, w http.ResponseWriter, pkgs []scanPackage) {
	t.Helper()
	verdicts := make([]models.Verdict, len(pkgs))
	for i, p := range pkgs {
		verdicts[i] = models.Verdict{
			Name:      p.Name,
			Ecosystem: p.Ecosystem,
			Version:   p.Version,
			Score:     0.1,
			Verdict:   models.VerdictSafe,
		}
	}
	_ = json.NewEncoder(w).Encode(scanResponse{
		SessionID:    "s-1",
		Packages:     verdicts,
		TotalScanned: len(verdicts),
	})
}

func testConfig(endpoint string) *models.Config {
	cfg := models.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.APIKey = "test-key"
	return cfg
}

func TestScanChunking(t *testing.T) {
	var chunkSizes []int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/scan", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Specter-Key"))

		var req scanRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		chunkSizes = append(chunkSizes, len(req.Packages))
		respondWithVerdicts(t, w, req.Packages)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil)
	verdicts, err := c.Scan(context.Background(), coords(120))
	require.NoError(t, err)

	// 120 unique coordinates produce exactly 3 calls of 50, 50, 20.
	assert.Equal(t, []int{50, 50, 20}, chunkSizes)
	require.Len(t, verdicts, 120)

	// Concatenation of chunk responses, in order, is the total result.
	assert.Equal(t, "pkg-000", verdicts[0].Name)
	assert.Equal(t, "pkg-119", verdicts[119].Name)
}

func TestScanAllOrNothing(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var req scanRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		respondWithVerdicts(t, w, req.Packages)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil)
	verdicts, err := c.Scan(context.Background(), coords(60))

	// A failed chunk aborts the whole dispatch with no partial result.
	require.Error(t, err)
	assert.Nil(t, verdicts)
	assert.Equal(t, 2, calls)
}

func TestScanMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil)
	_, err := c.Scan(context.Background(), coords(1))
	require.Error(t, err)
}

func TestScanEmptyInputNoNetworkCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil)
	verdicts, err := c.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestScanMissingCredential(t *testing.T) {
	cfg := testConfig("http://localhost:0")
	cfg.APIKey = ""

	c := New(cfg, nil)
	_, err := c.Scan(context.Background(), coords(1))
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestScanNullVersionSerialized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Packages []map[string]any `json:"packages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.Len(t, raw.Packages, 1)
		v, present := raw.Packages[0]["version"]
		assert.True(t, present)
		assert.Nil(t, v)

		_ = json.NewEncoder(w).Encode(scanResponse{})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), nil)
	_, err := c.Scan(context.Background(), []models.Coordinate{
		{Name: "mystery", Ecosystem: models.EcosystemNpm},
	})
	require.NoError(t, err)
}

func TestScanUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req scanRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		respondWithVerdicts(t, w, req.Packages)
	}))
	defer srv.Close()

	vc := &cache.VerdictCache{Dir: t.TempDir(), TTL: time.Hour}
	c := New(testConfig(srv.URL), vc)

	input := coords(3)
	_, err := c.Scan(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// Second scan of the same coordinates is served from the cache.
	verdicts, err := c.Scan(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, verdicts, 3)
}
