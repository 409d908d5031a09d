package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/specterhq/specter-scan/internal/cache"
	"github.com/specterhq/specter-scan/internal/models"
)

// ErrMissingCredential is returned before any network call when no API key
// is configured.
var ErrMissingCredential = errors.New("no Specter API key configured")

const (
	authHeader = "X-Specter-Key"
	scanPath   = "/v1/scan"

	// DefaultBatchLimit is the hard per-request package limit of the
	// scoring service.
	DefaultBatchLimit = 50
)

// Client dispatches coordinate batches to the Specter scoring service.
type Client struct {
	endpoint   string
	apiKey     string
	batchLimit int
	httpClient *http.Client
	cache      *cache.VerdictCache // nil disables caching
}

// New creates a scoring-service client. cache may be nil.
func New(cfg *models.Config, vc *cache.VerdictCache) *Client {
	limit := cfg.BatchLimit
	if limit <= 0 || limit > DefaultBatchLimit {
		limit = DefaultBatchLimit
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		batchLimit: limit,
		httpClient: &http.Client{Timeout: timeout},
		cache:      vc,
	}
}

type scanPackage struct {
	Name      string  `json:"name"`
	Version   *string `json:"version"`
	Ecosystem string  `json:"ecosystem"`
}

type scanRequest struct {
	Packages []scanPackage `json:"packages"`
}

type scanResponse struct {
	SessionID      string           `json:"session_id"`
	Packages       []models.Verdict `json:"packages"`
	TotalScanned   int              `json:"total_scanned"`
	TotalFlagged   int              `json:"total_flagged"`
	ResponseTimeMs int              `json:"response_time_ms"`
}

// Scan submits the coordinates in chunks no larger than the batch limit and
// merges the responses. Chunks go out sequentially in input order. Any
// chunk failure (network error, non-200 status, malformed body, timeout)
// aborts the whole dispatch: a misleading partial success is never
// returned. Retrying is the caller's policy.
func (c *Client) Scan(ctx context.Context, coords []models.Coordinate) ([]models.Verdict, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	var verdicts []models.Verdict

	// Cached coordinates never leave the process.
	pending := coords
	if c.cache != nil {
		pending = pending[:0:0]
		for _, coord := range coords {
			if v, ok := c.cache.Get(coord); ok {
				verdicts = append(verdicts, v)
				continue
			}
			pending = append(pending, coord)
		}
	}

	total := (len(pending) + c.batchLimit - 1) / c.batchLimit
	for i := 0; i < len(pending); i += c.batchLimit {
		end := i + c.batchLimit
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[i:end]

		resp, err := c.scanChunk(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("scan chunk %d/%d: %w", i/c.batchLimit+1, total, err)
		}

		verdicts = append(verdicts, resp.Packages...)

		if c.cache != nil {
			byIdentity := make(map[string]models.Coordinate, len(chunk))
			for _, coord := range chunk {
				byIdentity[coord.Identity()] = coord
			}
			for _, v := range resp.Packages {
				if coord, ok := byIdentity[v.Identity()]; ok {
					c.cache.Put(coord, v)
				}
			}
		}
	}

	return verdicts, nil
}

func (c *Client) scanChunk(ctx context.Context, chunk []models.Coordinate) (*scanResponse, error) {
	reqBody := scanRequest{Packages: make([]scanPackage, len(chunk))}
	for i, coord := range chunk {
		pkg := scanPackage{Name: coord.Name, Ecosystem: string(coord.Ecosystem)}
		if coord.Version != "" {
			v := coord.Version
			pkg.Version = &v
		}
		reqBody.Packages[i] = pkg
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+scanPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var parsed scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("malformed scan response: %w", err)
	}

	return &parsed, nil
}
