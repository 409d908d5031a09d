package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/specterhq/specter-scan/internal/models"
)

// VerdictCache stores per-coordinate verdicts on disk so unchanged
// dependencies do not hit the scoring service on every scan. The TTL
// mirrors the service's own cache window.
type VerdictCache struct {
	Dir string
	TTL time.Duration
}

// DefaultTTL is the default cache time-to-live
const DefaultTTL = time.Hour

// New creates a verdict cache under the user cache directory.
func New(appName string, ttl time.Duration) (*VerdictCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(base, appName, "verdicts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &VerdictCache{Dir: dir, TTL: ttl}, nil
}

// key hashes a coordinate into a safe filename. Version participates so a
// manifest edit that only bumps a version misses the cache.
func (c *VerdictCache) key(coord models.Coordinate) string {
	hash := sha256.Sum256([]byte(coord.Identity() + "@" + coord.Version))
	return hex.EncodeToString(hash[:16]) + ".json"
}

// Get returns the cached verdict for a coordinate if present and fresh.
func (c *VerdictCache) Get(coord models.Coordinate) (models.Verdict, bool) {
	path := filepath.Join(c.Dir, c.key(coord))

	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) > c.TTL {
		return models.Verdict{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Verdict{}, false
	}

	var v models.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return models.Verdict{}, false
	}
	return v, true
}

// Put stores a verdict for a coordinate. Errors are deliberately dropped:
// a failed cache write only costs a future network call.
func (c *VerdictCache) Put(coord models.Coordinate, v models.Verdict) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(c.Dir, c.key(coord)), data, 0644)
}

// Clear removes all cached verdicts.
func (c *VerdictCache) Clear() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.Dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
