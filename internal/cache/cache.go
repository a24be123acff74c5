package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// SchemaVersion is the entry format version. Entries written with any other
// version are treated as misses.
const SchemaVersion = "1.0"

// DefaultTTL is the default entry lifetime, measured from file modification
// time rather than a timestamp stored inside the entry.
const DefaultTTL = 24 * time.Hour

// IDStamp identifies one review for fingerprinting purposes.
type IDStamp struct {
	ID        int64
	CreatedAt time.Time
}

// Request carries everything that identifies one scorer invocation. Two
// requests with the same identity, review set, instruction, and count map to
// the same cache key regardless of review order.
type Request struct {
	Identity       string
	Reviews        []IDStamp
	Instruction    string
	RequestedCount int
}

// Fingerprint returns an order-independent hash of a review set, derived
// from sorted (id, createdAt) pairs.
func Fingerprint(stamps []IDStamp) string {
	if len(stamps) == 0 {
		return "empty"
	}
	sorted := make([]IDStamp, len(stamps))
	copy(sorted, stamps)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	h := sha256.New()
	for _, s := range sorted {
		fmt.Fprintf(h, "%d@%d|", s.ID, s.CreatedAt.UnixNano())
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Key returns the deterministic cache key for the request.
func (r Request) Key() string {
	material := fmt.Sprintf("identity:%s|reviews:%s|instruction:%s|count:%d",
		r.Identity, Fingerprint(r.Reviews), hashString(r.Instruction), r.RequestedCount)
	return hashString(material)
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

type metadata struct {
	CacheKey               string    `json:"cache_key"`
	CreatedAt              time.Time `json:"created_at"`
	ScorerIdentity         string    `json:"scorer_identity"`
	ReviewCount            int       `json:"review_count"`
	RequestedCount         int       `json:"requested_count"`
	InstructionFingerprint string    `json:"instruction_fingerprint"`
}

type envelope struct {
	Version  string          `json:"version"`
	Metadata metadata        `json:"metadata"`
	Result   json.RawMessage `json:"result"`
}

// Cache is a file-based store for scorer and selector results, one JSON file
// per key. Concurrent writers for different keys are safe; same-key races
// resolve last-write-wins via atomic rename.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	log     *slog.Logger
}

// New creates a Cache rooted at dir. An empty dir selects the platform
// default. A zero or negative ttl falls back to DefaultTTL.
func New(enabled bool, dir string, ttl time.Duration, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}
	if !enabled {
		return &Cache{enabled: false, log: log}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{dir: dir, ttl: ttl, enabled: true, log: log}, nil
}

// Get loads the cached result for req into out. It returns false on any
// miss condition: absent file, expired TTL, version mismatch, or an
// unreadable/corrupt entry. Lookup errors are never propagated; a corrupt
// entry simply means the caller recomputes.
func (c *Cache) Get(req Request, out any) bool {
	if !c.enabled {
		return false
	}
	key := req.Key()
	path := c.entryPath(key)

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > c.ttl {
		c.log.Warn("cache entry expired", "key", key[:8])
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.log.Warn("cache read failed", "key", key[:8], "error", err)
		return false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("cache entry corrupt", "key", key[:8], "error", err)
		return false
	}
	if env.Version != SchemaVersion {
		c.log.Warn("cache version mismatch", "key", key[:8], "version", env.Version)
		return false
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		c.log.Warn("cache result decode failed", "key", key[:8], "error", err)
		return false
	}
	return true
}

// Put stores v as the result for req. The entry is written to a temporary
// file and renamed into place so a concurrent reader never observes a
// partial write.
func (c *Cache) Put(req Request, v any) error {
	if !c.enabled {
		return nil
	}
	key := req.Key()

	result, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache result: %w", err)
	}
	env := envelope{
		Version: SchemaVersion,
		Metadata: metadata{
			CacheKey:               key,
			CreatedAt:              time.Now(),
			ScorerIdentity:         req.Identity,
			ReviewCount:            len(req.Reviews),
			RequestedCount:         req.RequestedCount,
			InstructionFingerprint: hashString(req.Instruction)[:8],
		},
		Result: result,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.entryPath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming cache entry: %w", err)
	}
	return nil
}

// EvictExpired removes all entries older than the TTL and returns the count
// removed. Errors on individual files are logged and skipped.
func (c *Cache) EvictExpired() int {
	if !c.enabled || c.dir == "" {
		return 0
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.log.Warn("cache sweep failed", "error", err)
		return 0
	}
	removed := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			c.log.Warn("cache sweep stat failed", "file", e.Name(), "error", err)
			continue
		}
		if time.Since(info.ModTime()) <= c.ttl {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			c.log.Warn("cache sweep remove failed", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed
}

// Clear removes all cache entries regardless of age.
func (c *Cache) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			_ = os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// Stats describes the current cache contents.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		if time.Since(info.ModTime()) > c.ttl {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "bestrev"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "bestrev"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "bestrev", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "bestrev", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "bestrev"), nil
	}
}
