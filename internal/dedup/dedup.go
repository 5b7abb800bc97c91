// Package dedup remembers which posting URLs were already reported, so
// repeated scrape runs stay quiet about jobs the candidate has seen.
package dedup

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

const retention = 30 * 24 * time.Hour

type seenEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

// Cache is a disk-backed set of seen posting URLs. Entries expire after 30
// days so reposted jobs eventually resurface.
type Cache struct {
	mu       sync.Mutex
	filePath string
	seen     mapset.Set[string]
	stamps   map[string]int64
	log      *slog.Logger
}

// NewCache creates or loads the cache under cacheDir.
func NewCache(cacheDir string, log *slog.Logger) *Cache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn("failed to create cache directory", slog.String("err", err.Error()))
	}
	c := &Cache{
		filePath: filepath.Join(cacheDir, "seen_jobs.json"),
		seen:     mapset.NewThreadUnsafeSet[string](),
		stamps:   make(map[string]int64),
		log:      log,
	}
	c.load()
	return c
}

// IsSeen reports whether a URL was already processed within the retention
// window.
func (c *Cache) IsSeen(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen.Contains(url)
}

// Add marks URLs as seen and persists the cache when anything changed.
func (c *Cache) Add(urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	changed := false
	for _, url := range urls {
		if c.seen.Add(url) {
			c.stamps[url] = now
			changed = true
		}
	}
	if changed {
		c.save()
	}
}

// Unseen filters urls down to the ones not in the cache, preserving order.
func (c *Cache) Unseen(urls []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	for _, url := range urls {
		if !c.seen.Contains(url) {
			out = append(out, url)
		}
	}
	return out
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("failed to read seen jobs cache", slog.String("err", err.Error()))
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.log.Warn("failed to parse seen jobs cache", slog.String("err", err.Error()))
		return
	}

	cutoff := time.Now().Add(-retention).UnixMilli()
	for _, e := range entries {
		if e.Timestamp > cutoff {
			c.seen.Add(e.URL)
			c.stamps[e.URL] = e.Timestamp
		}
	}
	c.log.Debug("loaded seen jobs cache",
		slog.Int("active", c.seen.Cardinality()),
		slog.Int("expired", len(entries)-c.seen.Cardinality()))
}

// save is called with the mutex held.
func (c *Cache) save() {
	entries := make([]seenEntry, 0, c.seen.Cardinality())
	for url, ts := range c.stamps {
		entries = append(entries, seenEntry{URL: url, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		c.log.Warn("failed to marshal seen jobs", slog.String("err", err.Error()))
		return
	}
	if err := os.WriteFile(c.filePath, data, 0644); err != nil {
		c.log.Warn("failed to write seen jobs cache", slog.String("err", err.Error()))
	}
}
