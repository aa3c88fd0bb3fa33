// Package cache keeps the last glucose reading on disk so the status
// command can answer without a network round-trip.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/paths"
)

type Entry struct {
	Reading   dexcom.Reading `json:"reading"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Cache is a single-entry JSON file.
type Cache struct {
	Path string
	Now  func() time.Time
}

// Default returns the cache at the per-user cache location.
func Default() (*Cache, error) {
	path, err := paths.ReadingCacheFile()
	if err != nil {
		return nil, err
	}
	return &Cache{Path: path}, nil
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache) Read() (*Entry, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return &entry, nil
}

// Fresh returns the cached entry when it is younger than ttl. A zero ttl
// disables the cache.
func (c *Cache) Fresh(ttl time.Duration) (*Entry, bool) {
	if ttl <= 0 {
		return nil, false
	}
	entry, err := c.Read()
	if err != nil {
		return nil, false
	}
	return entry, entry.IsValid(c.now(), ttl)
}

// IsValid reports whether the entry was fetched within ttl of now.
func (e *Entry) IsValid(now time.Time, ttl time.Duration) bool {
	age := now.Sub(e.FetchedAt)
	return age >= 0 && age < ttl
}

func (c *Cache) Write(reading dexcom.Reading) error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(Entry{Reading: reading, FetchedAt: c.now()})
	if err != nil {
		return err
	}

	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmp, c.Path)
}
