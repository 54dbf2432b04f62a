// Package store provides the stage cache and the ChangeRecord repository.
// The pipeline reads the cache before recomputing a stage and writes after;
// it functions correctly, just slower, when no cache is configured.
package store

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Key addresses one stage output blob for one filing.
type Key struct {
	CIK        string
	FiscalYear int
	Stage      string // "normalized", "section", ...
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%d_%s", k.CIK, k.FiscalYear, k.Stage)
}

// StageCache is the cache collaborator contract. Writes are
// first-writer-wins: a concurrent write to an existing key is a no-op.
type StageCache interface {
	Get(ctx context.Context, key Key) ([]byte, bool)
	Put(ctx context.Context, key Key, blob []byte) error
}

// FileCache stores stage blobs as files under a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key Key) string {
	return filepath.Join(c.dir, key.String()+".blob")
}

// Get returns the cached blob for key, if present. Entries whose stored
// content hash no longer matches (truncated or corrupted files) count as
// misses, so the stage is recomputed instead of poisoning the pipeline.
func (c *FileCache) Get(ctx context.Context, key Key) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return nil, false
	}
	blob := data[i+1:]
	if string(data[:i]) != ContentHash(blob) {
		return nil, false
	}
	return blob, true
}

// Put stores blob behind a content-hash header line unless the key already
// exists; the first writer wins.
func (c *FileCache) Put(ctx context.Context, key Key, blob []byte) error {
	path := c.path(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data := append([]byte(ContentHash(blob)+"\n"), blob...)
	return os.WriteFile(path, data, 0o644)
}

// MemCache is an in-process write-once cache. Populated entries are
// read-only; concurrent writers for the same key collapse into a no-op for
// the loser.
type MemCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemCache creates an empty in-memory cache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string][]byte)}
}

func (c *MemCache) Get(ctx context.Context, key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	blob, ok := c.entries[key.String()]
	return blob, ok
}

func (c *MemCache) Put(ctx context.Context, key Key, blob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key.String()
	if _, exists := c.entries[k]; exists {
		return nil
	}
	c.entries[k] = blob
	return nil
}

// ContentHash returns the MD5 hex of content. FileCache stores it with each
// blob so corrupted entries are detected on read.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}
