// Package cache records which files have already been stripped so unchanged
// files can be skipped on the next run.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultFileName is the cache file created at the repository root.
const DefaultFileName = ".pystrip-cache.json"

// FileCache maps root-relative paths to the modification time each file had
// when it was last processed. It is safe for concurrent use.
type FileCache struct {
	ProcessedFiles map[string]time.Time `json:"processed_files"`

	mu   sync.Mutex
	root string
	path string
}

// Load reads the cache stored as name under root. A missing file yields an
// empty cache.
func Load(root, name string) (*FileCache, error) {
	if name == "" {
		name = DefaultFileName
	}

	c := &FileCache{
		ProcessedFiles: make(map[string]time.Time),
		root:           root,
		path:           filepath.Join(root, name),
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		// Missing cache file is not an error; initialize with empty cache
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if c.ProcessedFiles == nil {
		c.ProcessedFiles = make(map[string]time.Time)
	}

	return c, nil
}

// Path returns the location of the cache file.
func (c *FileCache) Path() string { return c.path }

// Save writes the cache back to disk.
func (c *FileCache) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// relative converts a path to a root-relative key. Relative keys keep the
// cache valid when the repository is moved.
func (c *FileCache) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return "", fmt.Errorf("failed to make path relative: %w", err)
	}

	return filepath.ToSlash(rel), nil
}

// ShouldProcess reports whether path was modified after it was last
// processed, or was never processed at all.
func (c *FileCache) ShouldProcess(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	rel, err := c.relative(path)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	lastProcessed, exists := c.ProcessedFiles[rel]
	c.mu.Unlock()
	if !exists {
		return true, nil
	}

	return info.ModTime().After(lastProcessed), nil
}

// MarkProcessed records the file's modification time rather than the current
// time, so edits made while a run is in progress are picked up next time.
func (c *FileCache) MarkProcessed(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	rel, err := c.relative(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ProcessedFiles[rel] = info.ModTime()
	c.mu.Unlock()
	return nil
}
