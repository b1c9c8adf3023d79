// Package assets resolves sidecar files across several asset directories.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager looks up sidecar files by name in a list of directories. It
// satisfies formats.SidecarResolver.
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a manager searching dirs.
func NewManager(dirs ...string) *Manager {
	m := &Manager{cache: NewCache()}
	m.dirs = append(m.dirs, dirs...)
	return m
}

// AddDir adds a directory to the search list.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("adding asset dir %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset dir %s: not a directory", path)
	}

	m.mu.Lock()
	m.dirs = append(m.dirs, path)
	m.mu.Unlock()
	return nil
}

// Dirs returns the search list in priority order.
func (m *Manager) Dirs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.dirs))
	for i := len(m.dirs) - 1; i >= 0; i-- {
		out = append(out, m.dirs[i])
	}
	return out
}

// Open loads name from the first directory that has it. A name that only
// matches an existing file case-insensitively is accepted too, since the
// game's own file system ignores case.
func (m *Manager) Open(name string) ([]byte, error) {
	key := strings.ToLower(filepath.ToSlash(name))
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	for _, dir := range m.Dirs() {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			folded, ok := findFold(dir, name)
			if !ok {
				continue
			}
			if data, err = os.ReadFile(folded); err != nil {
				continue
			}
		}
		m.cache.Set(key, data)
		return data, nil
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// findFold resolves name under dir matching every path element ignoring case.
func findFold(dir, name string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(name), "/")
	cur := dir
	for i, part := range parts {
		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", false
		}
		last := i == len(parts)-1
		found := false
		for _, e := range entries {
			if e.IsDir() != last && strings.EqualFold(e.Name(), part) {
				cur = filepath.Join(cur, e.Name())
				found = true
				break
			}
		}
		if !found {
			return "", false
		}
	}
	return cur, true
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops cached files.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
