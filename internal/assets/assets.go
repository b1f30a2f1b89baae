// Package assets resolves model files from GRF archives and loose
// directories, caching the raw bytes.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/drawstate/internal/logger"
	"github.com/Faultbox/drawstate/pkg/grf"
)

// ErrNotFound is returned when no source holds the requested path.
var ErrNotFound = errors.New("asset not found")

// Source is one place assets can be read from. Read returns an error
// wrapping ErrNotFound when the source does not hold the path.
type Source interface {
	Read(path string) ([]byte, error)
	Contains(path string) bool
	Close() error
	String() string
}

// Manager handles asset loading from an ordered list of sources.
// Sources are searched in reverse order (last added = highest priority).
type Manager struct {
	sources []Source
	cache   *Cache
	log     *zap.Logger
	mu      sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// AddArchive adds a GRF archive to the manager.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.AddSource(&archiveSource{path: path, archive: archive})
	return nil
}

// AddDir adds a loose directory to the manager.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding directory %s: not a directory", dir)
	}
	m.AddSource(dirSource(dir))
	return nil
}

// AddSource appends a source with the highest priority so far.
func (m *Manager) AddSource(src Source) {
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.mu.Unlock()
	m.log.Debug("source added", zap.Stringer("source", src))
}

// Load loads a file from the sources.
func (m *Manager) Load(path string) ([]byte, error) {
	key := normalizeKey(path)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		src := m.sources[i]
		data, err := src.Read(path)
		switch {
		case err == nil:
			m.cache.Set(key, data)
			return data, nil
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("reading %s from %s: %w", path, src, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Exists reports whether any source holds path.
func (m *Manager) Exists(path string) bool {
	if _, ok := m.cache.Get(normalizeKey(path)); ok {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, src := range m.sources {
		if src.Contains(path) {
			return true
		}
	}
	return false
}

// Evict drops a cached entry so the next Load rereads it.
func (m *Manager) Evict(path string) {
	m.cache.Delete(normalizeKey(path))
}

// Close closes all sources.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, src := range m.sources {
		if err := src.Close(); err != nil {
			m.log.Warn("closing source", zap.Stringer("source", src), zap.Error(err))
		}
	}
	m.sources = nil
	m.cache.Clear()
}

// CacheStats returns cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

func normalizeKey(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

type archiveSource struct {
	path    string
	archive *grf.Archive
}

func (s *archiveSource) Read(path string) ([]byte, error) {
	data, err := s.archive.Read(path)
	if errors.Is(err, grf.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

func (s *archiveSource) Contains(path string) bool { return s.archive.Contains(path) }
func (s *archiveSource) Close() error              { return s.archive.Close() }
func (s *archiveSource) String() string            { return "grf:" + s.path }

// dirSource reads files relative to a directory. Archive paths use
// backslashes, so both separators are accepted.
type dirSource string

func (d dirSource) resolve(path string) string {
	return filepath.Join(string(d), filepath.FromSlash(strings.ReplaceAll(path, "\\", "/")))
}

func (d dirSource) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(d.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

func (d dirSource) Contains(path string) bool {
	info, err := os.Stat(d.resolve(path))
	return err == nil && !info.IsDir()
}

func (d dirSource) Close() error   { return nil }
func (d dirSource) String() string { return "dir:" + string(d) }

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
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

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
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
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
