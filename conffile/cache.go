package conffile

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/logsink"
)

// Cache maps canonical filenames to loaded files. All files created by a
// cache share its mutex. Entries are only dropped by Reset.
type Cache struct {
	mu    sync.Mutex
	fs    afero.Fs
	sink  logsink.Sink
	files map[string]*File
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithFs sets the filesystem files are read from and written to
func WithFs(fs afero.Fs) CacheOption {
	return func(c *Cache) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// WithSink sets where parse errors and warnings are reported
func WithSink(sink logsink.Sink) CacheOption {
	return func(c *Cache) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// NewCache creates an empty cache on the OS filesystem
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		fs:    afero.NewOsFs(),
		sink:  logsink.Default(),
		files: make(map[string]*File),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultCacheOnce sync.Once
	defaultCache     *Cache
)

// DefaultCache returns the process wide cache
func DefaultCache() *Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewCache()
	})
	return defaultCache
}

// Fs returns the filesystem used by the cache
func (c *Cache) Fs() afero.Fs { return c.fs }

// Get returns the file described by setup, reading it on first use. A file
// already loaded with a different dialect is an error.
func (c *Cache) Get(setup Setup) (*File, error) {
	if setup.Filename == "" {
		return nil, errors.Errorf("%w: empty filename", ErrInvalidSetup)
	}
	if err := setup.Dialect.Validate(); err != nil {
		return nil, err
	}
	setup.Dialect = setup.Dialect.normalized()
	setup.Filename = c.canonical(setup.Filename)

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.files[setup.Filename]; ok {
		if f.setup.ConfigURL() != setup.ConfigURL() {
			return nil, errors.Errorf("%w: %s loaded as %q, requested as %q",
				ErrSetupMismatch, setup.Filename, f.setup.ConfigURL(), setup.ConfigURL())
		}
		return f, nil
	}

	f := newFile(&c.mu, setup, c.fs, c.sink)
	if err := f.read(); err != nil {
		return nil, err
	}
	c.files[setup.Filename] = f
	return f, nil
}

// Lookup returns a cached file without reading anything
func (c *Cache) Lookup(filename string) (*File, bool) {
	filename = c.canonical(filename)
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[filename]
	return f, ok
}

// Filenames returns the sorted canonical names of the cached files
func (c *Cache) Filenames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.files))
	for name := range c.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached files
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// Reset forgets every cached file; the next Get reads from disk again
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string]*File)
}

// canonical returns the absolute, cleaned filename. Symbolic links are
// resolved on the OS filesystem.
func (c *Cache) canonical(filename string) string {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return filepath.Clean(filename)
	}
	if _, ok := c.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			return resolved
		}
		// the file may not exist yet; resolve its directory
		if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
			return filepath.Join(dir, filepath.Base(abs))
		}
	}
	return abs
}
