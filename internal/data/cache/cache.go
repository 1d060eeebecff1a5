package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"exportfix/internal/engine/scanner"
	"exportfix/internal/shared/observability"
)

const schemaVersion uint16 = 1

// ScanCache persists scan results on disk keyed by path + content digest,
// so unchanged files skip the parse on later runs. Spans survive the
// round trip because the key pins the exact bytes they index into.
type ScanCache struct {
	mu  sync.RWMutex
	dir string
}

type payload struct {
	Schema    uint16
	Path      string
	Language  string
	Exports   []scanner.Declaration
	Imports   []scanner.ImportRecord
	ScannedAt time.Time
}

// Open creates the cache directory if needed. dir normally comes from the
// resolved cache home.
func Open(dir string) (*ScanCache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
	}
	return &ScanCache{dir: dir}, nil
}

func (c *ScanCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Get returns the cached scan for exactly this path and content. A missing
// entry is a plain miss; stale or unreadable entries are removed and
// reported as misses too.
func (c *ScanCache) Get(path string, content []byte) (*scanner.FileScan, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry := c.entryPath(path, content)
	f, err := os.Open(entry)
	if errors.Is(err, os.ErrNotExist) {
		observability.CacheMissesTotal.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open cache entry: %w", err)
	}
	defer f.Close()

	var pl payload
	if err := msgpack.NewDecoder(f).Decode(&pl); err != nil || pl.Schema != schemaVersion {
		_ = os.Remove(entry)
		observability.CacheMissesTotal.Inc()
		return nil, false, nil
	}

	scan := &scanner.FileScan{
		Path:      path,
		Language:  pl.Language,
		Source:    content,
		Imports:   pl.Imports,
		ScannedAt: pl.ScannedAt,
	}
	for _, d := range pl.Exports {
		scan.Exports.Add(d)
	}
	observability.CacheHitsTotal.Inc()
	return scan, true, nil
}

// Put stores the scan under its path + source digest via a temp file and
// rename, so readers never observe a partial entry.
func (c *ScanCache) Put(scan *scanner.FileScan) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pl := payload{
		Schema:    schemaVersion,
		Path:      scan.Path,
		Language:  scan.Language,
		Exports:   scan.Exports.All(),
		Imports:   scan.Imports,
		ScannedAt: scan.ScannedAt,
	}

	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if err := msgpack.NewEncoder(f).Encode(pl); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(f.Name(), c.entryPath(scan.Path, scan.Source)); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Clear removes every cache entry, leaving the directory in place.
func (c *ScanCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache directory %q: %w", c.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("remove cache entry %q: %w", e.Name(), err)
		}
	}
	return nil
}

func (c *ScanCache) entryPath(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return filepath.Join(c.dir, hex.EncodeToString(h.Sum(nil))+".mp")
}
