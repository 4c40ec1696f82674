package blobcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps every blob in a file of its own within Dir.
// File modification times serve as creation times.
type FileCache struct {
	Dir string
	TTL time.Duration
	now func() time.Time
}

var _ Cache = (*FileCache)(nil)

// NewFileCache creates a file cache in dir, creating the directory if necessary.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob cache: create directory: %w", err)
	}
	return &FileCache{Dir: dir, TTL: ttl, now: time.Now}, nil
}

func (fc *FileCache) path(k Key) string {
	return filepath.Join(fc.Dir, k.Name())
}

func (fc *FileCache) clock() time.Time {
	if fc.now == nil {
		return time.Now()
	}
	return fc.now()
}

// Get reads the file for k. An expired file counts as a miss.
func (fc *FileCache) Get(k Key) ([]byte, bool, error) {
	p := fc.path(k)
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errCache("get", k, err)
	}
	if expired(fi.ModTime(), fc.TTL, fc.clock()) {
		tracer().Debugf("cache entry %s expired", k)
		return nil, false, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false, errCache("get", k, err)
	}
	tracer().Debugf("cache hit for %s", k)
	return data, true, nil
}

// Put writes data to a temporary file and renames it into place, so readers
// never see partial entries.
func (fc *FileCache) Put(k Key, data []byte) error {
	tmp, err := os.CreateTemp(fc.Dir, ".tmp-"+k.Name())
	if err != nil {
		return errCache("put", k, err)
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errCache("put", k, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errCache("put", k, err)
	}
	if err = os.Rename(tmp.Name(), fc.path(k)); err != nil {
		os.Remove(tmp.Name())
		return errCache("put", k, err)
	}
	return nil
}

// Prune deletes expired cache files. Files in Dir which are not cache
// entries are left alone.
func (fc *FileCache) Prune() (int, error) {
	if fc.TTL <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(fc.Dir)
	if err != nil {
		return 0, fmt.Errorf("blob cache prune: %w", err)
	}
	now, n := fc.clock(), 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "cache_") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if expired(fi.ModTime(), fc.TTL, now) {
			if err := os.Remove(filepath.Join(fc.Dir, e.Name())); err != nil {
				tracer().Errorf("cannot remove cache file %s: %v", e.Name(), err)
				continue
			}
			n++
		}
	}
	if n > 0 {
		tracer().Infof("pruned %d cache files", n)
	}
	return n, nil
}
