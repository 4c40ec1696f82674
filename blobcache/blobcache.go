/*
Package blobcache stores font binaries of historical commits.

A font binary is identified by its repository path and the commit it was
read from. Entries never change once written, so a cache hit makes any
request to the history source unnecessary. Caches may expire entries after
a time-to-live; a TTL of zero keeps entries forever.

Three implementations are provided: [FileCache] keeps one file per entry in
a directory, [SQLiteCache] keeps entries in a single SQLite database, and
[Nop] does not cache at all.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package blobcache

import (
	"fmt"
	"strings"
	"time"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'notobot.cache'
func tracer() tracing.Trace {
	return tracing.Select("notobot.cache")
}

// Key identifies a cached blob.
type Key struct {
	Path   string // file path within the repository
	Commit string // commit ID the file has been read from
}

// Name returns a flat, file-system safe name for the key, of the form
// "cache_<path with slashes replaced by underscores>-<commit>".
func (k Key) Name() string {
	return "cache_" + strings.ReplaceAll(k.Path, "/", "_") + "-" + k.Commit
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Path, k.Commit)
}

// Cache is a store for immutable blobs.
type Cache interface {
	// Get returns the blob for key k. The boolean result is false for a cache miss.
	Get(k Key) ([]byte, bool, error)
	// Put stores a blob for key k, replacing a previous entry.
	Put(k Key, data []byte) error
	// Prune removes expired entries and returns how many have been removed.
	Prune() (int, error)
}

// Nop is a cache which never hits.
type Nop struct{}

var _ Cache = Nop{}

// Get always reports a cache miss.
func (Nop) Get(Key) ([]byte, bool, error) { return nil, false, nil }

// Put discards data.
func (Nop) Put(Key, []byte) error { return nil }

// Prune does nothing.
func (Nop) Prune() (int, error) { return 0, nil }

// expired reports whether an entry created at t has outlived ttl.
func expired(t time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(t) > ttl
}

func errCache(op string, k Key, err error) error {
	return fmt.Errorf("blob cache %s %s: %w", op, k, err)
}
