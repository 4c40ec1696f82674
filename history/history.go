/*
Package history enumerates historical versions of a file in a font repository.

A [Source] lists the commits which touched a file and reads the file as it was
at a given commit. Two sources are provided: [GitHubSource] talks to the GitHub
REST API, [RepoSource] reads from a local clone.

An [Enumerator] puts a [blobcache.Cache] in front of a source and bounds the
number of versions considered. Versions are returned in the order the source
lists the commits, i.e. most recent first.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/notobot/blobcache"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/sync/errgroup"
)

// tracer writes to trace with key 'notobot.history'
func tracer() tracing.Trace {
	return tracing.Select("notobot.history")
}

// MaxVersions is the maximum number of versions an enumeration yields.
const MaxVersions = 10

// ErrNotInTree is returned when a commit's tree does not contain the requested path.
var ErrNotInTree = errors.New("path not found in commit tree")

// Source gives access to the history of files in a repository.
type Source interface {
	// Commits lists the IDs of at most limit commits which touched path,
	// most recent first.
	Commits(ctx context.Context, path string, limit int) ([]string, error)
	// Blob returns the content of path at commit.
	Blob(ctx context.Context, path, commit string) ([]byte, error)
}

// Version is a font binary as of a given commit, together with the text to
// shape with it.
type Version struct {
	Path   string
	Commit string
	Text   string
	Font   []byte
}

// FetchError reports a failure to retrieve a file at a commit.
type FetchError struct {
	Path   string
	Commit string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s at %s: %v", e.Path, e.Commit, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Enumerator lists historical versions of files, reading through a cache.
type Enumerator struct {
	Source      Source
	Cache       blobcache.Cache // may be nil
	Limit       int             // defaults to MaxVersions, never exceeds it
	Concurrency int             // parallel fetches for Versions, defaults to 1
}

func (e *Enumerator) limit() int {
	if e.Limit <= 0 || e.Limit > MaxVersions {
		return MaxVersions
	}
	return e.Limit
}

// Commits lists the commits touching path, most recent first, bounded by the
// enumerator's limit.
func (e *Enumerator) Commits(ctx context.Context, path string) ([]string, error) {
	if e.Source == nil {
		return nil, errors.New("history enumerator has no source")
	}
	n := e.limit()
	commits, err := e.Source.Commits(ctx, path, n)
	if err != nil {
		return nil, fmt.Errorf("listing commits of %s: %w", path, err)
	}
	if len(commits) > n {
		commits = commits[:n]
	}
	tracer().Infof("%d commits touch %s", len(commits), path)
	return commits, nil
}

// Fetch returns the content of path at commit. A cached blob is returned
// without consulting the source; a fetched blob is put into the cache.
func (e *Enumerator) Fetch(ctx context.Context, path, commit string) ([]byte, error) {
	key := blobcache.Key{Path: path, Commit: commit}
	if e.Cache != nil {
		data, ok, err := e.Cache.Get(key)
		if err != nil {
			tracer().Errorf("%v", err)
		} else if ok {
			return data, nil
		}
	}
	data, err := e.Source.Blob(ctx, path, commit)
	if err != nil {
		return nil, &FetchError{Path: path, Commit: commit, Err: err}
	}
	tracer().Debugf("fetched %s at %s, %d bytes", path, commit, len(data))
	if e.Cache != nil {
		if err := e.Cache.Put(key, data); err != nil {
			tracer().Errorf("%v", err)
		}
	}
	return data, nil
}

// Versions returns the historical versions of path, paired with text, in
// commit order. Blobs are fetched concurrently. Any fetch error aborts the
// enumeration.
func (e *Enumerator) Versions(ctx context.Context, path, text string) ([]Version, error) {
	return Map(ctx, e, path, text, func(_ context.Context, v Version) Version {
		return v
	})
}

// Map lists the commits touching path, fetches the file at each of them and
// calls fn for every version. Up to e.Concurrency versions are fetched and
// processed in parallel; the results are in commit order. Any fetch error
// aborts the operation and cancels the context passed to fn.
func Map[T any](ctx context.Context, e *Enumerator, path, text string, fn func(context.Context, Version) T) ([]T, error) {
	commits, err := e.Commits(ctx, path)
	if err != nil {
		return nil, err
	}
	results := make([]T, len(commits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.Concurrency))
	for i, commit := range commits {
		g.Go(func() error {
			data, err := e.Fetch(gctx, path, commit)
			if err != nil {
				return err
			}
			results[i] = fn(gctx, Version{Path: path, Commit: commit, Text: text, Font: data})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
