package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/npillmayer/notobot/blobcache"
	"github.com/npillmayer/notobot/internal/ghfake"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const fontPath = "unhinted/ttf/Test-Regular.ttf"

// memSource is an in-memory Source counting blob requests.
type memSource struct {
	mu      sync.Mutex
	commits []string
	blobs   map[string][]byte
	fetches int
	fail    string
}

func (m *memSource) Commits(_ context.Context, path string, limit int) ([]string, error) {
	if limit < len(m.commits) {
		return m.commits[:limit], nil
	}
	return m.commits, nil
}

func (m *memSource) Blob(_ context.Context, path, commit string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if commit == m.fail {
		return nil, errors.New("boom")
	}
	b, ok := m.blobs[commit]
	if !ok {
		return nil, ErrNotInTree
	}
	return b, nil
}

func newMemSource(n int) *memSource {
	m := &memSource{blobs: make(map[string][]byte)}
	for i := range n {
		sha := fmt.Sprintf("%07d%033d", i, i)
		m.commits = append(m.commits, sha)
		m.blobs[sha] = []byte(fmt.Sprintf("font-%d", i))
	}
	return m
}

func TestEnumeratorBoundsAndOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	//
	src := newMemSource(25)
	e := &Enumerator{Source: src, Concurrency: 4}
	versions, err := e.Versions(context.Background(), fontPath, "ABC")
	require.NoError(t, err)
	require.Len(t, versions, MaxVersions)
	for i, v := range versions {
		assert.Equal(t, src.commits[i], v.Commit, "expected discovery order to be preserved")
		assert.Equal(t, fmt.Sprintf("font-%d", i), string(v.Font))
		assert.Equal(t, "ABC", v.Text)
		assert.Equal(t, fontPath, v.Path)
	}
	e.Limit = 50
	commits, err := e.Commits(context.Background(), fontPath)
	require.NoError(t, err)
	assert.Len(t, commits, MaxVersions, "limit must never exceed MaxVersions")
}

func TestMapBoundsParallelism(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	//
	src := newMemSource(8)
	e := &Enumerator{Source: src, Concurrency: 3}
	var mu sync.Mutex
	running, peak := 0, 0
	lens, err := Map(context.Background(), e, fontPath, "x", func(_ context.Context, v Version) string {
		mu.Lock()
		running++
		peak = max(peak, running)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return v.Commit + ":" + string(v.Font)
	})
	require.NoError(t, err)
	require.Len(t, lens, 8)
	for i, s := range lens {
		assert.Equal(t, fmt.Sprintf("%s:font-%d", src.commits[i], i), s)
	}
	assert.LessOrEqual(t, peak, 3, "expected at most Concurrency versions in flight")
}

func TestEnumeratorCache(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	//
	cache, err := blobcache.NewFileCache(t.TempDir(), time.Hour)
	require.NoError(t, err)
	src := newMemSource(3)
	e := &Enumerator{Source: src, Cache: cache}
	_, err = e.Versions(context.Background(), fontPath, "x")
	require.NoError(t, err)
	assert.Equal(t, 3, src.fetches)
	versions, err := e.Versions(context.Background(), fontPath, "x")
	require.NoError(t, err)
	assert.Equal(t, 3, src.fetches, "expected second enumeration to be served from cache")
	assert.Equal(t, "font-2", string(versions[2].Font))
}

func TestEnumeratorFetchError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	//
	src := newMemSource(4)
	src.fail = src.commits[2]
	e := &Enumerator{Source: src}
	_, err := e.Versions(context.Background(), fontPath, "x")
	require.Error(t, err)
	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, src.commits[2], ferr.Commit)
}

func TestEnumeratorEmptyHistory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	//
	e := &Enumerator{Source: newMemSource(0)}
	versions, err := e.Versions(context.Background(), fontPath, "x")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

// --- GitHub source ---------------------------------------------------------

type GitHubEnviron struct {
	suite.Suite
	fake *ghfake.Server
	src  *GitHubSource
}

func TestGitHubSource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	suite.Run(t, new(GitHubEnviron))
}

func (env *GitHubEnviron) SetupSuite() {
	env.fake = ghfake.New("googlefonts", "noto-fonts")
	env.fake.Commit("aaaaaaa1", map[string][]byte{fontPath: []byte("v1"), "README.md": []byte("readme")})
	env.fake.Commit("bbbbbbb2", map[string][]byte{"README.md": []byte("readme 2")})
	env.fake.Commit("ccccccc3", map[string][]byte{fontPath: make([]byte, 1000)})
	env.src = &GitHubSource{Client: env.fake.Client(), Owner: "googlefonts", Repo: "noto-fonts"}
}

func (env *GitHubEnviron) TearDownSuite() {
	env.fake.Close()
}

func (env *GitHubEnviron) TestCommits() {
	commits, err := env.src.Commits(context.Background(), fontPath, 10)
	env.Require().NoError(err)
	env.Equal([]string{"ccccccc3", "aaaaaaa1"}, commits)
	commits, err = env.src.Commits(context.Background(), fontPath, 1)
	env.Require().NoError(err)
	env.Equal([]string{"ccccccc3"}, commits)
}

func (env *GitHubEnviron) TestBlob() {
	data, err := env.src.Blob(context.Background(), fontPath, "aaaaaaa1")
	env.Require().NoError(err)
	env.Equal("v1", string(data))
	data, err = env.src.Blob(context.Background(), fontPath, "ccccccc3")
	env.Require().NoError(err)
	env.Len(data, 1000, "expected wrapped base64 content to be decoded")
	// unchanged file is visible in later commits
	data, err = env.src.Blob(context.Background(), fontPath, "bbbbbbb2")
	env.Require().NoError(err)
	env.Equal("v1", string(data))
}

func (env *GitHubEnviron) TestBlobNotInTree() {
	_, err := env.src.Blob(context.Background(), "unhinted/ttf/Missing.ttf", "aaaaaaa1")
	env.ErrorIs(err, ErrNotInTree)
	_, err = env.src.Blob(context.Background(), fontPath, "0000000")
	env.Error(err)
}

// --- git source ------------------------------------------------------------

func TestRepoSource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.history")
	defer teardown()
	//
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "unhinted", "ttf"), 0o755))
	var hashes []string
	when := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"one", "two", "", "three"} {
		name := fontPath
		if content == "" {
			name, content = "README.md", "docs"
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
		sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when.Add(time.Duration(i) * time.Hour)}
		h, err := wt.Commit(fmt.Sprintf("commit %d", i), &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
		if name == fontPath {
			hashes = append([]string{h.String()}, hashes...)
		}
	}
	src, err := OpenRepo(dir)
	require.NoError(t, err)
	commits, err := src.Commits(context.Background(), fontPath, 10)
	require.NoError(t, err)
	assert.Equal(t, hashes, commits)
	data, err := src.Blob(context.Background(), fontPath, commits[len(commits)-1])
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
	_, err = src.Blob(context.Background(), "unhinted/ttf/Missing.ttf", commits[0])
	assert.ErrorIs(t, err, ErrNotInTree)
	commits, err = src.Commits(context.Background(), fontPath, 2)
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}
