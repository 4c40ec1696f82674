package history

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// RepoSource reads file history from a local git repository.
type RepoSource struct {
	repo *git.Repository
}

var _ Source = (*RepoSource)(nil)

// OpenRepo opens the git repository at dir.
func OpenRepo(dir string) (*RepoSource, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", dir, err)
	}
	return &RepoSource{repo: repo}, nil
}

// NewRepoSource wraps an already opened repository.
func NewRepoSource(repo *git.Repository) *RepoSource {
	return &RepoSource{repo: repo}
}

// Commits walks the log from HEAD in committer-time order and collects the
// commits which changed path.
func (rs *RepoSource) Commits(ctx context.Context, path string, limit int) ([]string, error) {
	iter, err := rs.repo.Log(&git.LogOptions{
		Order:    git.LogOrderCommitterTime,
		FileName: &path,
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var commits []string
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, c.Hash.String())
		if len(commits) == limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// Blob reads path from the tree of commit.
func (rs *RepoSource) Blob(ctx context.Context, path, commit string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := rs.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return nil, fmt.Errorf("reading commit: %w", err)
	}
	f, err := c.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, ErrNotInTree
	} else if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
