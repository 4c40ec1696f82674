package history

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"
)

// GitHubSource reads file history from a repository hosted on GitHub.
type GitHubSource struct {
	Client *github.Client
	Owner  string
	Repo   string
}

var _ Source = (*GitHubSource)(nil)

// NewGitHubSource creates a source for owner/repo. An empty token results in
// unauthenticated (and heavily rate-limited) API access.
func NewGitHubSource(owner, repo, token string) *GitHubSource {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubSource{Client: client, Owner: owner, Repo: repo}
}

// Commits lists the commits touching path, as returned by the commits API
// (most recent first).
func (gh *GitHubSource) Commits(ctx context.Context, path string, limit int) ([]string, error) {
	opts := &github.CommitsListOptions{
		Path:        path,
		ListOptions: github.ListOptions{PerPage: limit},
	}
	list, _, err := gh.Client.Repositories.ListCommits(ctx, gh.Owner, gh.Repo, opts)
	if err != nil {
		return nil, err
	}
	commits := make([]string, 0, len(list))
	for _, c := range list {
		if len(commits) == limit {
			break
		}
		commits = append(commits, c.GetSHA())
	}
	return commits, nil
}

// Blob locates path in the recursive tree of commit and downloads the blob.
func (gh *GitHubSource) Blob(ctx context.Context, path, commit string) ([]byte, error) {
	tree, _, err := gh.Client.Git.GetTree(ctx, gh.Owner, gh.Repo, commit, true)
	if err != nil {
		return nil, fmt.Errorf("reading tree: %w", err)
	}
	if tree.GetTruncated() {
		tracer().Infof("tree of %s is truncated", commit)
	}
	var sha string
	for _, entry := range tree.Entries {
		if entry.GetPath() == path && entry.GetType() == "blob" {
			sha = entry.GetSHA()
			break
		}
	}
	if sha == "" {
		return nil, ErrNotInTree
	}
	blob, _, err := gh.Client.Git.GetBlob(ctx, gh.Owner, gh.Repo, sha)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", sha, err)
	}
	return decodeBlob(blob)
}

func decodeBlob(blob *github.Blob) ([]byte, error) {
	switch enc := blob.GetEncoding(); enc {
	case "base64":
		// the API wraps base64 content at 60 columns
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decoding blob: %w", err)
		}
		return data, nil
	case "utf-8", "":
		return []byte(blob.GetContent()), nil
	default:
		return nil, fmt.Errorf("unsupported blob encoding %q", enc)
	}
}
