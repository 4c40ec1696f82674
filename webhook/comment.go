package webhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"
)

// Answerer answers the body of a comment. An empty answer means that there
// is nothing to reply.
type Answerer interface {
	Answer(ctx context.Context, body string) (string, error)
}

// Poster posts a comment to an issue or pull request.
type Poster interface {
	Post(ctx context.Context, owner, repo string, issue int, body string) error
}

// GitHubPoster posts comments with the GitHub API.
type GitHubPoster struct {
	Client *github.Client
}

// NewGitHubPoster creates a poster authenticated with token.
func NewGitHubPoster(token string) *GitHubPoster {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubPoster{Client: client}
}

// Post creates an issue comment.
func (p *GitHubPoster) Post(ctx context.Context, owner, repo string, issue int, body string) error {
	_, _, err := p.Client.Issues.CreateComment(ctx, owner, repo, issue, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("posting comment to %s/%s#%d: %w", owner, repo, issue, err)
	}
	return nil
}

// IssueComments answers newly created issue comments.
type IssueComments struct {
	Answerer Answerer
	Poster   Poster
	Login    string // the bot's own login
}

// Register installs h for "issue_comment" events.
func (h *IssueComments) Register(r *Router) {
	r.Register("issue_comment", h.Handle)
}

// Handle is a HandlerFunc for *github.IssueCommentEvent.
func (h *IssueComments) Handle(ctx context.Context, event any) error {
	ev, ok := event.(*github.IssueCommentEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if ev.GetAction() != "created" {
		tracer().Debugf("ignoring issue comment action %q", ev.GetAction())
		return nil
	}
	author := ev.GetComment().GetUser().GetLogin()
	if h.Login != "" && strings.EqualFold(author, h.Login) {
		tracer().Debugf("ignoring own comment")
		return nil
	}
	owner := ev.GetRepo().GetOwner().GetLogin()
	repo := ev.GetRepo().GetName()
	issue := ev.GetIssue().GetNumber()
	answer, err := h.Answerer.Answer(ctx, ev.GetComment().GetBody())
	if err != nil {
		return fmt.Errorf("answering comment by %s on %s/%s#%d: %w", author, owner, repo, issue, err)
	}
	if answer == "" {
		return nil
	}
	tracer().Infof("replying to %s on %s/%s#%d", author, owner, repo, issue)
	return h.Poster.Post(ctx, owner, repo, issue, answer)
}
