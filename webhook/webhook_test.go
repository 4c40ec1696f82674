package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/notobot"
	"github.com/npillmayer/notobot/history"
	"github.com/npillmayer/notobot/internal/ghfake"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

const secret = "It's a Secret to Everybody"

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func delivery(event string, payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	return req
}

func commentPayload(t *testing.T, action, login, body string) []byte {
	p, err := json.Marshal(map[string]any{
		"action": action,
		"issue":  map[string]any{"number": 42},
		"comment": map[string]any{
			"body": body,
			"user": map[string]any{"login": login},
		},
		"repository": map[string]any{
			"name":  "noto-fonts",
			"owner": map[string]any{"login": "googlefonts"},
		},
	})
	require.NoError(t, err)
	return p
}

// echo answers every comment with its body.
type echo struct {
	mu     sync.Mutex
	bodies []string
}

func (e *echo) Answer(_ context.Context, body string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bodies = append(e.bodies, body)
	return "echo: " + body, nil
}

// posts collects posted comments.
type posts struct {
	mu   sync.Mutex
	list []string
}

func (p *posts) Post(_ context.Context, owner, repo string, issue int, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = append(p.list, fmt.Sprintf("%s/%s#%d %s", owner, repo, issue, body))
	return nil
}

func newTestServer() (*Server, *echo, *posts) {
	srv := NewServer(secret)
	a, p := &echo{}, &posts{}
	h := &IssueComments{Answerer: a, Poster: p, Login: "notobot"}
	h.Register(&srv.Router)
	return srv, a, p
}

func TestSignature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.webhook")
	defer teardown()
	//
	srv, a, _ := newTestServer()
	payload := commentPayload(t, "created", "someone", "hello")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, delivery("issue_comment", payload, "sha256=0000"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, delivery("issue_comment", payload, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expected unsigned delivery to be rejected")
	srv.Wait()
	assert.Empty(t, a.bodies)
}

func TestMethodsAndHealth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.webhook")
	defer teardown()
	//
	srv, _, _ := newTestServer()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestDispatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.webhook")
	defer teardown()
	//
	srv, a, p := newTestServer()
	for _, c := range []struct {
		event, action, login string
		status               int
	}{
		{"issue_comment", "created", "someone", http.StatusOK},
		{"issue_comment", "edited", "someone", http.StatusOK},
		{"issue_comment", "created", "NotoBot", http.StatusOK},
		{"push", "", "someone", http.StatusOK},
	} {
		payload := commentPayload(t, c.action, c.login, "@notobot hi")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, delivery(c.event, payload, sign(payload)))
		assert.Equal(t, c.status, rec.Code, "%s/%s by %s", c.event, c.action, c.login)
	}
	srv.Wait()
	assert.Equal(t, []string{"@notobot hi"}, a.bodies)
	assert.Equal(t, []string{"googlefonts/noto-fonts#42 echo: @notobot hi"}, p.list)
}

func TestBadPayload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.webhook")
	defer teardown()
	//
	srv, _, _ := newTestServer()
	payload := []byte(`{"action": "created", "issue": [}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, delivery("issue_comment", payload, sign(payload)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShutdown(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.webhook")
	defer teardown()
	//
	srv := NewServer(secret)
	started := make(chan struct{})
	srv.Register("ping", func(ctx context.Context, event any) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	payload := []byte(`{"zen": "Keep it logically awesome.", "hook_id": 1}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, delivery("ping", payload, sign(payload)))
	require.Equal(t, http.StatusOK, rec.Code)
	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, srv.Shutdown(ctx), context.DeadlineExceeded)
	assert.NoError(t, srv.Shutdown(context.Background()), "expected no handlers left")
}

func TestEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.webhook")
	defer teardown()
	//
	fake := ghfake.New("googlefonts", "noto-fonts")
	defer fake.Close()
	fake.Commit("5e1f0c2d9a8b7c6d5e4f3a2b1c0d9e8f7a6b5c4d", map[string][]byte{
		"unhinted/ttf/NotoSans-Regular.ttf": goregular.TTF,
	})
	bot := &notobot.Bot{
		Enumerator: &history.Enumerator{
			Source: &history.GitHubSource{Client: fake.Client(), Owner: "googlefonts", Repo: "noto-fonts"},
		},
	}
	srv := NewServer(secret)
	h := &IssueComments{Answerer: bot, Poster: &GitHubPoster{Client: fake.Client()}, Login: "notobot"}
	h.Register(&srv.Router)
	payload := commentPayload(t, "created", "simoncozens",
		"@notobot regression test Hello with /NotoSans-Regular.ttf")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, delivery("issue_comment", payload, sign(payload)))
	require.Equal(t, http.StatusOK, rec.Code)
	srv.Wait()
	comments := fake.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, 42, comments[0].Issue)
	assert.True(t, strings.HasPrefix(comments[0].Body, "Here's your regression log:\n\n## NotoSans-Regular.ttf 2.010 @ 5e1f0c2\n\n`"))
}
