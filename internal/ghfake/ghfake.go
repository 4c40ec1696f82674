/*
Package ghfake serves a minimal in-memory imitation of the GitHub REST API
for tests: commit listings filtered by path, recursive trees, blobs and
issue comments.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ghfake

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/google/go-github/v66/github"
)

// Comment is an issue comment posted to the fake server.
type Comment struct {
	Owner, Repo string
	Issue       int
	Body        string
}

// Server is a fake GitHub API for a single repository.
type Server struct {
	*httptest.Server
	Owner, Repo string

	mu           sync.Mutex
	order        []string                     // commit IDs, newest first
	snapshots    map[string]map[string]string // commit → path → blob SHA
	touched      map[string][]string          // commit → paths changed
	blobs        map[string][]byte
	comments     []Comment
	blobRequests int
}

// New starts a fake server for owner/repo. Callers must Close it.
func New(owner, repo string) *Server {
	s := &Server{
		Owner:     owner,
		Repo:      repo,
		snapshots: make(map[string]map[string]string),
		touched:   make(map[string][]string),
		blobs:     make(map[string][]byte),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/commits", s.listCommits)
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/trees/{sha}", s.getTree)
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/blobs/{sha}", s.getBlob)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues/{number}/comments", s.createComment)
	s.Server = httptest.NewServer(mux)
	return s
}

// Client returns a go-github client talking to the fake server.
func (s *Server) Client() *github.Client {
	client := github.NewClient(nil)
	u, _ := url.Parse(s.URL + "/")
	client.BaseURL = u
	return client
}

// Commit records a new commit on top of the history. files maps paths to
// their new content; all other paths keep their content from the previous commit.
func (s *Server) Commit(sha string, files map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]string)
	if len(s.order) > 0 {
		for p, b := range s.snapshots[s.order[0]] {
			snap[p] = b
		}
	}
	var paths []string
	for p, data := range files {
		h := sha1.Sum(data)
		blobSHA := hex.EncodeToString(h[:])
		s.blobs[blobSHA] = data
		snap[p] = blobSHA
		paths = append(paths, p)
	}
	s.snapshots[sha] = snap
	s.touched[sha] = paths
	s.order = append([]string{sha}, s.order...)
}

// Comments returns the comments posted so far.
func (s *Server) Comments() []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.comments...)
}

// BlobRequests returns how many blobs have been downloaded.
func (s *Server) BlobRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobRequests
}

func (s *Server) checkRepo(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("owner") != s.Owner || r.PathValue("repo") != s.Repo {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) listCommits(w http.ResponseWriter, r *http.Request) {
	if !s.checkRepo(w, r) {
		return
	}
	path := r.URL.Query().Get("path")
	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 30
	}
	s.mu.Lock()
	var list []map[string]string
	for _, sha := range s.order {
		if len(list) == perPage {
			break
		}
		for _, p := range s.touched[sha] {
			if path == "" || p == path {
				list = append(list, map[string]string{"sha": sha})
				break
			}
		}
	}
	s.mu.Unlock()
	writeJSON(w, list)
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	if !s.checkRepo(w, r) {
		return
	}
	sha := r.PathValue("sha")
	s.mu.Lock()
	snap, ok := s.snapshots[sha]
	var entries []map[string]any
	for p, b := range snap {
		entries = append(entries, map[string]any{
			"path": p, "mode": "100644", "type": "blob", "sha": b, "size": len(s.blobs[b]),
		})
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i]["path"].(string) < entries[j]["path"].(string)
	})
	writeJSON(w, map[string]any{"sha": sha, "tree": entries, "truncated": false})
}

func (s *Server) getBlob(w http.ResponseWriter, r *http.Request) {
	if !s.checkRepo(w, r) {
		return
	}
	sha := r.PathValue("sha")
	s.mu.Lock()
	data, ok := s.blobs[sha]
	if ok {
		s.blobRequests++
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	enc := base64.StdEncoding.EncodeToString(data)
	// GitHub wraps base64 content
	wrapped := make([]byte, 0, len(enc)+len(enc)/60+1)
	for i := 0; i < len(enc); i += 60 {
		end := min(i+60, len(enc))
		wrapped = append(wrapped, enc[i:end]...)
		wrapped = append(wrapped, '\n')
	}
	writeJSON(w, map[string]any{"sha": sha, "size": len(data), "content": string(wrapped), "encoding": "base64"})
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	if !s.checkRepo(w, r) {
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		http.Error(w, `{"message":"bad issue number"}`, http.StatusBadRequest)
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.comments = append(s.comments, Comment{Owner: s.Owner, Repo: s.Repo, Issue: number, Body: body.Body})
	id := len(s.comments)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"id": id, "body": body.Body})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
