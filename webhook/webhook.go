/*
Package webhook receives GitHub webhook deliveries and dispatches them to
handlers.

Deliveries are checked against the webhook secret, parsed into go-github
event types and routed by event name. Handlers run detached from the HTTP
request, as GitHub expects an answer to a delivery within ten seconds while
a regression test takes considerably longer.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package webhook

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'notobot.webhook'
func tracer() tracing.Trace {
	return tracing.Select("notobot.webhook")
}

// DefaultTimeout bounds the run time of a handler.
const DefaultTimeout = 5 * time.Minute

// HandlerFunc handles a parsed event, e.g. a *github.IssueCommentEvent.
type HandlerFunc func(ctx context.Context, event any) error

// Router maps event names (as in header X-GitHub-Event) to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
}

// Register adds a handler for an event name.
func (r *Router) Register(event string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[string][]HandlerFunc)
	}
	r.handlers[event] = append(r.handlers[event], h)
}

func (r *Router) lookup(event string) []HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[event]
}

// Server is the HTTP endpoint for webhook deliveries. Deliveries are
// accepted with POST on any path except /healthz, which answers GET requests
// for liveness probes.
type Server struct {
	Router
	secret  []byte
	Timeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

var _ http.Handler = (*Server)(nil)

// NewServer creates an endpoint checking deliveries against secret. An
// empty secret disables the check for unsigned deliveries.
func NewServer(secret string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		secret:  []byte(secret),
		Timeout: DefaultTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte("ok"))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	delivery := github.DeliveryID(r)
	payload, err := github.ValidatePayload(r, s.secret)
	if err != nil {
		tracer().Infof("rejecting delivery %s: %v", delivery, err)
		http.Error(w, "invalid payload signature", http.StatusUnauthorized)
		return
	}
	name := github.WebHookType(r)
	handlers := s.lookup(name)
	if len(handlers) == 0 {
		tracer().Debugf("no handler for event %q, delivery %s", name, delivery)
		w.Write([]byte("ignored"))
		return
	}
	event, err := github.ParseWebHook(name, payload)
	if err != nil {
		tracer().Infof("cannot parse %q event, delivery %s: %v", name, delivery, err)
		http.Error(w, "cannot parse payload", http.StatusBadRequest)
		return
	}
	tracer().Infof("dispatching %q event, delivery %s", name, delivery)
	for _, h := range handlers {
		s.dispatch(delivery, name, h, event)
	}
	w.Write([]byte("ok"))
}

func (s *Server) dispatch(delivery, name string, h HandlerFunc, event any) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		if err := h(ctx, event); err != nil {
			tracer().Errorf("handling %q event, delivery %s: %v", name, delivery, err)
		}
	}()
}

// Wait blocks until all running handlers have finished.
func (s *Server) Wait() {
	s.running.Wait()
}

// Shutdown waits for running handlers to finish. If ctx is done before,
// the handlers are canceled and ctx's error is returned once they have
// returned.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	tracer().Infof("canceling running handlers")
	s.cancel()
	<-done
	return ctx.Err()
}
