// Package httpdispatch adapts route.Dispatcher onto net/http for local
// testing and the cmd/windexd demo server: each live request is held open
// behind a channel until its worker streams a response (or some caller
// invokes RequestProceed; winx's worker never does), rather than the real
// production transport (a long-lived
// replicated-log connection) this stands in for.
package httpdispatch

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/windexdb/winx/protocol"
)

// pending tracks one live HTTP request waiting on its worker.
type pending struct {
	proceed  chan struct{}
	response chan *protocol.Response
}

// Dispatcher implements route.Dispatcher over a table of held-open HTTP
// connections, keyed by a correlation id minted per request.
type Dispatcher struct {
	mu      sync.Mutex
	waiting map[string]*pending
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{waiting: make(map[string]*pending)}
}

// CorrelationKey is the context key an HTTP handler stashes the minted
// correlation id under so RequestProceed/StreamResponse can find the right
// waiter. winx's protocol.Request has no such field itself — the demo
// server plumbs it through the context passed to Enqueue, which reaches
// the dispatcher as Request.Ctx, instead of growing the core type for a
// transport-specific detail.
type CorrelationKey struct{}

// Register mints a correlation id and the channels a handler blocks on
// while it waits for the worker pool to finish with this request.
func (d *Dispatcher) Register() (id string, proceed <-chan struct{}, response <-chan *protocol.Response) {
	id = uuid.NewString()
	p := &pending{proceed: make(chan struct{}, 1), response: make(chan *protocol.Response, 1)}
	d.mu.Lock()
	d.waiting[id] = p
	d.mu.Unlock()
	return id, p.proceed, p.response
}

// Forget removes id's waiter, for a connection that disconnected before
// its worker finished.
func (d *Dispatcher) Forget(id string) {
	d.mu.Lock()
	delete(d.waiting, id)
	d.mu.Unlock()
}

func (d *Dispatcher) lookup(req *protocol.Request) (string, *pending, bool) {
	id, ok := req.Ctx.Value(CorrelationKey{}).(string)
	if !ok {
		return "", nil, false
	}
	d.mu.Lock()
	p, ok := d.waiting[id]
	d.mu.Unlock()
	return id, p, ok
}

// RequestProceed signals the held-open HTTP connection that it should
// send its next chunk.
func (d *Dispatcher) RequestProceed(req *protocol.Request) {
	_, p, ok := d.lookup(req)
	if !ok {
		return
	}
	select {
	case p.proceed <- struct{}{}:
	default:
	}
}

// StreamResponse delivers res to the held-open HTTP connection and
// removes its waiter — a synchronous route's response is terminal.
func (d *Dispatcher) StreamResponse(req *protocol.Request, res *protocol.Response) {
	id, p, ok := d.lookup(req)
	if !ok {
		return
	}
	select {
	case p.response <- res:
	default:
	}
	d.Forget(id)
}

// WriteResponse is a small net/http helper for handlers finishing a
// request out of Dispatcher's response channel.
func WriteResponse(w http.ResponseWriter, res *protocol.Response) {
	if res.StatusCode == 0 {
		res.StatusCode = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	if len(res.Body) == 0 {
		_ = json.NewEncoder(w).Encode(struct{}{})
		return
	}
	_, _ = w.Write(res.Body)
}
