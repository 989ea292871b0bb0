// Package route defines the two external collaborators the worker pool
// talks to: a route table that resolves a request's route_hash to a
// handler, and a dispatcher that the worker asks to push a response (the
// worker never calls its RequestProceed). Both are owned by the
// surrounding server; winx only
// depends on these interfaces.
package route

import (
	"context"

	"github.com/windexdb/winx/protocol"
)

// Handler applies an assembled (or partially assembled) request. It may
// mutate req.Body to the unconsumed suffix of a partially-parsed buffer.
type Handler func(ctx context.Context, req *protocol.Request, res *protocol.Response) error

// Route pairs a handler with the async_res flag: when true, the handler
// takes over the response lifecycle and the worker must not dispatch one
// itself.
type Route struct {
	Handler  Handler
	AsyncRes bool
}

// Table resolves a route_hash to a Route. A miss is reported as found=false,
// never as an error — the worker treats it as the NotFoundRoute case.
type Table interface {
	GetRoute(routeHash uint64) (rt Route, found bool)
}

// CreateCollectionHash is the distinguished sentinel route_hash identifying
// the "create collection" handler, used by ResolveCollection to know when
// it should parse the request body for a top-level "name" field.
const CreateCollectionHash uint64 = 0

// Dispatcher is the HTTP server's fire-and-forget message sink.
type Dispatcher interface {
	// RequestProceed asks the transport to read more of req's body.
	RequestProceed(req *protocol.Request)
	// StreamResponse emits res for req, for a still-live synchronous
	// request whose route was not async_res.
	StreamResponse(req *protocol.Request, res *protocol.Response)
}
