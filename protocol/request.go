package protocol

import "context"

// Request is the logical write request carried through the registry to a
// worker. One Request accumulates body fragments across many chunks before
// a handler ever sees it.
type Request struct {
	// RouteHash identifies the handler via route.Table.GetRoute.
	RouteHash uint64

	// Collection is the resolved collection name used for shard
	// assignment (see winx.ResolveCollection). Empty for anonymous
	// writes, which collapse onto shard 0.
	Collection string

	// Body is the unconsumed suffix left over from the previous chunk's
	// handler invocation, then the newly appended fragment for the
	// current chunk — handlers consume complete documents from the front
	// and leave the rest here for next time.
	Body string

	// Live reports whether the originating client connection is still
	// attached; if false, no response is worth streaming back.
	Live bool

	// LogIndex is the replicated-log position supplied with the request's
	// first chunk. winx stores it here only; it does not publish it to any
	// crash-diagnostic location.
	LogIndex uint64

	// Ctx threads cancellation/tracing through a handler invocation. Set
	// by the worker before each call; handlers should not retain it.
	Ctx context.Context
}

// Response is the logical response object a handler fills in. For
// AsyncRes routes, the handler owns its lifecycle and the worker dispatches
// nothing for it; the worker still resets it before applying the request's
// next chunk.
type Response struct {
	StatusCode int
	Body       []byte
}

// NewNotFound fills res in as the 404-equivalent the worker dispatches when
// no route exists for a request's RouteHash.
func (res *Response) NewNotFound() {
	res.StatusCode = 404
	res.Body = []byte(`{"error":"route not found"}`)
}
