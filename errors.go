// Provides winx's own sentinel error definitions, one file per the
// teacher's chotki_errors/errors.go convention.
package winx

import "errors"

var (
	// ErrNoRoute names the NotFoundRoute case: a request (fresh or
	// restored) references a route_hash no handler table entry exists for.
	// The worker does not return it; it answers such a request with a 404
	// response instead.
	ErrNoRoute = errors.New("winx: no route for request")

	// ErrMalformedChunk names the case of a chunk value that fails to
	// parse. The worker does not return it; it logs the protocol error and
	// moves on to the next chunk.
	ErrMalformedChunk = errors.New("winx: malformed chunk")

	// ErrClosed is returned by operations against a shut-down Indexer.
	ErrClosed = errors.New("winx: indexer is closed")

	// ErrUnknownRequest names the case of a req_id the registry no longer
	// (or never did) hold. The worker does not return it; it logs a warning
	// and skips the id.
	ErrUnknownRequest = errors.New("winx: unknown request id")
)
