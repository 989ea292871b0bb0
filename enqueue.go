package winx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/windexdb/winx/protocol"
	"github.com/windexdb/winx/shard"
)

// Enqueue persists one chunk and, once the request's terminal chunk has
// arrived, hands the request off to its shard queue for a worker to drain.
// It implements the four-step path: resolve the collection, allocate a
// chunk_sequence from the registry, persist the chunk value, and — only on
// the last chunk — mark the request complete and push it.
//
// A legacy (req_id == 0) request's chunks all share that single id, so
// legacyMu is the only thing keeping two concurrent legacy requests from
// interleaving into the same registry record: it is held for the entire
// call — every chunk, not just the last one, since Enqueue is invoked once
// per chunk and sync.Mutex isn't reentrant — and released via defer on
// every return path, including a mid-request Put error, so a malformed
// legacy request can never wedge every later one behind it. LegacyCompat
// gates the blocking behavior entirely; with it off, req_id==0 is just
// another request, sharded by its collection like any other, matching the
// design notes' "deprecatable behind a flag" framing.
// ctx is the caller's context for this specific chunk — typically an HTTP
// request context carrying a transport correlation id via context.Value.
// It is stashed on the shared Request as rec.ReqHandle.Ctx, overwritten on
// every chunk, so the worker's next handler invocation for this request
// starts from whichever caller most recently touched it (the terminal
// chunk's caller, in the common single- or final-chunk case) rather than a
// bare context.Background() that would carry nothing through to dispatch.
func (idx *Indexer) Enqueue(ctx context.Context, id ReqID, routeHash uint64, collectionHint string, body []byte, last, live bool, logIndex uint64) error {
	if idx.closed.Load() {
		return ErrClosed
	}

	legacy := id.IsLegacy() && idx.cfg.LegacyCompat
	if legacy {
		idx.legacyMu.Lock()
		defer idx.legacyMu.Unlock()
	}

	collection := idx.ResolveCollection(routeHash, collectionHint, body)

	rec, seq := idx.registry.GetOrCreate(uint64(id), func() (*protocol.Request, *protocol.Response) {
		return &protocol.Request{
			RouteHash:  routeHash,
			Collection: collection,
			Live:       live,
			LogIndex:   logIndex,
			Ctx:        ctx,
		}, &protocol.Response{}
	})
	rec.ReqHandle.Ctx = ctx
	if collection != "" && rec.ReqHandle.Collection == "" {
		rec.ReqHandle.Collection = collection
	}

	value := protocol.DumpChunk(protocol.Chunk{
		RouteHash:  routeHash,
		Collection: rec.ReqHandle.Collection,
		Last:       last,
		Live:       live,
		Body:       body,
	})
	if err := idx.kv.Put(ChunkKey(id, seq), value); err != nil {
		return err
	}

	if last {
		idx.queuedWrites.Add(int64(seq) + 1)
		idx.registry.MarkComplete(uint64(id))
		idx.shards.Enqueue(rec.ReqHandle.Collection, uint64(id))
		if legacy {
			idx.waitForRegistryDrain()
		}
	}
	return nil
}

// waitForRegistryDrain blocks the calling (legacy) Enqueue invocation until
// every in-flight request — this one included — has been fully applied and
// erased, per the design's compatibility slow path: a pre-batching
// producer's writes serialize across the whole instance because nothing
// else can be handed to a worker while its one caller thread sits here.
func (idx *Indexer) waitForRegistryDrain() {
	ticker := time.NewTicker(shard.PollInterval)
	defer ticker.Stop()
	for idx.registry.Len() > 0 {
		select {
		case <-idx.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ResolveCollection picks the collection name a chunk's first bytes should
// be sharded by: the explicit hint (a URL path parameter, typically),
// falling back to a "name" field sniffed out of the body for the
// distinguished create-collection route, falling back to "" (shard 0,
// unordered) for anything else.
func (idx *Indexer) ResolveCollection(routeHash uint64, hint string, body []byte) string {
	if hint != "" {
		return hint
	}
	if routeHash == idx.createCollectionHash {
		if name := sniffNameField(body); name != "" {
			return name
		}
	}
	return ""
}

// sniffNameField extracts a top-level "name" string field from a JSON
// object. A body that is not complete JSON (the first chunk of a larger
// create-collection body) falls back to a plain scan: the first "name" key
// anywhere in the bytes, followed by the next quoted string.
func sniffNameField(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		var name string
		_ = json.Unmarshal(fields["name"], &name)
		return name
	}

	const key = `"name"`
	i := indexOf(body, []byte(key))
	if i < 0 {
		return ""
	}
	rest := body[i+len(key):]
	j := indexOf(rest, []byte(`"`))
	if j < 0 {
		return ""
	}
	rest = rest[j+1:]
	end := indexOf(rest, []byte(`"`))
	if end < 0 {
		return ""
	}
	return string(rest[:end])
}

func indexOf(haystack, needle []byte) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == string(needle) {
			return i
		}
	}
	return -1
}
