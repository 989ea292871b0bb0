package winx

import (
	"context"
	"strconv"
	"time"

	"github.com/windexdb/winx/protocol"
	"github.com/windexdb/winx/registry"
	"github.com/windexdb/winx/route"
	"github.com/windexdb/winx/shard"
	"github.com/windexdb/winx/winxmetrics"
)

// runWorker is the shard-i drain loop: pop a completed request, replay
// every persisted chunk through its route handler in order, then remove
// the request from both the registry and the store. Exactly one worker
// owns shard i, so NextChunkIndex/PrevReqBody need no lock.
func (idx *Indexer) runWorker(i int) {
	defer idx.wg.Done()
	q := idx.shards.Queue(i)
	shardLabel := strconv.Itoa(i)

	ticker := time.NewTicker(shard.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-idx.ctx.Done():
			return
		case <-ticker.C:
		}

		winxmetrics.QueueDepth.WithLabelValues(shardLabel).Set(float64(q.Len()))

		id, ok := q.Pop()
		if !ok {
			continue
		}
		winxmetrics.WorkerBusy.WithLabelValues(shardLabel).Set(1)
		idx.drain(ReqID(id))
		winxmetrics.WorkerBusy.WithLabelValues(shardLabel).Set(0)
	}
}

// drain replays every persisted chunk of id through its route handler,
// then removes id entirely. It is only ever invoked by the one worker
// that owns id's shard.
func (idx *Indexer) drain(id ReqID) {
	rec, ok := idx.registry.Get(uint64(id))
	if !ok {
		idx.log.Warn("drain: unknown request", "req_id", uint64(id))
		return
	}

	rt, found := idx.routes.GetRoute(rec.ReqHandle.RouteHash)

	it, err := idx.kv.ScanFrom(ChunkKeyLowerBound(id, rec.NextChunkIndex))
	if err != nil {
		idx.log.Error("drain: scan failed", "req_id", uint64(id), "err", err)
		return
	}
	defer it.Close()

	for it.Valid() && HasChunkPrefix(it.Key(), id) {
		select {
		case <-idx.ctx.Done():
			// Stop mid-scan on shutdown: NextChunkIndex already reflects
			// every chunk applied so far, so a restart resumes cleanly.
			return
		default:
		}

		idx.applyChunk(id, rec, rt, found, ChunkSequenceOf(it.Key()), it.Value())
		if !found {
			// NotFoundRoute: the response (if any) is already dispatched;
			// draining further chunks would only repeat it. The chunks
			// still get range-deleted below along with everything else.
			break
		}
		if !it.Next() {
			break
		}
	}

	if rec.IsComplete {
		if err := idx.kv.DeleteRange(ChunkKeyPrefixOnly(id), ChunkKeyRangeUpperBound(id)); err != nil {
			idx.log.Error("drain: delete range failed", "req_id", uint64(id), "err", err)
		}
		idx.registry.Erase(uint64(id))
	}
}

// applyChunk replays one chunk value against its route handler. rec's
// worker-owned fields (NextChunkIndex, PrevReqBody) are mutated here
// without a lock: this goroutine is their sole writer by construction.
// seq is the chunk_sequence ChunkSequenceOf extracted from the scanned key,
// so NextChunkIndex always reflects the chunk actually applied rather than
// assuming the scan visited sequences one at a time without a gap.
func (idx *Indexer) applyChunk(id ReqID, rec *registry.Record, rt route.Route, found bool, seq uint32, value []byte) {
	idx.pause.RLock()
	defer idx.pause.RUnlock()

	// Start from whatever context Enqueue stashed on this request (an HTTP
	// request context carrying a transport correlation id, typically) so
	// values set there — not just cancellation — survive into the ctx a
	// dispatcher sees on StreamResponse. Nothing has stashed one yet for a
	// request restored from a snapshot, hence the nil guard.
	parent := rec.ReqHandle.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, span := idx.tracer.Start(parent, "winx.applyChunk")
	defer span.End()

	defer func() {
		idx.queuedWrites.Add(-1)
		rec.NextChunkIndex = seq + 1
	}()

	chunk, err := protocol.LoadChunk(value)
	if err != nil {
		idx.log.ErrorCtx(ctx, "malformed chunk", "req_id", uint64(id), "err", err)
		winxmetrics.ChunksProcessed.WithLabelValues("malformed").Inc()
		return
	}

	req := rec.ReqHandle
	req.Body = rec.PrevReqBody + string(chunk.Body)
	req.Ctx = ctx

	res := rec.ResHandle
	*res = protocol.Response{}

	switch {
	case !found:
		res.NewNotFound()
		winxmetrics.ChunksProcessed.WithLabelValues("not_found").Inc()
	default:
		if err := rt.Handler(ctx, req, res); err != nil {
			idx.log.ErrorCtx(ctx, "handler error", "req_id", uint64(id), "err", err)
			winxmetrics.ChunksProcessed.WithLabelValues("handler_error").Inc()
		} else {
			winxmetrics.ChunksProcessed.WithLabelValues("ok").Inc()
		}
	}

	rec.PrevReqBody = req.Body

	// A found, async_res route owns its response lifecycle entirely — the
	// worker dispatches nothing for it. Everything else still live gets a
	// streamed response: a not-found route (no handler to hand off to) or
	// a synchronous one.
	if req.Live && (!found || !rt.AsyncRes) {
		idx.disp.StreamResponse(req, res)
	}
}
