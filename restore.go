package winx

import (
	"time"

	"github.com/windexdb/winx/protocol"
	"github.com/windexdb/winx/registry"
	"github.com/windexdb/winx/snapshot"
)

// Restore rebuilds the registry and shard queues from a previously-taken
// snapshot document. It must be called before Start, while no worker or
// Enqueue caller can yet observe the registry. Completed entries are
// re-enqueued onto their shard in ascending req_id order — snapshot.Take
// already sorts them that way — so a collection's write order survives a
// restart exactly as it would have survived a pause/resume.
func (idx *Indexer) Restore(doc snapshot.Document) {
	if doc.ShardCount != 0 && doc.ShardCount != idx.shards.Len() {
		// Shard.Of is a plain hash mod n: nothing short of consistent
		// hashing keeps every collection's assignment identical across a
		// worker-count change, which is out of scope here. Log it so an
		// operator restoring onto a resized cluster knows some
		// currently-in-flight requests may drain on a different shard
		// (still exactly once, just not on the same one as before).
		idx.log.Warn("restore: shard count changed since snapshot",
			"snapshot_shard_count", doc.ShardCount,
			"current_shard_count", idx.shards.Len(),
		)
	}
	for _, e := range doc.Requests {
		idx.registry.Restore(e.ReqID, &registry.Record{
			ReqHandle: &protocol.Request{
				RouteHash:  e.RouteHash,
				Collection: e.Collection,
			},
			ResHandle:      &protocol.Response{},
			BatchBeginTS:   time.Unix(e.BatchBeginUnix, 0),
			NumChunks:      e.NumChunks,
			NextChunkIndex: e.NextChunkIndex,
			IsComplete:     e.IsComplete,
			PrevReqBody:    e.PrevReqBody,
		})
		if e.IsComplete {
			idx.shards.Enqueue(e.Collection, e.ReqID)
		}
	}
}
