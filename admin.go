package winx

import "github.com/windexdb/winx/snapshot"

// QueueDepths reports the current depth of every shard's queue, for an
// admin console's "show queues" command.
func (idx *Indexer) QueueDepths() []int {
	return idx.shards.Depths()
}

// RegistryLen reports how many requests are currently tracked.
func (idx *Indexer) RegistryLen() int {
	return idx.registry.Len()
}

// QueuedWrites reports the current value of the informational backpressure
// counter (§5's queued_writes): the number of not-yet-applied chunks across
// every completed, queued request.
func (idx *Indexer) QueuedWrites() int64 {
	return idx.queuedWrites.Load()
}

// TriggerGC runs one GC sweep immediately, outside its normal tick, and
// reports how many requests it pruned.
func (idx *Indexer) TriggerGC() (pruned int, err error) {
	return idx.gcSweep()
}

// SnapshotYAML takes a paused snapshot and renders it as YAML, for an
// admin console's "snapshot dump" command.
func (idx *Indexer) SnapshotYAML() ([]byte, error) {
	idx.pause.Pause()
	defer idx.pause.Resume()
	doc := snapshot.Take(idx.registry)
	doc.ShardCount = idx.shards.Len()
	doc.QueuedWrites = idx.queuedWrites.Load()
	return snapshot.DumpYAML(doc)
}
