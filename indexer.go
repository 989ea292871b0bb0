// Package winx implements a durable, per-collection-ordered write indexer:
// large requests arrive as a stream of chunks over a replicated log,
// get persisted chunk-by-chunk to an embedded KV store, and are handed to
// a fixed pool of shard workers once complete, so that writes to the same
// collection apply in arrival order while different collections proceed
// in parallel.
package winx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/windexdb/winx/registry"
	"github.com/windexdb/winx/route"
	"github.com/windexdb/winx/shard"
	"github.com/windexdb/winx/snapshot"
	"github.com/windexdb/winx/store"
	"github.com/windexdb/winx/utils"
)

// Indexer ties together the chunk store, the in-flight request registry,
// the shard queues and their workers, and the route table/dispatcher the
// host process supplies.
type Indexer struct {
	kv     store.KV
	routes route.Table
	disp   route.Dispatcher

	registry *registry.Registry
	shards   *shard.Set
	pause    PauseLock

	cfg Config

	createCollectionHash uint64
	legacyMu             sync.Mutex

	log    utils.Logger
	tracer trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool

	// queuedWrites is the informational backpressure counter from §5: bumped
	// by chunk_sequence+1 when a request completes, drained one at a time as
	// its chunks are applied. It need not agree with any single consistent
	// view of the registry — it's a liveness signal, not a correctness one.
	queuedWrites atomic.Int64
}

// New constructs an Indexer ready to run. Call Start to launch its workers
// and GC loop, and Close to drain them and release the store handle.
func New(kv store.KV, routes route.Table, disp route.Dispatcher, cfg Config) *Indexer {
	cfg.SetDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Indexer{
		kv:                   kv,
		routes:               routes,
		disp:                 disp,
		registry:             registry.New(),
		shards:               shard.NewSet(cfg.Workers),
		cfg:                  cfg,
		createCollectionHash: route.CreateCollectionHash,
		log:                  utils.NewDefaultLogger(slog.LevelInfo),
		tracer:               otel.Tracer("github.com/windexdb/winx"),
		ctx:                  ctx,
		cancel:               cancel,
	}
}

// Start launches one worker goroutine per shard and the GC loop.
func (idx *Indexer) Start() {
	for i := 0; i < idx.shards.Len(); i++ {
		idx.wg.Add(1)
		go idx.runWorker(i)
	}
	idx.wg.Add(1)
	go idx.runGC()
}

// Close stops the GC loop and every worker, then closes the underlying
// store. It blocks until every goroutine has observed cancellation and
// returned.
func (idx *Indexer) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	idx.cancel()
	idx.wg.Wait()
	return idx.kv.Close()
}

// Snapshot takes a consistent point-in-time Document of the registry,
// excluding workers from applying new chunks for the duration of the read.
func (idx *Indexer) Snapshot() []byte {
	snapID := xid.New().String()
	idx.pause.Pause()
	defer idx.pause.Resume()
	doc := snapshot.Take(idx.registry)
	doc.ShardCount = idx.shards.Len()
	doc.QueuedWrites = idx.queuedWrites.Load()
	data, err := snapshot.EncodeJSON(doc)
	if err != nil {
		idx.log.Error("snapshot encode failed", "snapshot_id", snapID, "err", err)
		return nil
	}
	idx.log.Info("snapshot taken", "snapshot_id", snapID, "requests", len(doc.Requests))
	return data
}
