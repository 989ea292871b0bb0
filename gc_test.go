package winx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windexdb/winx/protocol"
	"github.com/windexdb/winx/registry"
	"github.com/windexdb/winx/route"
)

// TestGCPrunesAbandonedRequest is scenario S5: an incomplete request older
// than GCPruneMaxSeconds is removed, chunks included, by one sweep.
func TestGCPrunesAbandonedRequest(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}
	cfg := Config{Workers: 1, GCPruneMaxSeconds: 60}
	idx := New(kv, route.StaticTable{}, disp, cfg)

	require.NoError(t, kv.Put(ChunkKey(300, 0), protocol.DumpChunk(protocol.Chunk{RouteHash: 1, Body: []byte("x")})))
	idx.registry.Restore(300, &registry.Record{
		ReqHandle:    &protocol.Request{RouteHash: 1},
		ResHandle:    &protocol.Response{},
		BatchBeginTS: time.Now().Add(-2 * time.Hour),
		NumChunks:    1,
	})

	pruned, err := idx.TriggerGC()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 0, kv.len())
	assert.Equal(t, 0, idx.RegistryLen())
}

// TestGCLeavesFreshRequestsAlone ensures a request younger than the prune
// horizon survives a sweep untouched.
func TestGCLeavesFreshRequestsAlone(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}
	cfg := Config{Workers: 1, GCPruneMaxSeconds: 3600}
	idx := New(kv, route.StaticTable{}, disp, cfg)

	require.NoError(t, kv.Put(ChunkKey(301, 0), protocol.DumpChunk(protocol.Chunk{RouteHash: 1})))
	idx.registry.Restore(301, &registry.Record{
		ReqHandle:    &protocol.Request{RouteHash: 1},
		ResHandle:    &protocol.Response{},
		BatchBeginTS: time.Now(),
		NumChunks:    1,
	})

	pruned, err := idx.TriggerGC()
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)
	assert.Equal(t, 1, kv.len())
	assert.Equal(t, 1, idx.RegistryLen())
}

// TestGCIgnoresCompletedRequests: a completed-but-not-yet-drained request
// is skipped by age-based pruning; only incomplete uploads are abandoned
// uploads. (This repo's own choice among the two accepted alternatives in
// the design's open questions — see DESIGN.md.)
func TestGCIgnoresCompletedRequests(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}
	cfg := Config{Workers: 1, GCPruneMaxSeconds: 60}
	idx := New(kv, route.StaticTable{}, disp, cfg)

	require.NoError(t, kv.Put(ChunkKey(302, 0), protocol.DumpChunk(protocol.Chunk{RouteHash: 1})))
	idx.registry.Restore(302, &registry.Record{
		ReqHandle:    &protocol.Request{RouteHash: 1},
		ResHandle:    &protocol.Response{},
		BatchBeginTS: time.Now().Add(-2 * time.Hour),
		NumChunks:    1,
		IsComplete:   true,
	})

	pruned, err := idx.TriggerGC()
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)
	assert.Equal(t, 1, idx.RegistryLen())
}
