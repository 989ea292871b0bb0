// Package registry holds the in-memory table of in-flight requests, keyed
// by request id. It picks the "concurrent map plus per-entry lightweight
// locking" alternative the reference design explicitly allows instead of a
// single registry_mutex, because the teacher codebase already leans on
// github.com/puzpuzpuz/xsync/v3's lock-free map for exactly this shape of
// problem (its peer tables in network/net.go and toytlv/transport.go).
package registry

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/windexdb/winx/protocol"
)

// ReqID mirrors winx.ReqID without importing the root package (which
// imports registry), keeping the dependency graph a DAG.
type ReqID = uint64

// Record is the bookkeeping winx keeps for one in-flight request.
//
// Invariants (unchanged from the design):
//  1. NumChunks always equals the number of persisted chunks for this
//     req_id.
//  2. NextChunkIndex <= NumChunks; equality means fully drained.
//  3. A req_id lives in at most one shard queue, pushed exactly when
//     IsComplete transitions false->true (or at snapshot restore time for
//     already-complete entries).
//  4. Structural fields (NumChunks, IsComplete) are only ever mutated
//     under the Registry's struct lock, by Enqueue. NextChunkIndex and
//     PrevReqBody are only ever mutated by the one worker that owns this
//     record after hand-off through its shard queue — no lock needed
//     there because ownership is single-writer by construction.
type Record struct {
	ReqHandle *protocol.Request
	ResHandle *protocol.Response

	BatchBeginTS time.Time

	// structural fields — guarded by Registry.structMu
	NumChunks  uint32
	IsComplete bool

	// worker-owned fields — no lock, single writer by hand-off
	NextChunkIndex uint32
	PrevReqBody    string
}

// Registry is the req_id -> Record table.
type Registry struct {
	m *xsync.MapOf[ReqID, *Record]

	// structMu guards NumChunks/IsComplete across every Record — the
	// registry_mutex of the design, scoped down to just the fields that
	// are genuinely shared between Enqueue and the registry's own
	// bookkeeping.
	structMu sync.Mutex
}

func New() *Registry {
	return &Registry{m: xsync.NewMapOf[ReqID, *Record]()}
}

// GetOrCreate returns the record for id, creating it with NumChunks=1,
// NextChunkIndex=0, IsComplete=false if absent and returning chunk_sequence
// 0; otherwise it returns the current NumChunks as the next chunk_sequence
// and increments it. seed supplies the ReqHandle/ResHandle for a first
// sighting of id; it is ignored on subsequent calls.
func (r *Registry) GetOrCreate(id ReqID, seed func() (*protocol.Request, *protocol.Response)) (rec *Record, seq uint32) {
	r.structMu.Lock()
	defer r.structMu.Unlock()

	existing, ok := r.m.Load(id)
	if !ok {
		req, res := seed()
		rec = &Record{
			ReqHandle:    req,
			ResHandle:    res,
			BatchBeginTS: time.Now(),
			NumChunks:    1,
		}
		r.m.Store(id, rec)
		return rec, 0
	}

	seq = existing.NumChunks
	existing.NumChunks++
	return existing, seq
}

// MarkComplete flips IsComplete to true under the struct lock.
func (r *Registry) MarkComplete(id ReqID) {
	r.structMu.Lock()
	defer r.structMu.Unlock()
	if rec, ok := r.m.Load(id); ok {
		rec.IsComplete = true
	}
}

// Get returns the record for id without mutating anything.
func (r *Registry) Get(id ReqID) (*Record, bool) {
	return r.m.Load(id)
}

// Erase removes id's record entirely. Callers must have already
// range-deleted its persisted chunks.
func (r *Registry) Erase(id ReqID) {
	r.m.Delete(id)
}

// Len reports how many requests are currently tracked.
func (r *Registry) Len() int {
	return r.m.Size()
}

// SnapshotView calls fn once per tracked request, under the struct lock,
// for a consistent iteration suitable for serialization. fn must not call
// back into the Registry.
func (r *Registry) SnapshotView(fn func(id ReqID, rec *Record)) {
	r.structMu.Lock()
	defer r.structMu.Unlock()
	r.m.Range(func(id ReqID, rec *Record) bool {
		fn(id, rec)
		return true
	})
}

// Restore inserts rec as id's record, bypassing the normal creation path.
// Used only by snapshot restore, before any worker or Enqueue call can
// observe the registry.
func (r *Registry) Restore(id ReqID, rec *Record) {
	r.m.Store(id, rec)
}
