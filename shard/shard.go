// Package shard implements the sharded FIFO queues that give writes to the
// same collection a strict order while letting different collections drain
// in parallel. Shard assignment is a pure hash of the collection name, so
// no coordination is needed to pick a queue; draining is a plain
// mutex-guarded slice polled by one worker per shard on a cheap ticker
// (PollInterval) instead of a condition variable.
//
// Request ids are carried as plain uint64 rather than the root package's
// winx.ReqID, the same way registry.ReqID is its own alias — winx imports
// shard to build its worker pool, so shard cannot import winx back.
package shard

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// PollInterval is how often an idle worker re-checks its queue for work.
const PollInterval = 10 * time.Millisecond

// Of returns the shard index a collection name is routed to, out of n
// shards. Anonymous writes (collection == "") land on shard 0 along with
// whatever happens to hash there, which is acceptable: an empty collection
// name is already a degenerate, unordered case.
func Of(collection string, n int) int {
	if n <= 0 {
		return 0
	}
	if collection == "" {
		return 0
	}
	return int(xxhash.Sum64([]byte(collection)) % uint64(n))
}

// Queue is a mutex-guarded FIFO of request IDs belonging to one shard.
// Multiple enqueuers push concurrently; exactly one worker pops.
type Queue struct {
	mu    sync.Mutex
	items []uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends id to the back of the queue.
func (q *Queue) Push(id uint64) {
	q.mu.Lock()
	q.items = append(q.items, id)
	q.mu.Unlock()
}

// Pop removes and returns the front of the queue, reporting ok=false if
// the queue is empty.
func (q *Queue) Pop() (id uint64, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return 0, false
	}
	id = q.items[0]
	// Shift rather than re-slice-from-front forever: avoids the backing
	// array growing unbounded under a queue that's pushed-to far more
	// than it's drained (a stuck worker, a route storm).
	n := copy(q.items, q.items[1:])
	q.items = q.items[:n]
	return id, true
}

// Len reports the current queue depth, for metrics and the admin REPL.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Set is a fixed-size group of shard queues plus the worker-pool-wide
// collection-name→shard resolution.
type Set struct {
	queues []*Queue
}

// NewSet allocates n empty queues.
func NewSet(n int) *Set {
	if n <= 0 {
		n = 1
	}
	qs := make([]*Queue, n)
	for i := range qs {
		qs[i] = NewQueue()
	}
	return &Set{queues: qs}
}

// Len reports the number of shards in the set.
func (s *Set) Len() int {
	return len(s.queues)
}

// Queue returns the i'th shard's queue.
func (s *Set) Queue(i int) *Queue {
	return s.queues[i%len(s.queues)]
}

// Enqueue pushes id onto the shard collection hashes to.
func (s *Set) Enqueue(collection string, id uint64) {
	s.Queue(Of(collection, len(s.queues))).Push(id)
}

// Depths returns the current length of every shard's queue, indexed by
// shard number — used by winxmetrics and the admin REPL's "show queues".
func (s *Set) Depths() []int {
	out := make([]int, len(s.queues))
	for i, q := range s.queues {
		out[i] = q.Len()
	}
	return out
}
