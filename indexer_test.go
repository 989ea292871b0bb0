package winx

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windexdb/winx/protocol"
	"github.com/windexdb/winx/route"
	"github.com/windexdb/winx/shard"
	"github.com/windexdb/winx/store"
)

// memKV is a tiny in-memory store.KV good enough to exercise the indexer
// end to end: a sorted map plus a linear-scan iterator, no concurrency
// tricks beyond a mutex, since store.KV's real implementations are
// expected to handle their own internal locking.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) sortedKeysFrom(lowerBound []byte) []string {
	lb := string(lowerBound)
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if k >= lb {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *memKV) ScanFrom(lowerBound []byte) (store.Iterator, error) {
	m.mu.Lock()
	keys := m.sortedKeysFrom(lowerBound)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.data[k]
	}
	m.mu.Unlock()
	// store.Iterator is pre-positioned at the first key >= lowerBound (see
	// store/kv.go), same as pebblestore's SeekGE — start at 0, not before it.
	return &memIter{keys: keys, values: values, i: 0}, nil
}

func (m *memKV) DeleteRange(lo, hiInclusive []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if k >= string(lo) && k <= string(hiInclusive) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memKV) Close() error { return nil }

func (m *memKV) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type memIter struct {
	keys   []string
	values [][]byte
	i      int
}

func (it *memIter) Valid() bool { return it.i >= 0 && it.i < len(it.keys) }
func (it *memIter) Next() bool {
	it.i++
	return it.Valid()
}
func (it *memIter) Key() []byte   { return []byte(it.keys[it.i]) }
func (it *memIter) Value() []byte { return it.values[it.i] }
func (it *memIter) Close() error  { return nil }

// recordingDispatcher captures every StreamResponse/RequestProceed call
// for assertions, guarded by a mutex since workers call it concurrently.
type recordingDispatcher struct {
	mu        sync.Mutex
	responses []*protocol.Response
	proceeds  int
}

func (d *recordingDispatcher) RequestProceed(_ *protocol.Request) {
	d.mu.Lock()
	d.proceeds++
	d.mu.Unlock()
}

func (d *recordingDispatcher) StreamResponse(_ *protocol.Request, res *protocol.Response) {
	d.mu.Lock()
	d.responses = append(d.responses, res)
	d.mu.Unlock()
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.responses)
}

// bodyCapturingHandler records the exact req.Body a handler sees on each
// invocation, for asserting chunk-assembly/carry-over behavior (S2).
func bodyCapturingHandler(seen *[]string, mu *sync.Mutex) route.Handler {
	return func(_ context.Context, req *protocol.Request, res *protocol.Response) error {
		mu.Lock()
		*seen = append(*seen, req.Body)
		mu.Unlock()
		req.Body = ""
		res.StatusCode = 200
		return nil
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "condition never became true within %s", timeout)
}

// TestSingleChunkAssembly is scenario S1: one complete request in one
// chunk gets exactly one handler call and leaves no trace in the store or
// registry once applied.
func TestSingleChunkAssembly(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}
	var seenBodies []string
	var mu sync.Mutex

	routes := route.StaticTable{1: {Handler: bodyCapturingHandler(&seenBodies, &mu)}}
	cfg := Config{Workers: 2}
	idx := New(kv, routes, disp, cfg)
	idx.Start()
	defer idx.Close()

	require.NoError(t, idx.Enqueue(context.Background(), ReqID(100), 1, "books", []byte(`{"title":"x"}`), true, true, 0))

	waitUntil(t, time.Second, func() bool { return disp.count() == 1 })

	mu.Lock()
	assert.Equal(t, []string{`{"title":"x"}`}, seenBodies)
	mu.Unlock()

	assert.Equal(t, 0, kv.len(), "all chunks must be range-deleted after a full drain")
	assert.Equal(t, 0, idx.RegistryLen())
}

// TestMultiChunkAssemblyCarriesOverBody is scenario S2: the unconsumed
// suffix from one chunk's handler call must show up as the prefix of the
// next chunk's body.
func TestMultiChunkAssemblyCarriesOverBody(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}

	var mu sync.Mutex
	var seenBodies []string
	routes := route.StaticTable{1: {Handler: func(_ context.Context, req *protocol.Request, res *protocol.Response) error {
		mu.Lock()
		seenBodies = append(seenBodies, req.Body)
		mu.Unlock()
		// Simulate a handler that consumes up through the last '}' and
		// leaves everything after as the carry-over suffix.
		if idx := lastCloseBrace(req.Body); idx >= 0 {
			req.Body = req.Body[idx+1:]
		}
		res.StatusCode = 200
		return nil
	}}}

	cfg := Config{Workers: 1}
	idx := New(kv, routes, disp, cfg)
	idx.Start()
	defer idx.Close()

	require.NoError(t, idx.Enqueue(context.Background(), ReqID(100), 1, "books", []byte(`{"a":1}`+"\n"+`{"b":2`), false, true, 0))
	require.NoError(t, idx.Enqueue(context.Background(), ReqID(100), 1, "books", []byte(`}`+"\n"+`{"c":3}`+"\n"), true, true, 0))

	// A live, synchronous request gets one streamed response per chunk.
	waitUntil(t, time.Second, func() bool { return disp.count() == 2 })

	mu.Lock()
	require.Len(t, seenBodies, 2)
	assert.Equal(t, `{"a":1}`+"\n"+`{"b":2`, seenBodies[0])
	assert.Equal(t, `{"b":2`+`}`+"\n"+`{"c":3}`+"\n", seenBodies[1])
	mu.Unlock()

	assert.Equal(t, 0, kv.len())
}

func lastCloseBrace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '}' {
			return i
		}
	}
	return -1
}

// TestUnknownRouteRespondsNotFoundAndStopsDraining is scenario S6.
func TestUnknownRouteRespondsNotFoundAndStopsDraining(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}
	routes := route.StaticTable{}

	cfg := Config{Workers: 1}
	idx := New(kv, routes, disp, cfg)
	idx.Start()
	defer idx.Close()

	require.NoError(t, idx.Enqueue(context.Background(), ReqID(1), 999, "widgets", []byte(`{}`), true, true, 0))

	waitUntil(t, time.Second, func() bool { return disp.count() == 1 })

	assert.Equal(t, http404(disp.responses[0]), true)
	assert.Equal(t, 0, kv.len(), "chunks are still range-deleted for a not-found route")
	assert.Equal(t, 0, idx.RegistryLen())
}

func http404(res *protocol.Response) bool { return res.StatusCode == 404 }

// TestCrossCollectionRequestsApplyInParallel is scenario S3: two
// collections hashing to different shards can have handlers in flight at
// the same time, so a slow handler on one shard never blocks the other.
func TestCrossCollectionRequestsApplyInParallel(t *testing.T) {
	kv := newMemKV()
	disp := &recordingDispatcher{}

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)

	blockingHandler := func(_ context.Context, _ *protocol.Request, res *protocol.Response) error {
		started.Done()
		<-release
		res.StatusCode = 200
		return nil
	}
	routes := route.StaticTable{1: {Handler: blockingHandler}}

	cfg := Config{Workers: 4}
	idx := New(kv, routes, disp, cfg)
	idx.Start()
	defer idx.Close()

	// Pick two collection names guaranteed to land on different shards
	// under a 4-worker set for this hash implementation.
	a, b := findDistinctShardCollections(cfg.Workers)

	require.NoError(t, idx.Enqueue(context.Background(), ReqID(1), 1, a, []byte(`{}`), true, true, 0))
	require.NoError(t, idx.Enqueue(context.Background(), ReqID(2), 1, b, []byte(`{}`), true, true, 0))

	done := make(chan struct{})
	go func() {
		started.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("both handlers should have started concurrently")
	}
	close(release)

	waitUntil(t, time.Second, func() bool { return disp.count() == 2 })
}

func findDistinctShardCollections(n int) (string, string) {
	names := []string{"books", "widgets", "gadgets", "orders", "users", "events"}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if shard.Of(names[i], n) != shard.Of(names[j], n) {
				return names[i], names[j]
			}
		}
	}
	return "books", "widgets"
}
