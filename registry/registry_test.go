package registry

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windexdb/winx/protocol"
)

func seedFor(routeHash uint64) func() (*protocol.Request, *protocol.Response) {
	return func() (*protocol.Request, *protocol.Response) {
		return &protocol.Request{RouteHash: routeHash}, &protocol.Response{}
	}
}

func TestGetOrCreateFirstSightingIsSequenceZero(t *testing.T) {
	r := New()
	rec, seq := r.GetOrCreate(1, seedFor(7))
	require.NotNil(t, rec)
	assert.Equal(t, uint32(0), seq)
	assert.Equal(t, uint32(1), rec.NumChunks)
	assert.False(t, rec.IsComplete)
}

func TestGetOrCreateAdvancesSequence(t *testing.T) {
	r := New()
	r.GetOrCreate(1, seedFor(7))
	rec, seq := r.GetOrCreate(1, seedFor(7))
	assert.Equal(t, uint32(1), seq, spew.Sdump(rec))
	assert.Equal(t, uint32(2), rec.NumChunks)

	_, seq = r.GetOrCreate(1, seedFor(7))
	assert.Equal(t, uint32(2), seq)
}

func TestGetOrCreateSeedIgnoredAfterFirstSighting(t *testing.T) {
	r := New()
	r.GetOrCreate(1, seedFor(7))
	rec, _ := r.GetOrCreate(1, seedFor(99))
	assert.Equal(t, uint64(7), rec.ReqHandle.RouteHash, "seed must only apply on first sighting")
}

func TestMarkCompleteAndErase(t *testing.T) {
	r := New()
	r.GetOrCreate(5, seedFor(1))
	r.MarkComplete(5)

	rec, ok := r.Get(5)
	require.True(t, ok)
	assert.True(t, rec.IsComplete)

	r.Erase(5)
	_, ok = r.Get(5)
	assert.False(t, ok, "erased record must not be retrievable")
}

func TestMarkCompleteUnknownIDIsNoop(t *testing.T) {
	r := New()
	assert.NotPanics(t, func() { r.MarkComplete(404) })
}

func TestSnapshotViewCoversEveryEntry(t *testing.T) {
	r := New()
	r.GetOrCreate(1, seedFor(1))
	r.GetOrCreate(2, seedFor(2))
	r.GetOrCreate(3, seedFor(3))

	seen := map[uint64]bool{}
	r.SnapshotView(func(id uint64, rec *Record) {
		seen[id] = true
	})
	assert.Len(t, seen, 3, spew.Sdump(seen))
}

func TestRestoreBypassesGetOrCreate(t *testing.T) {
	r := New()
	r.Restore(42, &Record{
		ReqHandle:      &protocol.Request{RouteHash: 3},
		NumChunks:      4,
		NextChunkIndex: 2,
		IsComplete:     true,
	})

	rec, ok := r.Get(42)
	require.True(t, ok)
	assert.Equal(t, uint32(4), rec.NumChunks)
	assert.Equal(t, uint32(2), rec.NextChunkIndex)
	assert.True(t, rec.IsComplete)
}

func TestLenTracksLiveEntries(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Len())
	r.GetOrCreate(1, seedFor(1))
	r.GetOrCreate(2, seedFor(2))
	assert.Equal(t, 2, r.Len())
	r.Erase(1)
	assert.Equal(t, 1, r.Len())
}
