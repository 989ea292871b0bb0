package snapshot

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windexdb/winx/protocol"
	"github.com/windexdb/winx/registry"
)

func TestTakeSortsAscendingByReqID(t *testing.T) {
	reg := registry.New()
	reg.Restore(300, &registry.Record{ReqHandle: &protocol.Request{}})
	reg.Restore(100, &registry.Record{ReqHandle: &protocol.Request{}})
	reg.Restore(200, &registry.Record{ReqHandle: &protocol.Request{}})

	doc := Take(reg)
	require.Len(t, doc.Requests, 3)
	assert.Equal(t, []uint64{100, 200, 300},
		[]uint64{doc.Requests[0].ReqID, doc.Requests[1].ReqID, doc.Requests[2].ReqID},
		spew.Sdump(doc),
	)
}

func TestTakeCapturesRecordFields(t *testing.T) {
	reg := registry.New()
	reg.Restore(1, &registry.Record{
		ReqHandle:      &protocol.Request{RouteHash: 9, Collection: "books"},
		NumChunks:      3,
		NextChunkIndex: 1,
		IsComplete:     true,
		PrevReqBody:    "leftover",
	})

	doc := Take(reg)
	require.Len(t, doc.Requests, 1)
	e := doc.Requests[0]
	assert.Equal(t, uint64(9), e.RouteHash)
	assert.Equal(t, "books", e.Collection)
	assert.Equal(t, uint32(3), e.NumChunks)
	assert.Equal(t, uint32(1), e.NextChunkIndex)
	assert.True(t, e.IsComplete)
	assert.Equal(t, "leftover", e.PrevReqBody)
}

func TestEncodeDecodeJSONRoundTrip(t *testing.T) {
	reg := registry.New()
	reg.Restore(1, &registry.Record{ReqHandle: &protocol.Request{RouteHash: 1, Collection: "a"}, NumChunks: 2})
	doc := Take(reg)

	data, err := EncodeJSON(doc)
	require.NoError(t, err)

	got, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDumpYAMLProducesParseableOutput(t *testing.T) {
	reg := registry.New()
	reg.Restore(7, &registry.Record{ReqHandle: &protocol.Request{RouteHash: 1}, NumChunks: 1})
	doc := Take(reg)

	data, err := DumpYAML(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "req_id: 7")
}
