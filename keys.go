package winx

import (
	"encoding/binary"
)

// ChunkKeyPrefix is the reserved namespace every persisted chunk key lives
// under. No other subsystem may write under it; the teacher's own
// convention is the single-byte 'O'/'V' prefixes on its object keyspace
// (chotki.go's OKey/VKey), generalized here to a short literal prefix since
// this keyspace is shared with a real replicated log rather than owned
// outright.
var ChunkKeyPrefix = []byte("RQL")

// chunkKeyLen is the fixed length of a chunk key after ChunkKeyPrefix:
// 8-byte req_id + '_' + 4-byte chunk_sequence.
const chunkKeyLen = 8 + 1 + 4

// ChunkKey builds the durable key for one chunk of req, matching the
// distilled layout exactly: big-endian req_id, then '_', then big-endian
// chunk_sequence. Big-endian encoding is load-bearing: a store.KV prefix
// scan must yield chunks back in ascending chunk_sequence order.
func ChunkKey(req ReqID, seq uint32) []byte {
	key := make([]byte, 0, len(ChunkKeyPrefix)+chunkKeyLen)
	key = append(key, ChunkKeyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(req))
	key = append(key, '_')
	key = binary.BigEndian.AppendUint32(key, seq)
	return key
}

// ChunkKeyLowerBound returns the key of the first chunk (sequence 0) of
// req, i.e. the scan start for draining it from the beginning, or from
// fromSeq if resuming mid-drain after a snapshot restore.
func ChunkKeyLowerBound(req ReqID, fromSeq uint32) []byte {
	return ChunkKey(req, fromSeq)
}

// ChunkKeyRangeUpperBound returns the inclusive upper bound (the key of
// chunk_sequence 0xFFFFFFFF) that covers every possible chunk_sequence of
// req, for use with store.KV.DeleteRange.
func ChunkKeyRangeUpperBound(req ReqID) []byte {
	return ChunkKey(req, 0xFFFFFFFF)
}

// ChunkKeyPrefixOnly returns the key prefix shared by all chunks of req,
// without a sequence suffix — used to test whether a scanned key still
// belongs to this request.
func ChunkKeyPrefixOnly(req ReqID) []byte {
	key := make([]byte, 0, len(ChunkKeyPrefix)+8+1)
	key = append(key, ChunkKeyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(req))
	key = append(key, '_')
	return key
}

// HasChunkPrefix reports whether key still belongs to req's chunk range.
func HasChunkPrefix(key []byte, req ReqID) bool {
	prefix := ChunkKeyPrefixOnly(req)
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

// ChunkSequenceOf extracts the chunk_sequence encoded in key. The caller
// must have already verified the key belongs to the expected req_id.
func ChunkSequenceOf(key []byte) uint32 {
	if len(key) < chunkKeyLen+len(ChunkKeyPrefix) {
		return 0
	}
	return binary.BigEndian.Uint32(key[len(key)-4:])
}
