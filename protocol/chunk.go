package protocol

import (
	"encoding/binary"
)

// chunk flag bits, packed into a single tiny 'F' record.
const (
	flagLast byte = 1 << iota
	flagLive
)

// Chunk is the in-memory shape of one persisted chunk: the metadata the
// Enqueue caller supplied plus the raw body fragment. DumpChunk/LoadChunk
// are the symmetric load/store pair §4 of the design calls for — a
// handler re-parses a Chunk from the exact bytes store.KV handed back on
// scan.
type Chunk struct {
	RouteHash  uint64
	Collection string
	Last       bool
	Live       bool
	Body       []byte
}

// DumpChunk frames c as a chunk value: a tiny flags record, a route/
// collection header record, and the body record, in that order — the same
// "small fixed records then a big body record" shape the teacher's own
// operation log uses (packets.go's Log0 framing).
func DumpChunk(c Chunk) []byte {
	var flags byte
	if c.Last {
		flags |= flagLast
	}
	if c.Live {
		flags |= flagLive
	}

	hdr := make([]byte, 8, 8+len(c.Collection))
	binary.BigEndian.PutUint64(hdr, c.RouteHash)
	hdr = append(hdr, c.Collection...)

	return Concat(
		Record('f', []byte{flags}),
		Record('H', hdr),
		Record('B', c.Body),
	)
}

// LoadChunk parses a chunk value produced by DumpChunk. It returns
// ErrMalformed-shaped errors (ErrBadRecord/ErrIncomplete) on a corrupted or
// truncated value, which callers surface as the MalformedChunk error kind.
func LoadChunk(value []byte) (c Chunk, err error) {
	flagsBody, rest, err := TakeWary('F', value)
	if err != nil {
		return Chunk{}, err
	}
	if len(flagsBody) != 1 {
		return Chunk{}, ErrBadRecord
	}
	flags := flagsBody[0]
	c.Last = flags&flagLast != 0
	c.Live = flags&flagLive != 0

	hdrBody, rest, err := TakeWary('H', rest)
	if err != nil {
		return Chunk{}, err
	}
	if len(hdrBody) < 8 {
		return Chunk{}, ErrBadRecord
	}
	c.RouteHash = binary.BigEndian.Uint64(hdrBody[:8])
	c.Collection = string(hdrBody[8:])

	bodyBody, _, err := TakeWary('B', rest)
	if err != nil {
		return Chunk{}, err
	}
	c.Body = bodyBody
	return c, nil
}
