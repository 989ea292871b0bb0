// Package protocol frames chunk values and carries the request/response
// handles that flow from the Enqueue path through a worker to a handler.
//
// The wire framing below is lifted nearly verbatim from the teacher
// codebase's own protocol/tlv.go (itself a from-scratch reimplementation of
// the ToyTLV format by Victor Grishchenko): a compact Type-Length-Value
// encoding with three header widths chosen by body size, so a one-byte
// body costs one byte of header instead of a fixed 5. winx reuses it to
// frame a chunk's flags and body fragment inside the single []byte value
// that store.KV.Put persists — a different payload than the teacher's own
// operation log, same wire idiom.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const caseBit uint8 = 'a' - 'A'

var (
	ErrIncomplete = errors.New("protocol: incomplete data")
	ErrBadRecord  = errors.New("protocol: bad TLV record format")
)

// Records is a sequence of complete TLV records.
type Records [][]byte

// ProbeHeader analyzes a TLV record header and extracts type and size.
// Returns lit=0 for an incomplete header, lit='-' for a malformed one.
func ProbeHeader(data []byte) (lit byte, hdrlen, bodylen int) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	dlit := data[0]
	switch {
	case dlit >= '0' && dlit <= '9':
		lit = '0'
		bodylen = int(dlit - '0')
		hdrlen = 1
	case dlit >= 'a' && dlit <= 'z':
		if len(data) < 2 {
			return 0, 0, 0
		}
		lit = dlit - caseBit
		hdrlen = 2
		bodylen = int(data[1])
	case dlit >= 'A' && dlit <= 'Z':
		if len(data) < 5 {
			return 0, 0, 0
		}
		bl := binary.LittleEndian.Uint32(data[1:5])
		if bl > 0x7fffffff {
			return '-', 0, 0
		}
		lit = dlit
		bodylen = int(bl)
		hdrlen = 5
	default:
		lit = '-'
	}
	return
}

// AppendHeader appends a TLV header for a body of bodylen bytes, picking
// tiny/short/long encoding automatically. Lowercase lit enables the tiny
// format for bodies under 10 bytes.
func AppendHeader(into []byte, lit byte, bodylen int) []byte {
	biglit := lit &^ caseBit
	if biglit < 'A' || biglit > 'Z' {
		panic("protocol: record type must be A..Z")
	}
	switch {
	case bodylen < 10 && (lit&caseBit) != 0:
		return append(into, byte('0'+bodylen))
	case bodylen > 0xff:
		if bodylen > 0x7fffffff {
			panic("protocol: oversized TLV record")
		}
		ret := append(into, biglit)
		return binary.LittleEndian.AppendUint32(ret, uint32(bodylen))
	default:
		return append(into, lit|caseBit, byte(bodylen))
	}
}

// TotalLen sums the length of every slice in parts.
func TotalLen(parts [][]byte) (sum int) {
	for _, p := range parts {
		sum += len(p)
	}
	return
}

// Record builds one complete TLV record (header + body).
func Record(lit byte, body ...[]byte) []byte {
	total := TotalLen(body)
	ret := make([]byte, 0, total+5)
	ret = AppendHeader(ret, lit, total)
	for _, b := range body {
		ret = append(ret, b...)
	}
	return ret
}

// Concat efficiently concatenates byte slices with a single allocation.
func Concat(parts ...[]byte) []byte {
	total := TotalLen(parts)
	ret := make([]byte, 0, total)
	for _, p := range parts {
		ret = append(ret, p...)
	}
	return ret
}

// Take extracts a record of the given type from trusted data.
func Take(lit byte, data []byte) (body, rest []byte) {
	flit, hdrlen, bodylen := ProbeHeader(data)
	if flit == 0 || hdrlen+bodylen > len(data) {
		return nil, data
	}
	if flit != lit && flit != '0' {
		return nil, nil
	}
	return data[hdrlen : hdrlen+bodylen], data[hdrlen+bodylen:]
}

// TakeWary is Take for untrusted (persisted, possibly truncated or
// corrupted) data: it reports exactly why a record did not come out.
func TakeWary(lit byte, data []byte) (body, rest []byte, err error) {
	flit, hdrlen, bodylen := ProbeHeader(data)
	if flit == 0 || hdrlen+bodylen > len(data) {
		return nil, data, ErrIncomplete
	}
	if flit != lit && flit != '0' {
		return nil, nil, ErrBadRecord
	}
	return data[hdrlen : hdrlen+bodylen], data[hdrlen+bodylen:], nil
}

// Split parses every complete record out of buf, draining it as it goes.
func Split(buf *bytes.Buffer) (recs Records, err error) {
	for buf.Len() > 0 {
		lit, hlen, blen := ProbeHeader(buf.Bytes())
		if lit == '-' {
			if len(recs) == 0 {
				err = ErrBadRecord
			}
			return recs, err
		}
		if lit == 0 {
			return recs, nil
		}
		if hlen+blen > buf.Len() {
			return recs, fmt.Errorf("%w: want %d have %d", ErrIncomplete, hlen+blen, buf.Len())
		}
		rec := make([]byte, hlen+blen)
		if _, err := buf.Read(rec); err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
