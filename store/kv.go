// Package store defines the durable key-value contract the chunk store
// adapter needs: ordered puts, prefix scans, and range deletes. The engine
// behind it (pebble, a raft-backed KV, whatever) is an external
// collaborator referenced only by this interface.
package store

import "errors"

// KV is a lexicographically ordered key-value store with prefix-scan and
// range-delete support. Put hands the write to the engine before it
// returns; whether it is also fsynced is up to the implementation
// (pebblestore does not sync, see its WriteOptions).
type KV interface {
	Put(key, value []byte) error

	// ScanFrom returns an iterator positioned at the first key >= lowerBound,
	// in ascending key order. The caller is responsible for stopping once
	// keys no longer carry the prefix it cares about, and for Close()ing
	// the iterator.
	ScanFrom(lowerBound []byte) (Iterator, error)

	// DeleteRange removes every key in [lo, hiInclusive]. hiInclusive is
	// the last key the caller wants removed, itself included (callers
	// typically pass prefix+0xFFFFFFFF).
	DeleteRange(lo, hiInclusive []byte) error

	Close() error
}

// Iterator walks a KV range in ascending key order.
type Iterator interface {
	// Valid reports whether the iterator is currently positioned on a key.
	Valid() bool
	// Next advances the iterator. Returns false when exhausted.
	Next() bool
	Key() []byte
	Value() []byte
	Close() error
}

// ErrStoreClosed is returned by operations against a closed KV.
var ErrStoreClosed = errors.New("store: closed")
