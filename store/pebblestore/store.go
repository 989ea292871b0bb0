// Package pebblestore implements store.KV on top of
// github.com/cockroachdb/pebble, the sorted LSM engine the teacher codebase
// this module was raised on already embeds for its own object keyspace.
package pebblestore

import (
	"github.com/cockroachdb/pebble"

	"github.com/windexdb/winx/store"
)

// WriteOptions matches the teacher's own unsynced-write default: chunk
// bodies are redeliverable from the upstream replicated log, so paying for
// an fsync on every chunk put is wasted latency.
var WriteOptions = &pebble.WriteOptions{Sync: false}

// Store adapts a *pebble.DB to store.KV. It owns the handle: callers should
// not write outside the key ranges this Store was configured for, mirroring
// the teacher's convention of giving each logical keyspace ('O', 'V', ...)
// exclusive ownership of its own prefix.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) a pebble database at dir and wraps it.
func Open(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Wrap adapts an already-open *pebble.DB, for callers that share one
// pebble instance across several keyspaces the way Chotki does.
func Wrap(db *pebble.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Put(key, value []byte) error {
	return s.db.Set(key, value, WriteOptions)
}

func (s *Store) ScanFrom(lowerBound []byte) (store.Iterator, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lowerBound})
	if err != nil {
		return nil, err
	}
	valid := it.SeekGE(lowerBound)
	return &iterator{it: it, valid: valid}, nil
}

func (s *Store) DeleteRange(lo, hiInclusive []byte) error {
	// pebble's end bound is exclusive; hiInclusive followed by a zero byte
	// is the next key after it, so hiInclusive itself is removed too.
	end := append(append([]byte(nil), hiInclusive...), 0)
	return s.db.DeleteRange(lo, end, WriteOptions)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for components (the metrics collector,
// an admin REPL snapshot dump) that need it directly.
func (s *Store) DB() *pebble.DB {
	return s.db
}

type iterator struct {
	it    *pebble.Iterator
	valid bool
}

func (i *iterator) Valid() bool { return i.valid }

func (i *iterator) Next() bool {
	i.valid = i.it.Next()
	return i.valid
}

func (i *iterator) Key() []byte   { return i.it.Key() }
func (i *iterator) Value() []byte { return i.it.Value() }
func (i *iterator) Close() error  { return i.it.Close() }
