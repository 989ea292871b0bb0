// Package snapshot serializes the registry to a portable document and
// restores it on startup, matching §4.7 of the design. JSON is the wire
// format consumers fetch over the admin API; YAML is the human-readable
// dump the admin REPL's "snapshot dump" command prints to stdout, in the
// same spirit as the teacher's swagger-adjacent debug dumps but rendered
// with gopkg.in/yaml.v3 instead of hand-rolled text.
package snapshot

import (
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/windexdb/winx/registry"
)

// RequestEntry is the wire shape of one registry.Record.
type RequestEntry struct {
	ReqID          uint64 `json:"req_id" yaml:"req_id"`
	RouteHash      uint64 `json:"route_hash" yaml:"route_hash"`
	Collection     string `json:"collection" yaml:"collection"`
	NumChunks      uint32 `json:"num_chunks" yaml:"num_chunks"`
	NextChunkIndex uint32 `json:"next_chunk_index" yaml:"next_chunk_index"`
	IsComplete     bool   `json:"is_complete" yaml:"is_complete"`
	PrevReqBody    string `json:"prev_req_body,omitempty" yaml:"prev_req_body,omitempty"`
	BatchBeginUnix int64  `json:"batch_begin_unix" yaml:"batch_begin_unix"`
}

// Document is the full snapshot: every tracked request plus the shard
// count it was taken under. Restore compares that count with the running
// one and logs a warning when they differ; it still assigns shards by the
// running count.
type Document struct {
	ShardCount int            `json:"shard_count" yaml:"shard_count"`
	// QueuedWrites mirrors §6's queued_writes wire field: it is filled in
	// by the caller (winx.Indexer.Snapshot/SnapshotYAML) since it lives on
	// the Indexer, not the Registry this package serializes.
	QueuedWrites int64          `json:"queued_writes" yaml:"queued_writes"`
	Requests     []RequestEntry `json:"requests" yaml:"requests"`
}

// Take walks reg under its own lock and produces a Document, with entries
// sorted ascending by ReqID so EncodeJSON/DumpYAML output is deterministic
// and so Restore's caller can re-enqueue completed entries in the order
// the design's restore procedure requires.
func Take(reg *registry.Registry) Document {
	doc := Document{}
	reg.SnapshotView(func(id uint64, rec *registry.Record) {
		e := RequestEntry{
			ReqID:          id,
			NumChunks:      rec.NumChunks,
			NextChunkIndex: rec.NextChunkIndex,
			IsComplete:     rec.IsComplete,
			PrevReqBody:    rec.PrevReqBody,
			BatchBeginUnix: rec.BatchBeginTS.Unix(),
		}
		if rec.ReqHandle != nil {
			e.RouteHash = rec.ReqHandle.RouteHash
			e.Collection = rec.ReqHandle.Collection
		}
		doc.Requests = append(doc.Requests, e)
	})
	sort.Slice(doc.Requests, func(i, j int) bool {
		return doc.Requests[i].ReqID < doc.Requests[j].ReqID
	})
	return doc
}

// EncodeJSON marshals doc for the HTTP snapshot endpoint.
func EncodeJSON(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// DecodeJSON parses a previously-encoded snapshot document.
func DecodeJSON(data []byte) (Document, error) {
	var doc Document
	err := json.Unmarshal(data, &doc)
	return doc, err
}

// DumpYAML renders doc in the human-readable form the admin REPL writes
// out for operators.
func DumpYAML(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}
