// Package vertextable builds the (collection, originalKey) -> smartAttribute
// lookup table from smart-rewritten vertex files and plans how many
// memory-bounded passes are needed to hold it.
package vertextable

import "errors"

// ErrMalformedVertexKey reports a vertex record whose key does not decompose
// into "<attribute>:<originalKey>". The whole run aborts: without the full
// key scheme the edge transformation cannot be honoured.
var ErrMalformedVertexKey = errors.New("malformed vertex key")

// entryOverhead approximates the per-entry bookkeeping cost (map buckets,
// string headers) added on top of the raw string bytes.
const entryOverhead = 64

// Table maps collection -> original key -> smart-attribute value. A table
// holds a single partition's entries and is read-only once built; concurrent
// lookups need no locking.
type Table struct {
	byCollection map[string]map[string]string
	entries      int64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byCollection: make(map[string]map[string]string)}
}

// Insert records the smart attribute for a vertex. A duplicate
// (collection, key) pair overwrites the previous value: last seen wins.
func (t *Table) Insert(collection, originalKey, attribute string) {
	coll, ok := t.byCollection[collection]
	if !ok {
		coll = make(map[string]string)
		t.byCollection[collection] = coll
	}
	if _, exists := coll[originalKey]; !exists {
		t.entries++
	}
	coll[originalKey] = attribute
}

// Lookup returns the smart attribute for a vertex, if known.
func (t *Table) Lookup(collection, originalKey string) (string, bool) {
	attr, ok := t.byCollection[collection][originalKey]
	return attr, ok
}

// Len returns the number of entries in the table.
func (t *Table) Len() int64 { return t.entries }
