package engine

import (
	"errors"
	"fmt"
)

// ErrUnresolvedAfterFinalPass signals that an edge record was still
// unresolved after the last partition pass. Every key hashes to exactly one
// partition and every partition is visited once, so this is an internal
// planner bug, never a data error.
var ErrUnresolvedAfterFinalPass = errors.New("edge records left unresolved after final pass")

// UnresolvedReferenceError reports an edge endpoint whose key has no entry in
// its collection's vertex table. Fatal: passing the reference through
// unchanged would silently break the smart-sharding guarantee.
type UnresolvedReferenceError struct {
	Collection string
	Key        string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("no vertex entry for %s/%s", e.Collection, e.Key)
}
