// Package smartkey implements the smart-graph key scheme: a rewritten key is
// "<attribute>:<originalKey>" and a rewritten reference is
// "<collection>/<attribute>:<originalKey>".
package smartkey

import (
	"fmt"
	"strings"
)

// Decompose splits a smart key on its first colon into the smart-attribute
// value and the original key. It fails when the key carries no colon, i.e.
// the input was not smart-rewritten.
func Decompose(key string) (attr, original string, err error) {
	attr, original, ok := strings.Cut(key, ":")
	if !ok {
		return "", "", fmt.Errorf("key %q has no smart-attribute prefix", key)
	}
	return attr, original, nil
}

// Compose is the inverse of Decompose for colon-free inputs.
func Compose(attr, original string) string {
	return attr + ":" + original
}

// Qualify prepends the collection name to a key, forming a reference.
func Qualify(collection, key string) string {
	return collection + "/" + key
}

// SplitRef splits a reference into collection and key on the first slash.
// A bare reference (no slash) belongs to the default collection.
func SplitRef(ref, defaultCollection string) (collection, key string) {
	collection, key, ok := strings.Cut(ref, "/")
	if !ok {
		return defaultCollection, ref
	}
	return collection, key
}

// EdgeKey builds the rewritten edge key "<fromAttr>:<key>:<toAttr>", so that
// the edge collection itself shards by attribute prefix.
func EdgeKey(fromAttr, key, toAttr string) string {
	return fromAttr + ":" + key + ":" + toAttr
}
