package engine

import (
	"strings"

	"smartifier/internal/smartkey"
	"smartifier/internal/vertextable"
)

// resolver resolves endpoint references for one pass. It is shared read-only
// across the workers of that pass.
type resolver struct {
	smartIndex int                // > 0 selects the direct-index shortcut
	table      *vertextable.Table // resident partition; nil on the direct path
	pass       int
	partitions int
}

func (r *resolver) finalPass() bool { return r.pass == r.partitions-1 }

// resolve rewrites one endpoint reference. done reports whether the endpoint
// is now in target form; when done is false the reference is returned
// unchanged and the record must be carried into a later pass.
func (r *resolver) resolve(ref, defaultCollection string) (newRef string, done bool, err error) {
	collection, key := smartkey.SplitRef(ref, defaultCollection)

	if strings.Contains(key, ":") {
		// Already smart: qualify if bare, otherwise leave untouched.
		return smartkey.Qualify(collection, key), true, nil
	}

	if r.smartIndex > 0 {
		attr := key
		if len(key) > r.smartIndex {
			attr = key[:r.smartIndex]
		}
		return smartkey.Qualify(collection, smartkey.Compose(attr, key)), true, nil
	}

	if vertextable.PartitionOf(key, r.partitions) != r.pass {
		return ref, false, nil
	}

	attr, ok := r.table.Lookup(collection, key)
	if !ok {
		return "", false, &UnresolvedReferenceError{Collection: collection, Key: key}
	}
	return smartkey.Qualify(collection, smartkey.Compose(attr, key)), true, nil
}

// attrOfRef extracts the smart-attribute value from a resolved reference
// "<collection>/<attr>:<key>". It returns "" for references not in that form.
func attrOfRef(ref string) string {
	_, key := smartkey.SplitRef(ref, "")
	attr, _, err := smartkey.Decompose(key)
	if err != nil {
		return ""
	}
	return attr
}
