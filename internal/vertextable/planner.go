package vertextable

import "hash/fnv"

// Plan returns the number of partitions (passes) needed to hold a table of
// totalBytes within budgetBytes: ceil(total/budget), at least 1.
func Plan(totalBytes, budgetBytes int64) int {
	if budgetBytes <= 0 || totalBytes <= budgetBytes {
		return 1
	}
	return int((totalBytes + budgetBytes - 1) / budgetBytes)
}

// PartitionOf assigns an original key to one of partitions buckets. The
// assignment is deterministic for the lifetime of a run, so every key is
// visited by exactly one pass.
func PartitionOf(originalKey string, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(originalKey))
	return int(h.Sum64() % uint64(partitions))
}
