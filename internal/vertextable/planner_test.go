package vertextable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan(t *testing.T) {
	cases := []struct {
		total, budget int64
		want          int
	}{
		{0, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{1000, 100, 10},
		{1001, 100, 11},
		{50, 1 << 30, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Plan(tc.total, tc.budget), "total=%d budget=%d", tc.total, tc.budget)
	}
}

func TestPlanBoundsResidentPartition(t *testing.T) {
	// By construction, total/Plan(total,budget) never exceeds budget.
	for _, total := range []int64{1, 99, 100, 101, 12345, 1 << 40} {
		for _, budget := range []int64{1, 64, 100, 1 << 20} {
			p := int64(Plan(total, budget))
			perPartition := (total + p - 1) / p
			assert.LessOrEqual(t, perPartition, budget, "total=%d budget=%d", total, budget)
		}
	}
}

func TestPartitionOfCoverageAndDeterminism(t *testing.T) {
	for _, partitions := range []int{1, 2, 3, 7, 64} {
		seen := make(map[int]bool)
		for i := 0; i < 1000; i++ {
			key := fmt.Sprintf("key-%d", i)
			p := PartitionOf(key, partitions)
			assert.GreaterOrEqual(t, p, 0)
			assert.Less(t, p, partitions)
			assert.Equal(t, p, PartitionOf(key, partitions), "repeated call for %q", key)
			seen[p] = true
		}
		if partitions > 1 {
			// fnv spreads 1000 keys over every small bucket count
			assert.Greater(t, len(seen), 1, "partitions=%d", partitions)
		}
	}
}
