package smartkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeDecomposeRoundTrip(t *testing.T) {
	cases := []struct {
		attr, key string
	}{
		{"DE", "111"},
		{"US", "abc-def"},
		{"", "k"},
		{"region", ""},
	}
	for _, tc := range cases {
		attr, key, err := Decompose(Compose(tc.attr, tc.key))
		require.NoError(t, err)
		assert.Equal(t, tc.attr, attr)
		assert.Equal(t, tc.key, key)
	}
}

func TestDecomposeSplitsOnFirstColon(t *testing.T) {
	attr, key, err := Decompose("DE:a:US")
	require.NoError(t, err)
	assert.Equal(t, "DE", attr)
	assert.Equal(t, "a:US", key)
}

func TestDecomposeRejectsPlainKey(t *testing.T) {
	_, _, err := Decompose("111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no smart-attribute prefix")
}

func TestSplitRef(t *testing.T) {
	coll, key := SplitRef("person/111", "fallback")
	assert.Equal(t, "person", coll)
	assert.Equal(t, "111", key)

	coll, key = SplitRef("111", "person")
	assert.Equal(t, "person", coll)
	assert.Equal(t, "111", key)
}

func TestQualifyAndEdgeKey(t *testing.T) {
	assert.Equal(t, "person/DE:111", Qualify("person", Compose("DE", "111")))
	assert.Equal(t, "DE:a:US", EdgeKey("DE", "a", "US"))
}
