package vertextable

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartifier/internal/config"
	"smartifier/internal/record"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuilderSizeAndMaterializeCSV(t *testing.T) {
	path := writeFile(t, "person.csv", "_key,name\nDE:111,alice\nUS:222,bob\nUS:333,carol\n")
	b := NewBuilder(
		[]config.VertexFile{{Collection: "person", Path: path}},
		record.FormatCSV, config.DefaultCSV(),
	)

	stats, err := b.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Entries)
	assert.Greater(t, stats.EstimatedBytes, int64(3*entryOverhead))

	table, err := b.Materialize(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), table.Len())

	attr, ok := table.Lookup("person", "222")
	require.True(t, ok)
	assert.Equal(t, "US", attr)

	_, ok = table.Lookup("person", "999")
	assert.False(t, ok)
	_, ok = table.Lookup("company", "111")
	assert.False(t, ok)
}

func TestBuilderMaterializePartitionsAreDisjointAndComplete(t *testing.T) {
	content := "_key,name\n"
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, k := range keys {
		content += "X:" + k + ",v\n"
	}
	path := writeFile(t, "v.csv", content)
	b := NewBuilder(
		[]config.VertexFile{{Collection: "v", Path: path}},
		record.FormatCSV, config.DefaultCSV(),
	)

	const partitions = 3
	var total int64
	for p := 0; p < partitions; p++ {
		table, err := b.Materialize(context.Background(), p, partitions)
		require.NoError(t, err)
		total += table.Len()
		for _, k := range keys {
			_, ok := table.Lookup("v", k)
			assert.Equal(t, PartitionOf(k, partitions) == p, ok, "key %q partition %d", k, p)
		}
	}
	assert.Equal(t, int64(len(keys)), total)
}

func TestBuilderJSONL(t *testing.T) {
	path := writeFile(t, "person.jsonl",
		`{"_key":"DE:111","name":"alice"}`+"\n"+`{"_key":"US:222","name":"bob"}`+"\n")
	b := NewBuilder(
		[]config.VertexFile{{Collection: "person", Path: path}},
		record.FormatJSONL, config.CSVOptions{},
	)

	table, err := b.Materialize(context.Background(), 0, 1)
	require.NoError(t, err)
	attr, ok := table.Lookup("person", "111")
	require.True(t, ok)
	assert.Equal(t, "DE", attr)
}

func TestBuilderDuplicateKeyLastSeenWins(t *testing.T) {
	path := writeFile(t, "v.csv", "_key,name\nDE:111,old\nUS:111,new\n")
	b := NewBuilder(
		[]config.VertexFile{{Collection: "v", Path: path}},
		record.FormatCSV, config.DefaultCSV(),
	)

	table, err := b.Materialize(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), table.Len())
	attr, _ := table.Lookup("v", "111")
	assert.Equal(t, "US", attr)
}

func TestBuilderMalformedVertexKeyIsFatal(t *testing.T) {
	path := writeFile(t, "v.csv", "_key,name\nDE:111,ok\n222,missing-prefix\n")
	b := NewBuilder(
		[]config.VertexFile{{Collection: "v", Path: path}},
		record.FormatCSV, config.DefaultCSV(),
	)

	_, err := b.Size(context.Background())
	require.ErrorIs(t, err, ErrMalformedVertexKey)

	var lineErr *record.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 3, lineErr.Line)
	assert.Equal(t, path, lineErr.File)
}

func TestBuilderMissingKeyColumn(t *testing.T) {
	path := writeFile(t, "v.csv", "id,name\n1,alice\n")
	b := NewBuilder(
		[]config.VertexFile{{Collection: "v", Path: path}},
		record.FormatCSV, config.DefaultCSV(),
	)
	_, err := b.Size(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "_key")
}
