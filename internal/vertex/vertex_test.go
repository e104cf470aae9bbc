package vertex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartifier/internal/config"
	"smartifier/internal/record"
)

func runTransform(t *testing.T, opts config.VertexOptions, input string) []string {
	t.Helper()
	dir := t.TempDir()
	opts.Input = filepath.Join(dir, "in")
	opts.Output = filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(opts.Input, []byte(input), 0o600))

	require.NoError(t, New(opts, nil).Run(context.Background()))

	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func csvOptions() config.VertexOptions {
	return config.VertexOptions{
		Format:         record.FormatCSV,
		CSV:            config.DefaultCSV(),
		SmartAttribute: "smart_id",
	}
}

func TestCSVPrefixesKeyWithSmartAttribute(t *testing.T) {
	lines := runTransform(t, csvOptions(), "_key,smart_id,name\n111,DE,alice\n222,US,bob\n")
	assert.Equal(t, "_key,smart_id,name", lines[0])
	assert.Equal(t, "DE:111,DE,alice", lines[1])
	assert.Equal(t, "US:222,US,bob", lines[2])
}

func TestCSVAlreadySmartKeyKept(t *testing.T) {
	lines := runTransform(t, csvOptions(), "_key,smart_id\nDE:111,DE\n")
	assert.Equal(t, "DE:111,DE", lines[1])
}

func TestCSVWrongPrefixFixed(t *testing.T) {
	lines := runTransform(t, csvOptions(), "_key,smart_id\nUS:111,DE\n")
	assert.Equal(t, "DE:111,DE", lines[1])
}

func TestCSVSmartValueColumnWithIndex(t *testing.T) {
	opts := csvOptions()
	opts.SmartValue = "country"
	opts.SmartIndex = 2
	lines := runTransform(t, opts, "_key,smart_id,country\n111,,DEUTSCHLAND\n")
	assert.Equal(t, "DE:111,DE,DEUTSCHLAND", lines[1])
}

func TestCSVAppendsMissingSmartColumn(t *testing.T) {
	opts := csvOptions()
	opts.SmartValue = "country"
	lines := runTransform(t, opts, "_key,country\n111,DE\n")
	assert.Equal(t, "_key,country,smart_id", lines[0])
	assert.Equal(t, "DE:111,DE,DE", lines[1])
}

func TestCSVShortRowPadded(t *testing.T) {
	lines := runTransform(t, csvOptions(), "_key,smart_id,name\n111,DE\n")
	assert.Equal(t, "DE:111,DE,", lines[1])
}

func jsonlOptions() config.VertexOptions {
	return config.VertexOptions{
		Format:         record.FormatJSONL,
		SmartAttribute: "smart_id",
	}
}

func TestJSONLPrefixesKey(t *testing.T) {
	lines := runTransform(t, jsonlOptions(), `{"_key":"111","smart_id":"DE","name":"alice"}`+"\n")
	require.Len(t, lines, 1)

	key, _, err := record.JSONGet(lines[0], "_key")
	require.NoError(t, err)
	assert.Equal(t, "DE:111", key)
	name, _, err := record.JSONGet(lines[0], "name")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestJSONLSmartDefaultForMissingAttribute(t *testing.T) {
	opts := jsonlOptions()
	opts.SmartDefault = "XX"
	lines := runTransform(t, opts, `{"_key":"111"}`+"\n")

	key, _, err := record.JSONGet(lines[0], "_key")
	require.NoError(t, err)
	assert.Equal(t, "XX:111", key)
	attr, _, err := record.JSONGet(lines[0], "smart_id")
	require.NoError(t, err)
	assert.Equal(t, "XX", attr)
}

func TestJSONLNumberCoercedToString(t *testing.T) {
	lines := runTransform(t, jsonlOptions(), `{"_key":"111","smart_id":42}`+"\n")

	attr, kind, err := record.JSONGet(lines[0], "smart_id")
	require.NoError(t, err)
	assert.Equal(t, record.JSONString, kind)
	assert.Equal(t, "42", attr)
	key, _, err := record.JSONGet(lines[0], "_key")
	require.NoError(t, err)
	assert.Equal(t, "42:111", key)
}

func TestJSONLEmptyAttrLeavesKeyUnprefixed(t *testing.T) {
	lines := runTransform(t, jsonlOptions(), `{"_key":"111"}`+"\n")
	key, _, err := record.JSONGet(lines[0], "_key")
	require.NoError(t, err)
	assert.Equal(t, "111", key)
}

func TestJSONLSmartValueField(t *testing.T) {
	opts := jsonlOptions()
	opts.SmartValue = "country"
	opts.SmartIndex = 2
	lines := runTransform(t, opts, `{"_key":"111","country":"DEUTSCHLAND"}`+"\n")

	attr, _, err := record.JSONGet(lines[0], "smart_id")
	require.NoError(t, err)
	assert.Equal(t, "DE", attr)
	key, _, err := record.JSONGet(lines[0], "_key")
	require.NoError(t, err)
	assert.Equal(t, "DE:111", key)
}

func TestJSONLInvalidLineIsFatal(t *testing.T) {
	dir := t.TempDir()
	opts := jsonlOptions()
	opts.Input = filepath.Join(dir, "in")
	opts.Output = filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(opts.Input, []byte("{broken\n"), 0o600))

	err := New(opts, nil).Run(context.Background())
	require.Error(t, err)

	var lineErr *record.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Line)
}

func TestValidateRejectsSameInputOutput(t *testing.T) {
	opts := csvOptions()
	opts.Input = "same.csv"
	opts.Output = "same.csv"
	err := New(opts, nil).Run(context.Background())
	require.Error(t, err)
}
