package util

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNDJSONDecoder(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "rows.ndjson")
	assert.NoError(t, os.WriteFile(fn, []byte(`{"a":1}
{"a":2}
{"a":3}
`), 0600))
	dec, err := NewNDJSONDecoder(fn)
	assert.NoError(t, err)
	defer dec.Close()
	var count int
	for dec.More() {
		var row map[string]any
		assert.NoError(t, dec.Decode(&row))
		count++
		assert.Equal(t, float64(count), row["a"])
	}
	assert.Equal(t, 3, count)
	assert.NoError(t, dec.Close())
}

func TestNDJSONDecoderGzip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "rows.ndjson.gz")
	f, err := os.Create(fn)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(`{"name":"x"}
{"name":"y"}
`))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())

	dec, err := NewNDJSONDecoder(fn)
	assert.NoError(t, err)
	defer dec.Close()
	var names []string
	for dec.More() {
		var row map[string]any
		assert.NoError(t, dec.Decode(&row))
		names = append(names, row["name"].(string))
	}
	assert.Equal(t, []string{"x", "y"}, names)
}
