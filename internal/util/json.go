package util

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// NDJSONDecoder is a decoder that can parse newline delimited JSON files,
// transparently handling gzip compressed input.
type NDJSONDecoder struct {
	dec    *json.Decoder
	f      *os.File
	gz     *gzip.Reader
	closed bool
}

// More returns true if there are more records to decode.
func (d *NDJSONDecoder) More() bool {
	return d.dec.More()
}

// Decode the next record into v.
func (d *NDJSONDecoder) Decode(v any) error {
	return d.dec.Decode(v)
}

// Close the decoder and release any resources.
func (d *NDJSONDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.gz != nil {
		d.gz.Close()
		d.gz = nil
	}
	if d.f != nil {
		err := d.f.Close()
		d.f = nil
		return err
	}
	return nil
}

// NewNDJSONDecoder returns a decoder for the newline delimited JSON file fn.
// Files with a .gz extension are decompressed on the fly.
func NewNDJSONDecoder(fn string) (*NDJSONDecoder, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	var r io.Reader = f
	var gz *gzip.Reader
	if strings.HasSuffix(filepath.Base(fn), ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		r = gz
	}
	return &NDJSONDecoder{dec: json.NewDecoder(r), f: f, gz: gz}, nil
}
