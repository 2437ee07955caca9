package source

import (
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/util"
)

func init() {
	RegisterParser(&ndjsonParser{})
}

// ndjsonParser parses newline delimited JSON exports, one object per line
// keyed by original column name. Gzip compressed files are handled
// transparently.
type ndjsonParser struct{}

func (p *ndjsonParser) Extensions() []string {
	return []string{"ndjson", "json"}
}

func (p *ndjsonParser) Parse(fn string) ([]internal.Row, error) {
	dec, err := util.NewNDJSONDecoder(fn)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	var rows []internal.Row
	for dec.More() {
		var row internal.Row
		if err := dec.Decode(&row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
