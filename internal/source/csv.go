package source

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/roomstack/sheetsync/internal"
)

func init() {
	RegisterParser(&csvParser{})
}

// csvParser parses comma separated exports. Report exports often carry title
// and footer lines around the real grid, so the header row is detected by
// scoring instead of assumed to be first, and low-density lines (footers,
// page breaks, summary rows) are dropped.
type csvParser struct{}

func (p *csvParser) Extensions() []string {
	return []string{"csv"}
}

func (p *csvParser) Parse(fn string) ([]internal.Row, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(fn), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	headerIndex := findHeaderRow(records)
	headers := make([]string, len(records[headerIndex]))
	for i, cell := range records[headerIndex] {
		headers[i] = strings.TrimSpace(cell)
	}

	var rows []internal.Row
	for _, record := range records[headerIndex+1:] {
		row := make(internal.Row, len(headers))
		var filled int
		for i, header := range headers {
			if header == "" || i >= len(record) {
				continue
			}
			val := strings.TrimSpace(record[i])
			row[header] = val
			if val != "" {
				filled++
			}
		}
		if validRow(filled, len(headers)) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

var headerKeywords = []string{"房号", "Room", "姓名", "Name", "金额", "Amount", "日期", "Date", "单号", "No.", "Summary"}

// findHeaderRow scores the first 20 lines by filled cell count plus keyword
// hits and picks the best. A score below 2 means nothing header-like was
// found and the first line wins.
func findHeaderRow(records [][]string) int {
	best, bestScore := 0, -1
	limit := len(records)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		var score int
		for _, cell := range records[i] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			score++
			for _, keyword := range headerKeywords {
				if strings.Contains(cell, keyword) {
					score += 5
					break
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if bestScore < 2 {
		return 0
	}
	return best
}

// validRow requires at least two filled cells and at least half the header
// width, which filters footers and page totals.
func validRow(filled, width int) bool {
	if filled < 2 {
		return false
	}
	return float64(filled) >= float64(width)*0.5
}
