package normalize

import (
	"strings"

	"github.com/roomstack/sheetsync/internal"
)

// separator joins normalized column values into one comparison key. It is not
// expected to appear in data.
const separator = " | "

// SignatureParts returns the normalized value of each target column for the
// row. Values are resolved by database field name first, falling back to the
// original source field name so that rows read from the database and rows
// produced by a parser compare identically.
func SignatureParts(row internal.Row, columns []internal.Column) []string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		raw, ok := row[col.Name]
		if !ok {
			raw = row[col.OriginalName]
		}
		parts[i] = Value(raw, col.Type)
	}
	return parts
}

// Signature builds the comparison key for a row against the given column set.
// Two rows are data-identical iff their signatures are equal for the same
// columns in the same order.
func Signature(row internal.Row, columns []internal.Column) string {
	return strings.Join(SignatureParts(row, columns), separator)
}
