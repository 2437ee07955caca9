package internal

import "strings"

// SQL type classification by substring match on the declared type, the same
// loose contract the mapping editor uses: "DECIMAL(18,2)", "INTEGER",
// "TIMESTAMP", "BOOLEAN" and friends.

// IsIntegerType reports whether the declared type is a whole number column.
func IsIntegerType(sqlType string) bool {
	t := strings.ToUpper(sqlType)
	return strings.Contains(t, "INT") || strings.Contains(t, "SERIAL")
}

// IsNumericType reports whether the declared type is any numeric column.
func IsNumericType(sqlType string) bool {
	t := strings.ToUpper(sqlType)
	return strings.Contains(t, "INT") || strings.Contains(t, "DECIMAL") ||
		strings.Contains(t, "NUMERIC") || strings.Contains(t, "FLOAT") ||
		strings.Contains(t, "DOUBLE") || strings.Contains(t, "REAL")
}

// IsTemporalType reports whether the declared type is a date or time column.
func IsTemporalType(sqlType string) bool {
	t := strings.ToUpper(sqlType)
	return strings.Contains(t, "DATE") || strings.Contains(t, "TIME")
}

// IsDateOnlyType reports whether the declared type carries no time-of-day
// component. TIMESTAMP and DATETIME both contain "TIME" and are excluded.
func IsDateOnlyType(sqlType string) bool {
	t := strings.ToUpper(sqlType)
	return strings.Contains(t, "DATE") && !strings.Contains(t, "TIME")
}

// IsBooleanType reports whether the declared type is a boolean column.
func IsBooleanType(sqlType string) bool {
	return strings.Contains(strings.ToUpper(sqlType), "BOOL")
}
