package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roomstack/sheetsync/internal"
)

// Stringify renders a raw cell value as a string. Byte slices (as returned by
// some database drivers) are converted directly and nil becomes the empty
// string.
func Stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
}

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseLooseDate parses a date or date-time string, recovering from truncated
// time parts (eg "24/10/31 05:") and non-standard separators with 2-digit
// years. Years below 50 expand to the 2000s, 50 and above to the 1900s.
func ParseLooseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseLayouts(s, dateTimeLayouts); ok {
		return t, true
	}
	if t, ok := parseLayouts(s, dateLayouts); ok {
		return t, true
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		head := s[:i]
		if strings.ContainsAny(head, "/-.") {
			if t, ok := parseLayouts(head, dateLayouts); ok {
				return t, true
			}
			if t, ok := decomposeDate(head); ok {
				return t, true
			}
		}
	}
	if strings.ContainsAny(s, "/.") {
		return decomposeDate(s)
	}
	return time.Time{}, false
}

func decomposeDate(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) != 3 {
		return time.Time{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 100 {
		if y < 50 {
			y += 2000
		} else {
			y += 1900
		}
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), true
}

func normalizeTemporal(val any, sqlType string) string {
	if t, ok := val.(time.Time); ok {
		return formatTemporal(t, sqlType)
	}
	s := strings.TrimSpace(Stringify(val))
	if s == "" {
		return ""
	}
	if t, ok := ParseLooseDate(s); ok {
		return formatTemporal(t, sqlType)
	}
	return s
}

func formatTemporal(t time.Time, sqlType string) string {
	if internal.IsDateOnlyType(sqlType) {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

func normalizeNumeric(val any) string {
	raw := Stringify(val)
	clean := strings.ReplaceAll(raw, ",", "")
	num, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strconv.FormatFloat(num, 'f', -1, 64)
}

func normalizeBoolean(val any) string {
	s := strings.ToLower(strings.TrimSpace(Stringify(val)))
	switch s {
	case "true", "t", "1", "yes", "y":
		return "true"
	case "false", "f", "0", "no", "n":
		return "false"
	}
	return strings.TrimSpace(Stringify(val))
}

// Value maps a raw cell value and its target column type to a canonical
// comparable string. It is total: any input produces a string, falling back
// to the trimmed raw value when parsing fails.
func Value(val any, sqlType string) string {
	if val == nil {
		return ""
	}
	switch {
	case internal.IsNumericType(sqlType):
		return normalizeNumeric(val)
	case internal.IsTemporalType(sqlType):
		return normalizeTemporal(val, sqlType)
	case internal.IsBooleanType(sqlType):
		return normalizeBoolean(val)
	}
	return strings.TrimSpace(Stringify(val))
}
