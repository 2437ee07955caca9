package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/normalize"
)

var integerPattern = regexp.MustCompile(`^-?\d+$`)

var booleanTokens = map[string]bool{
	"true": true, "false": true, "1": true, "0": true, "t": true, "f": true,
}

// Value type-checks a raw value against a target column type and returns a
// descriptive error when the value cannot be stored in a column of that type.
// Null and empty values always pass, nullability is not enforced here.
func Value(val any, sqlType string) error {
	if val == nil {
		return nil
	}
	if t, ok := val.(time.Time); ok {
		if t.IsZero() {
			return errors.New("invalid date value")
		}
		return nil
	}
	strVal := strings.TrimSpace(normalize.Stringify(val))
	if strVal == "" {
		return nil
	}
	if internal.IsIntegerType(sqlType) {
		if !integerPattern.MatchString(strVal) {
			return errors.Newf("%q is not a valid integer", strVal)
		}
		return nil
	}
	if internal.IsNumericType(sqlType) {
		if _, err := strconv.ParseFloat(strVal, 64); err != nil {
			return errors.Newf("%q is not a valid number", strVal)
		}
		return nil
	}
	if internal.IsBooleanType(sqlType) {
		if !booleanTokens[strings.ToLower(strVal)] {
			return errors.Newf("%q is not a valid boolean", strVal)
		}
		return nil
	}
	if internal.IsTemporalType(sqlType) {
		if _, ok := parseStrict(strVal); !ok {
			return errors.Newf("%q is not a valid date", strVal)
		}
		return nil
	}
	return nil
}

var strictLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006.01.02",
}

func parseStrict(s string) (time.Time, bool) {
	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Recover attempts a best-effort repair of a value that failed validation.
// It never fails: when no repair applies the value is returned unchanged and
// the caller re-validates to decide whether the failure is fatal.
func Recover(val any, sqlType string) any {
	if val == nil {
		return nil
	}
	strVal := strings.TrimSpace(normalize.Stringify(val))
	if strVal == "" {
		return nil
	}
	switch {
	case internal.IsTemporalType(sqlType):
		return recoverDate(strVal, sqlType)
	case internal.IsNumericType(sqlType):
		return recoverNumber(strVal)
	case internal.IsBooleanType(sqlType):
		return recoverBoolean(strVal)
	}
	return val
}

func recoverDate(strVal, sqlType string) any {
	t, ok := normalize.ParseLooseDate(strVal)
	if !ok {
		return strVal
	}
	if internal.IsDateOnlyType(sqlType) {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

func recoverNumber(strVal string) string {
	s := strings.ReplaceAll(strVal, ",", "")
	if strings.HasPrefix(s, "¥") || strings.HasPrefix(s, "$") {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "¥"), "$")
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	return s
}

func recoverBoolean(strVal string) string {
	switch strings.ToLower(strVal) {
	case "yes", "y", "on", "ok", "1":
		return "true"
	case "no", "n", "off", "0":
		return "false"
	}
	return strVal
}
