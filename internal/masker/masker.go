package masker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/roomstack/sheetsync/internal"
	"github.com/roomstack/sheetsync/internal/normalize"
	"github.com/shopmonkeyus/go-common/logger"
)

// Masker obfuscates configured sensitive columns before they are written.
// The rule set is immutable after construction and masking is idempotent: a
// value that already carries a mask marker is returned unchanged.
type Masker struct {
	logger logger.Logger
	rules  map[string]map[string]internal.MaskKind
}

// New returns a Masker over the given per-table column rules.
func New(logger logger.Logger, rules map[string]map[string]internal.MaskKind) *Masker {
	return &Masker{logger: logger.WithPrefix("[masker]"), rules: rules}
}

// Kind returns the mask kind configured for the table column, if any.
func (m *Masker) Kind(tableName, columnName string) (internal.MaskKind, bool) {
	cols, ok := m.rules[tableName]
	if !ok {
		return "", false
	}
	kind, ok := cols[columnName]
	return kind, ok
}

// Mask applies the configured mask for (tableName, columnName) to the value.
// Values for unconfigured columns and empty values are returned untouched.
func (m *Masker) Mask(val any, tableName, columnName string) any {
	if val == nil {
		return val
	}
	kind, ok := m.Kind(tableName, columnName)
	if !ok {
		return val
	}
	strVal := normalize.Stringify(val)
	if strVal == "" {
		return val
	}
	if strings.Contains(strVal, "*") {
		return strVal
	}
	var masked string
	switch kind {
	case internal.MaskName:
		masked = maskName(strVal)
	case internal.MaskPhone:
		masked = maskPhone(strVal)
	case internal.MaskIDCard:
		masked = maskIDCard(strVal)
	case internal.MaskEmail:
		masked = maskEmail(strVal)
	default:
		return val
	}
	if masked != strVal {
		m.logger.Debug("masked %s.%s", tableName, columnName)
	}
	return masked
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func maskName(val string) string {
	trimmed := strings.TrimSpace(val)
	if containsHan(trimmed) {
		return maskHanName(trimmed)
	}
	return maskLatinName(trimmed)
}

func maskHanName(name string) string {
	runes := []rune(name)
	switch n := len(runes); {
	case n <= 1:
		return name
	case n == 2:
		return string(runes[0]) + "*"
	default:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
}

func maskLatinName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		if len(runes) <= 1 {
			continue
		}
		words[i] = string(runes[0]) + strings.Repeat("*", len(runes)-1)
	}
	return strings.Join(words, " ")
}

var allDigits = regexp.MustCompile(`^\d+$`)
var idCard18 = regexp.MustCompile(`^\d{17}[\dXx]$`)

func stripSpaces(val string) string {
	return strings.Join(strings.Fields(val), "")
}

func maskPhone(val string) string {
	s := stripSpaces(val)
	if len(s) == 11 && allDigits.MatchString(s) {
		return s[:3] + "****" + s[7:]
	}
	if len(s) > 4 {
		return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
	}
	return s
}

func maskIDCard(val string) string {
	s := stripSpaces(val)
	if idCard18.MatchString(s) {
		return s[:6] + "********" + s[14:]
	}
	if len(s) == 15 && allDigits.MatchString(s) {
		return s[:6] + "*****" + s[11:]
	}
	if len(s) > 8 {
		return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
	}
	return s
}

func maskEmail(val string) string {
	trimmed := strings.TrimSpace(val)
	at := strings.Index(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		return trimmed
	}
	username := []rune(trimmed[:at])
	domain := trimmed[at+1:]
	switch n := len(username); {
	case n <= 1:
		return "*@" + domain
	case n <= 2:
		return string(username[0]) + "*@" + domain
	default:
		return string(username[:2]) + strings.Repeat("*", n-2) + "@" + domain
	}
}
