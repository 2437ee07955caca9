package normalize

import (
	"testing"
	"time"

	"github.com/roomstack/sheetsync/internal"
	"github.com/stretchr/testify/assert"
)

func TestValueNumeric(t *testing.T) {
	assert.Equal(t, "100", Value("100.00", "DECIMAL(10,2)"))
	assert.Equal(t, "100", Value(float64(100), "DECIMAL(10,2)"))
	assert.Equal(t, "1234.5", Value("1,234.50", "NUMERIC"))
	assert.Equal(t, "42", Value("42", "INT"))
	assert.Equal(t, "-3.14", Value("-3.14", "FLOAT"))
	assert.Equal(t, "abc", Value(" abc ", "INT"))
	assert.Equal(t, "", Value(nil, "INT"))
}

func TestValueTemporal(t *testing.T) {
	assert.Equal(t, "2024-10-31", Value("2024-10-31", "DATE"))
	assert.Equal(t, "2024-10-31", Value("24/10/31 05:", "DATE"))
	assert.Equal(t, "2024-10-31 00:00:00", Value("24/10/31 05:", "TIMESTAMP"))
	assert.Equal(t, "2024-10-31 12:30:05", Value("2024-10-31 12:30:05", "TIMESTAMP"))
	assert.Equal(t, "2024-10-31", Value("2024-10-31 12:30:05", "DATE"))
	assert.Equal(t, "1995-01-02", Value("95/1/2", "DATE"))
	assert.Equal(t, "2024-10-31", Value("2024.10.31", "DATE"))
	ts := time.Date(2024, 10, 31, 5, 6, 7, 0, time.Local)
	assert.Equal(t, "2024-10-31", Value(ts, "DATE"))
	assert.Equal(t, "2024-10-31 05:06:07", Value(ts, "DATETIME"))
	assert.Equal(t, "not a date", Value(" not a date ", "DATE"))
}

func TestValueBoolean(t *testing.T) {
	assert.Equal(t, "true", Value("YES", "BOOLEAN"))
	assert.Equal(t, "true", Value("1", "BOOL"))
	assert.Equal(t, "true", Value(true, "BOOLEAN"))
	assert.Equal(t, "false", Value("n", "BOOLEAN"))
	assert.Equal(t, "maybe", Value("maybe", "BOOLEAN"))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "hello", Value("  hello  ", "VARCHAR(50)"))
	assert.Equal(t, "", Value("", "VARCHAR(50)"))
	assert.Equal(t, "", Value(nil, "VARCHAR(50)"))
}

func TestValueIdempotent(t *testing.T) {
	cases := []struct {
		val any
		typ string
	}{
		{"100.00", "DECIMAL"},
		{"24/10/31 05:", "DATE"},
		{"24/10/31 05:", "TIMESTAMP"},
		{"YES", "BOOLEAN"},
		{"  hello  ", "VARCHAR(50)"},
		{nil, "INT"},
	}
	for _, c := range cases {
		once := Value(c.val, c.typ)
		assert.Equal(t, once, Value(once, c.typ), "not idempotent for %v (%s)", c.val, c.typ)
	}
}

func TestParseLooseDateTwoDigitYears(t *testing.T) {
	d, ok := ParseLooseDate("49/6/1")
	assert.True(t, ok)
	assert.Equal(t, 2049, d.Year())
	d, ok = ParseLooseDate("50/6/1")
	assert.True(t, ok)
	assert.Equal(t, 1950, d.Year())
}

func TestSignature(t *testing.T) {
	cols := []internal.Column{
		{Name: "name", Type: "VARCHAR(50)", OriginalName: "姓名"},
		{Name: "amount", Type: "DECIMAL(10,2)", OriginalName: "金额"},
		{Name: "date", Type: "DATE", OriginalName: "日期"},
	}
	fromDB := internal.Row{"name": "张三", "amount": "100.00", "date": "2024-10-31"}
	fromSheet := internal.Row{"姓名": " 张三 ", "金额": float64(100), "日期": "24/10/31"}
	assert.Equal(t, Signature(fromDB, cols), Signature(fromSheet, cols))
	assert.Equal(t, "张三 | 100 | 2024-10-31", Signature(fromDB, cols))

	differs := internal.Row{"姓名": "李四", "金额": float64(100), "日期": "24/10/31"}
	assert.NotEqual(t, Signature(fromDB, cols), Signature(differs, cols))

	assert.Equal(t, []string{"张三", "100", "2024-10-31"}, SignatureParts(fromDB, cols))
}
