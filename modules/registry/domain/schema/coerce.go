package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey is the comparison form of a business key.
func NormalizeKey(v string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(v)))
}

var (
	truthy = map[string]struct{}{"1": {}, "true": {}, "yes": {}, "y": {}, "on": {}}
	falsy  = map[string]struct{}{"0": {}, "false": {}, "no": {}, "n": {}, "off": {}}
)

// Bool parses the boolean vocabulary used by the source files. Empty or
// unrecognized values yield def.
func Bool(v string, def bool) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if _, ok := truthy[v]; ok {
		return true
	}
	if _, ok := falsy[v]; ok {
		return false
	}
	return def
}

// ID parses a surrogate identifier.
func ID(v string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Int parses an optional integer, falling back to def.
func Int(v string, def int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return def
}

// NullableInt parses an optional integer, nil when absent or invalid.
func NullableInt(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// Decimal parses an optional decimal such as a coordinate.
func Decimal(v string) decimal.NullDecimal {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d.Round(6), Valid: true}
}

// String trims v and returns nil when nothing is left.
func String(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// Date parses a calendar date in any of the accepted layouts. Invalid input
// yields nil.
func Date(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			y, m, d := t.Date()
			out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			return &out
		}
	}
	return nil
}
