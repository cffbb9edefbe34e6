package schema

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Bound is the storage limit of the column a field is written to. The zero
// value accepts anything.
type Bound struct {
	// MaxChars is the varchar width, counted in characters.
	MaxChars int
	// Numeric bounds apply to values that parse as numbers after rounding to
	// Places fractional digits. Unparseable values fall back to defaults and
	// are accepted.
	Numeric  bool
	Places   int32
	Min, Max int64
}

func text(n int) Bound { return Bound{MaxChars: n} }

var (
	integerBound   = Bound{Numeric: true, Min: math.MinInt32, Max: math.MaxInt32}
	latitudeBound  = Bound{Numeric: true, Places: 6, Min: -90, Max: 90}
	longitudeBound = Bound{Numeric: true, Places: 6, Min: -180, Max: 180}
)

// Accepts reports whether v fits the column. Empty values always fit.
func (b Bound) Accepts(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	if b.MaxChars > 0 && utf8.RuneCountInString(v) > b.MaxChars {
		return false
	}
	if !b.Numeric {
		return true
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return true
	}
	if b.Places == 0 {
		d = d.Truncate(0)
	} else {
		d = d.Round(b.Places)
	}
	return d.GreaterThanOrEqual(decimal.NewFromInt(b.Min)) && d.LessThanOrEqual(decimal.NewFromInt(b.Max))
}

// OutOfBounds lists the fields whose value in get does not fit their column.
func (d Definition) OutOfBounds(get func(field string) string) []string {
	var out []string
	for _, f := range d.Fields {
		if f.Bound != (Bound{}) && !f.Bound.Accepts(get(f.Name)) {
			out = append(out, f.Name)
		}
	}
	return out
}
