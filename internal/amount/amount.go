// Package amount parses loosely formatted monetary input and holds the
// rounding rules shared by the ledger.
package amount

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Tolerance is the largest absolute difference still treated as balanced.
var Tolerance = decimal.NewFromInt(1)

var currencyPrefixes = []string{"rp", "idr"}

// Parse converts raw input into an amount. It never fails: anything that
// cannot be read as a number becomes zero.
func Parse(raw any) decimal.Decimal {
	v, _ := TryParse(raw)
	return v
}

// TryParse behaves like Parse and additionally reports false when non-blank
// input had to fall back to zero.
func TryParse(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, true
		}
		return *v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		return parseString(v)
	case []byte:
		return parseString(string(v))
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// parseString reads the Indonesian convention: "." groups thousands and ","
// marks decimals, optionally prefixed by a currency code.
func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	lower := strings.ToLower(s)
	for _, prefix := range currencyPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	switch cleaned {
	case "-":
		return decimal.Zero, true
	case "", ".":
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// WithinTolerance reports whether a and b differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Round rounds to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Positive reports whether d > 0.
func Positive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// NonNegative reports whether d >= 0.
func NonNegative(d decimal.Decimal) bool {
	return d.Sign() >= 0
}
