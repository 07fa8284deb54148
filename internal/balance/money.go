package balance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance below which a balance is considered settled.
// Equal splits and repeated subtraction accumulate floating-point error,
// so every monetary comparison goes through IsZero instead of ==.
const Epsilon = 0.01

// Round rounds a monetary amount to 2 decimal places, half away from zero.
// Round is idempotent: Round(Round(x)) == Round(x).
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// IsZero reports whether an amount is settled within Epsilon.
func IsZero(x float64) bool {
	return math.Abs(x) < Epsilon
}

// CoerceAmount converts an amount that may arrive as a numeric string from
// the persistence layer into a float64. It rejects NaN, infinities and
// anything that does not parse as a number.
func CoerceAmount(v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q is not numeric", val)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("amount has unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount %v is not a finite number", f)
	}
	return f, nil
}
