package normalize

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// maxFloatPrice keeps float conversion well inside int64.
const maxFloatPrice = 9e18

// PriceAmount coerces a stored price into the smallest currency unit.
// Numbers are rounded and clamped at zero. Strings keep only the ASCII digits 0-9,
// so currency symbols, separators and whitespace never matter and no locale is consulted.
// ok is false when the price could not be determined; the amount is then 0.
func PriceAmount(v any) (amount int64, ok bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	case int:
		return clamp(int64(t)), true
	case int32:
		return clamp(int64(t)), true
	case int64:
		return clamp(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return clamp(n), true
		}
		if f, err := t.Float64(); err == nil {
			return fromFloat(f)
		}
		return digitsOnly(t.String())
	case string:
		return digitsOnly(t)
	case []byte:
		return digitsOnly(string(t))
	}
	return 0, false
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= maxFloatPrice {
		return 0, false
	}
	if f <= 0 {
		return 0, true
	}
	return decimal.NewFromFloat(f).Round(0).IntPart(), true
}

func digitsOnly(s string) (int64, bool) {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			buf = append(buf, c)
		}
	}
	if len(buf) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
