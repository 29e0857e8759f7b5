package normalize

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPriceAmount(t *testing.T) {
	cases := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{nil, 0, false},
		{float64(0), 0, true},
		{float64(1290000), 1290000, true},
		{12.5, 13, true},
		{12.49, 12, true},
		{-300.0, 0, true},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{1e20, 0, false},
		{int64(-5), 0, true},
		{42, 42, true},
		{uint64(math.MaxUint64), 0, false},
		{json.Number("1500"), 1500, true},
		{json.Number("99.6"), 100, true},
		{"₩1,290,000", 1290000, true},
		{"$ 1 234", 1234, true},
		{"1.290.000 KRW", 1290000, true},
		{"-500", 500, true},
		{"٣٤٥", 0, false}, // only ASCII digits count
		{"가격문의", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		{[]byte("12,000"), 12000, true},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := PriceAmount(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("PriceAmount(%#v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
