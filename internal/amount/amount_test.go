package amount

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/bukubesar/testing"
)

func TestParseStrings(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Rp 1.500.000", "1500000", true},
		{"rp1.500.000,50", "1500000.5", true},
		{"IDR 2.000", "2000", true},
		{"1.500.000,75", "1500000.75", true},
		{"-25.000", "-25000", true},
		{"  42  ", "42", true},
		{"", "0", true},
		{"-", "0", true},
		{".", "0", false},
		{"abc", "0", false},
		{"1-2", "0", false},
	}
	for _, tc := range cases {
		got, ok := TryParse(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.True(t, decimal.RequireFromString(tc.want).Equal(got), "%q parsed as %s", tc.in, got)
	}
}

func TestParseNative(t *testing.T) {
	require.True(t, Parse(1500).Equal(decimal.NewFromInt(1500)))
	require.True(t, Parse(int64(-7)).Equal(decimal.NewFromInt(-7)))
	require.True(t, Parse(12.5).Equal(decimal.RequireFromString("12.5")))
	require.True(t, Parse(json.Number("1000.25")).Equal(decimal.RequireFromString("1000.25")))
	require.True(t, Parse(nil).IsZero())
	require.True(t, Parse(uint16(9)).Equal(decimal.NewFromInt(9)))

	got, ok := TryParse(struct{}{})
	require.False(t, ok)
	require.True(t, got.IsZero())
}

func TestWithinTolerance(t *testing.T) {
	require.True(t, WithinTolerance(decimal.NewFromInt(100), decimal.NewFromInt(101)))
	require.True(t, WithinTolerance(decimal.RequireFromString("100.4"), decimal.NewFromInt(100)))
	require.False(t, WithinTolerance(decimal.NewFromInt(100), decimal.RequireFromString("101.01")))
}

func TestRound(t *testing.T) {
	require.Equal(t, "2.35", Round(decimal.RequireFromString("2.345")).String())
	require.Equal(t, "-2.35", Round(decimal.RequireFromString("-2.345")).String())
}
