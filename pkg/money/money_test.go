package money

import "testing"

func TestFormatMinorUnits(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{1, "$0.01"},
		{100, "$1.00"},
		{999, "$9.99"},
		{2500, "$25.00"},
		{10000, "$100.00"},
		{123456, "$1234.56"},
		{0, "$0.00"},
	}

	for _, tc := range cases {
		got := FormatMinorUnits(tc.minor)
		if got != tc.want {
			t.Errorf("FormatMinorUnits(%d) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{1, 100},
		{25, 2500},
		{0.01, 1},
		{9.99, 999},
		{2.5, 250},
	}

	for _, tc := range cases {
		got := ToMinorUnits(tc.amount)
		if got != tc.want {
			t.Errorf("ToMinorUnits(%v) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}
