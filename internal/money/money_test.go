package money

import "testing"

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"1", 100000000},
		{"0.5", 50000000},
		{"10.25", 1025000000},
		{"0.00000001", 1},
		{".5", 50000000},
		{"-2.5", -250000000},
		{"+3", 300000000},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != nil {
			t.Fatalf("ParseMinor(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMinor(%q): got %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestParseMinorRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "1,5", "1e8"} {
		if _, err := ParseMinor(input); err != ErrInvalidAmount {
			t.Fatalf("ParseMinor(%q): expected ErrInvalidAmount, got %v", input, err)
		}
	}
	if _, err := ParseMinor("0.123456789"); err != ErrTooManyDecimals {
		t.Fatalf("expected ErrTooManyDecimals, got %v", err)
	}
}

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		input int64
		want  string
	}{
		{100000000, "1"},
		{50000000, "0.5"},
		{1025000000, "10.25"},
		{1, "0.00000001"},
		{-250000000, "-2.5"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := FormatMinor(tc.input); got != tc.want {
			t.Fatalf("FormatMinor(%d): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, value := range []int64{0, 1, 99, 100000000, 123456789012} {
		parsed, err := ParseMinor(FormatMinor(value))
		if err != nil {
			t.Fatalf("round trip %d: %v", value, err)
		}
		if parsed != value {
			t.Fatalf("round trip %d: got %d", value, parsed)
		}
	}
}
