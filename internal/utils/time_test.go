package utils

import "testing"

func TestNormalizeClock(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"08:30", "08:30", true},
		{"08:30:00", "08:30", true},
		{" 23:59 ", "23:59", true},
		{"25:00", "", false},
		{"noon", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := NormalizeClock(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("NormalizeClock(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("NormalizeClock(%q) expected error", c.in)
		}
	}
}

func TestParseFormatDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-07-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := FormatDate(d); got != "2025-07-01" {
		t.Fatalf("round trip = %q", got)
	}
	if _, err := ParseDate("01/07/2025"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}
