package util

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"24,350.75", 24350.75, true},
		{" -120.40 ", -120.40, true},
		{"+1.2", 1.2, true},
		{"0.45%", 0.45, true},
		{"-0.45 %", -0.45, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestRoundAndClamp(t *testing.T) {
	if got := Round2(1.005); got != 1.01 {
		t.Fatalf("Round2(1.005) = %v", got)
	}
	if got := Round1(-0.25); got != -0.3 {
		t.Fatalf("Round1(-0.25) = %v", got)
	}
	if got := Clamp(120, 0, 100); got != 100 {
		t.Fatalf("Clamp high = %v", got)
	}
	if got := Clamp(-3, 0, 100); got != 0 {
		t.Fatalf("Clamp low = %v", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("", 3001) != 3001 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("8080", 0) != 8080 {
		t.Fatalf("ParseIntDefault mismatch")
	}
}
