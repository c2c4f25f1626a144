package util

import "testing"

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("1.5", 0); got != 1.5 {
		t.Fatalf("unexpected value %v", got)
	}
	if got := ParseFloatDefault("", 0); got != 0 {
		t.Fatalf("expected default for empty, got %v", got)
	}
	if got := ParseFloatDefault("abc", 0); got != 0 {
		t.Fatalf("expected default for garbage, got %v", got)
	}
	if got := ParseFloatDefault("NaN", 7); got != 7 {
		t.Fatalf("expected default for NaN, got %v", got)
	}
}

func TestRound4(t *testing.T) {
	if got := Round4(3.000049); got != 3.0 {
		t.Fatalf("unexpected rounding %v", got)
	}
	if got := Round4(1.35135); got != 1.3514 {
		t.Fatalf("unexpected rounding %v", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("12", 0); got != 12 {
		t.Fatalf("unexpected value %v", got)
	}
	if got := ParseIntDefault("x", 3); got != 3 {
		t.Fatalf("expected default, got %v", got)
	}
}
