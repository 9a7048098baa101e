package isbn

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"isbn10", "0141439513", "9780141439518", true},
		{"isbn10 hyphenated", "0-14-143951-3", "9780141439518", true},
		{"isbn10 with X", "080442957X", "9780804429573", true},
		{"isbn10 lowercase x", "080442957x", "9780804429573", true},
		{"isbn13", "9780141439518", "9780141439518", true},
		{"isbn13 hyphenated", "978-0-14-143951-8", "9780141439518", true},
		{"isbn13 with spaces", "978 0 14 143951 8", "9780141439518", true},
		{"bad isbn10 checksum", "0141439514", "", false},
		{"bad isbn13 checksum", "9780141439519", "", false},
		{"isbn13 wrong prefix", "1234567890128", "", false},
		{"X not last", "08044X2957", "", false},
		{"too short", "014143951", "", false},
		{"too long", "97801414395180", "", false},
		{"letters", "abcdefghij", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"0141439513", "080442957X", "978-0-14-143951-8", "9791032305690"}
	for _, in := range inputs {
		first, ok := Normalize(in)
		if !ok {
			t.Fatalf("expected %q to be valid", in)
		}
		second, ok := Normalize(first)
		if !ok || second != first {
			t.Errorf("Normalize not idempotent for %q: %q then %q (ok=%v)", in, first, second, ok)
		}
	}
}

func TestNormalize_ChecksumInvalidAlwaysRejected(t *testing.T) {
	valid := "9780141439518"
	for d := byte('0'); d <= '9'; d++ {
		if d == valid[12] {
			continue
		}
		candidate := valid[:12] + string(d)
		if _, ok := Normalize(candidate); ok {
			t.Errorf("expected %q to be rejected", candidate)
		}
	}
}

func TestTo13(t *testing.T) {
	if got := To13("0306406152"); got != "9780306406157" {
		t.Errorf("expected 9780306406157, got %s", got)
	}
}

func TestFindLike(t *testing.T) {
	tests := []struct {
		token string
		want  []string
	}{
		{"9780141439518", []string{"9780141439518"}},
		{"isbn:0141439513", []string{"0141439513"}},
		{"978-0-14-143951-8", []string{"978-0-14-143951-8"}},
		{"hello", nil},
		{"12345", nil},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := FindLike(tt.token)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindLike(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
