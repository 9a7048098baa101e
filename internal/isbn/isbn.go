// Package isbn validates and canonicalizes ISBN-10 and ISBN-13 identifiers.
package isbn

import (
	"regexp"
	"strings"
)

// likePattern is a permissive ISBN-shaped matcher for free text. It deliberately
// over-matches; Normalize decides what is real.
var likePattern = regexp.MustCompile(`(?i)97[89](?:-?\d){10}|\d{9}[0-9X]|[-0-9X]{10,16}`)

// Normalize validates a raw candidate and returns its canonical 13-digit form.
// Hyphens and spaces are ignored. Invalid candidates return ok=false.
func Normalize(candidate string) (string, bool) {
	s := clean(candidate)
	switch len(s) {
	case 10:
		if !IsValid10(s) {
			return "", false
		}
		return To13(s), true
	case 13:
		if !IsValid13(s) {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

// IsValid10 reports whether s is a hyphen-free ISBN-10 with a correct check character
func IsValid10(s string) bool {
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

// IsValid13 reports whether s is a hyphen-free ISBN-13 (978/979 prefix) with a correct check digit
func IsValid13(s string) bool {
	if len(s) != 13 || !allDigits(s) {
		return false
	}
	if !strings.HasPrefix(s, "978") && !strings.HasPrefix(s, "979") {
		return false
	}
	return check13(s[:12]) == s[12]
}

// To13 expands a valid ISBN-10 into its ISBN-13 equivalent
func To13(isbn10 string) string {
	body := "978" + isbn10[:9]
	return body + string(check13(body))
}

// FindLike returns the ISBN-shaped substrings of token, unvalidated
func FindLike(token string) []string {
	return likePattern.FindAllString(token, -1)
}

func check13(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, s)
	return strings.ToUpper(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
