package types

import (
	"strings"
	"unicode"
)

// NormalizePhone formats a Korean phone number with hyphens (010-1234-5678,
// 02-123-4567). Inputs that do not look like a Korean number are returned as
// bare digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	d := b.String()
	seoul := strings.HasPrefix(d, "02")
	switch {
	case seoul && len(d) == 9:
		return d[:2] + "-" + d[2:5] + "-" + d[5:]
	case seoul && len(d) == 10:
		return d[:2] + "-" + d[2:6] + "-" + d[6:]
	case len(d) == 10:
		return d[:3] + "-" + d[3:6] + "-" + d[6:]
	case len(d) == 11:
		return d[:3] + "-" + d[3:7] + "-" + d[7:]
	}
	return d
}

// PhoneDigits strips everything but digits, the form SMS gateways expect.
func PhoneDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}
