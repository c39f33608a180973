// Package slug builds URL slugs that keep Hangul and other letters intact.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]+`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Make lowercases the NFKC form of s, drops anything that is not a letter,
// digit, underscore, space or hyphen, and joins the remaining runs with a
// single hyphen.
func Make(s string) string {
	v := norm.NFKC.String(s)
	v = strings.ToLower(v)
	v = disallowed.ReplaceAllString(v, "")
	v = separators.ReplaceAllString(v, "-")
	return strings.Trim(v, "-_")
}

// WithSuffix returns base for n == 0 and base-n otherwise.
func WithSuffix(base string, n int) string {
	if n <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// Exists reports whether a slug is already taken.
type Exists func(candidate string) (bool, error)

// Unique probes base, base-1, base-2, ... until exists reports a free slot.
// Callers still rely on a unique index; the probe only avoids the common
// collision before the insert.
func Unique(base string, exists Exists) (string, error) {
	if base == "" {
		return "", fmt.Errorf("slug base is empty")
	}
	for n := 0; n < 10000; n++ {
		candidate := WithSuffix(base, n)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
