// Package slug builds URL slugs for directory content.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make turns a title into a lowercase, hyphen-separated slug.
// Diacritics are removed; runs of anything that is not a letter or digit
// collapse to a single hyphen.
//
//	Make("Zoë  Smith-Jones!") == "zoe-smith-jones"
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingDash := false
	for _, r := range plain {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// WithSuffix appends a numeric disambiguator, used when a slug is taken.
// n <= 1 returns s unchanged.
func WithSuffix(s string, n int) string {
	if n <= 1 {
		return s
	}
	return s + "-" + strconv.Itoa(n)
}
