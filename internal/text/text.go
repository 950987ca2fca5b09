// Package text normalizes participant submissions and derives the cluster
// keys used to group near-duplicate words.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// spaceClass is the browser definition of whitespace: ASCII whitespace
// including \v, every Unicode space separator and the BOM. RE2's \s alone
// is ASCII only.
const spaceClass = `\s\v\p{Z}\x{FEFF}`

var (
	nonWordRe    = regexp.MustCompile(`[^\w` + spaceClass + `]`)
	whitespaceRe = regexp.MustCompile(`[` + spaceClass + `]+`)
)

// IsSpace reports whether r is whitespace under spaceClass.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Z, r)
}

// TrimSpace removes leading and trailing IsSpace runes.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, IsSpace)
}

// Normalize lowercases s, strips everything except word characters and
// whitespace, and collapses whitespace runs to a single space.
func Normalize(s string) string {
	s = TrimSpace(strings.ToLower(s))
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return TrimSpace(s)
}

// ClusterKey normalizes s and applies a fixed chain of suffix rules:
// "ies" -> "y", then a trailing "s", "ed" and "ing" are each removed at
// most once, in that order. It is a heuristic, not a stemmer: "boss"
// becomes "bos" and irregular forms are left alone.
func ClusterKey(s string) string {
	key := Normalize(s)
	if strings.HasSuffix(key, "ies") {
		key = key[:len(key)-len("ies")] + "y"
	}
	key = strings.TrimSuffix(key, "s")
	key = strings.TrimSuffix(key, "ed")
	key = strings.TrimSuffix(key, "ing")
	return key
}
