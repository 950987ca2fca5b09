package text

import "strings"

// ProfanityList holds English and Indonesian words matched as substrings of
// normalized input. Surfaces only consult it when CheckProfanity is set,
// which the shipped configuration leaves off.
var ProfanityList = []string{
	// English
	"fuck", "shit", "damn", "bitch", "ass", "bastard", "hell", "crap",
	"piss", "dick", "cock", "pussy", "whore", "slut", "fag", "nigger",
	// Indonesian
	"anjing", "babi", "kontol", "memek", "pepek", "jancok", "bangsat",
	"kampret", "tolol", "goblok", "tai", "asu", "kimak", "bajingan",
}

// IsProfane reports whether the normalized word contains a listed term.
func IsProfane(word string) bool {
	normalized := Normalize(word)
	for _, p := range ProfanityList {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
