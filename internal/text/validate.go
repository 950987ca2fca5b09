package text

import (
	"errors"
	"fmt"
	"unicode/utf16"
)

// ErrInvalidInput is matched by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError carries a human-readable rejection reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "text: invalid input: " + e.Reason
}

// Is reports ErrInvalidInput as the error kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Surface names.
const (
	SurfaceStandard = "standard"
	SurfaceCompact  = "compact"
)

// Surface describes the rules of one submission form.
type Surface struct {
	Name string
	// MaxLen is the maximum length in UTF-16 code units, the unit browsers
	// report as a string's length.
	MaxLen int
	// TrimBeforeLength measures the trimmed word instead of the raw input.
	TrimBeforeLength bool
	// LettersOnly rejects anything but letters and spaces.
	LettersOnly    bool
	CheckProfanity bool
}

// Standard is the default submission form: up to 25 characters of raw input.
var Standard = Surface{Name: SurfaceStandard, MaxLen: 25}

// Compact is the stricter alternate form: 1-10 letters.
var Compact = Surface{Name: SurfaceCompact, MaxLen: 10, TrimBeforeLength: true, LettersOnly: true}

// Validate checks word against the surface rules. It never mutates state.
func (s Surface) Validate(word string) error {
	trimmed := TrimSpace(word)
	if trimmed == "" {
		return &ValidationError{Reason: "word cannot be empty"}
	}

	measured := word
	if s.TrimBeforeLength {
		measured = trimmed
	}
	if s.MaxLen > 0 && utf16Len(measured) > s.MaxLen {
		return &ValidationError{Reason: fmt.Sprintf("word must be %d characters or less", s.MaxLen)}
	}

	if s.LettersOnly {
		for _, r := range trimmed {
			if !isASCIILetter(r) && !IsSpace(r) {
				return &ValidationError{Reason: "word may only contain letters"}
			}
		}
	}

	if Normalize(word) == "" {
		return &ValidationError{Reason: "word must contain letters or digits"}
	}

	if s.CheckProfanity && IsProfane(word) {
		return &ValidationError{Reason: "word contains inappropriate content"}
	}
	return nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// Surfaces is the set of configured submission forms, keyed by name.
type Surfaces map[string]Surface

// DefaultSurfaces returns the standard and compact forms.
func DefaultSurfaces() Surfaces {
	return Surfaces{
		SurfaceStandard: Standard,
		SurfaceCompact:  Compact,
	}
}

// Lookup returns the named surface; an empty name selects the standard form.
func (ss Surfaces) Lookup(name string) (Surface, error) {
	if name == "" {
		name = SurfaceStandard
	}
	s, ok := ss[name]
	if !ok {
		return Surface{}, &ValidationError{Reason: fmt.Sprintf("unknown submission surface %q", name)}
	}
	return s, nil
}
