// Package render maps aggregate rows to the (text, weight, colour) input of
// the word-cloud canvas.
package render

import (
	"math"
	"sort"
	"unicode/utf16"
)

// Font size mapping constants.
const (
	BaseSize    = 16.0
	SizeScale   = 10.0
	MinFontSize = 12.0
	MaxFontSize = 72.0
)

// Palette is the single colour table shared by stored summaries and draw-time
// colouring. Duplicated entries are intentional; changing the length changes
// every derived colour.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#D7BDE2",
	"#A9DFBF", "#F9E79F", "#AED6F1", "#D5DBDB", "#FADBD8",
	"#E8DAEF", "#D1F2EB", "#FCF3CF", "#D6EAF8", "#FADBD8",
	"#E8F8F5", "#FEF9E7", "#EBF5FB", "#FDF2E9", "#EAF2F8",
}

// Item is one aggregate row as read from the store.
type Item struct {
	Text  string
	Count int
	Color string
}

// Word is one renderer-ready entry.
type Word struct {
	Text   string  `json:"text"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
	Color  string  `json:"color"`
}

// FontSize returns clamp(16 + ln(count+1)*10, 12, 72).
func FontSize(count int) float64 {
	if count < 0 {
		count = 0
	}
	size := BaseSize + math.Log(float64(count)+1)*SizeScale
	return math.Min(math.Max(size, MinFontSize), MaxFontSize)
}

// Color returns the palette colour for text. The hash walks UTF-16 code
// units with 32-bit shift semantics so colours match browser-side renderers.
func Color(text string) string {
	idx := hashText(text) % int64(len(Palette))
	if idx < 0 {
		idx = -idx
	}
	return Palette[idx]
}

// hashText accumulates hash = c + ((hash << 5) - hash), where the shift
// truncates hash to int32 first and the subtraction uses the full value.
func hashText(text string) int64 {
	var h int64
	for _, c := range utf16.Encode([]rune(text)) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	return h
}

// Cloud orders items by count descending (stable) and assigns weights and
// colours. A stored colour wins over the derived one.
func Cloud(items []Item) []Word {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	words := make([]Word, len(sorted))
	for i, it := range sorted {
		color := it.Color
		if color == "" {
			color = Color(it.Text)
		}
		words[i] = Word{
			Text:   it.Text,
			Count:  it.Count,
			Weight: FontSize(it.Count),
			Color:  color,
		}
	}
	return words
}
