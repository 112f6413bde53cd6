package display

import (
	"strconv"
	"strings"
)

const (
	Black = "#000000"
	White = "#ffffff"
)

// Contrast picks a black or white foreground for a background color given
// as #rgb or #rrggbb. Light backgrounds, where
// (0.299R + 0.587G + 0.114B)/255 > 0.5, get black text. Unparseable colors
// get black.
func Contrast(background string) string {
	r, g, b, ok := parseHex(background)
	if !ok {
		return Black
	}
	lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if lum > 0.5 {
		return Black
	}
	return White
}

func parseHex(s string) (r, g, b uint8, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(n >> 16), uint8(n >> 8), uint8(n), true
}
