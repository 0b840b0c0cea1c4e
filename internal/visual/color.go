package visual

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var namedColors = map[string][3]int{
	"black": {0, 0, 0},
	"white": {255, 255, 255},
	"grey":  {128, 128, 128},
	"gray":  {128, 128, 128},
	"red":   {255, 0, 0},
}

// ParseColor understands #rgb, #rrggbb, rgb(), rgba() and a few names.
// Unknown input yields opaque black.
func ParseColor(s string) ([3]int, float64) {
	s = strings.ToLower(strings.TrimSpace(s))
	if rgb, ok := namedColors[s]; ok {
		return rgb, 1
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			v, err := strconv.ParseUint(hex, 16, 32)
			if err == nil {
				return [3]int{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, 1
			}
		}
		return [3]int{}, 1
	}
	if open := strings.Index(s, "("); open > 0 && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[open+1:len(s)-1], ",")
		if len(parts) < 3 {
			return [3]int{}, 1
		}
		var rgb [3]int
		for i := range 3 {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil {
				return [3]int{}, 1
			}
			rgb[i] = min(max(n, 0), 255)
		}
		alpha := 1.0
		if len(parts) == 4 {
			if a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err == nil {
				alpha = math.Min(math.Max(a, 0), 1)
			}
		}
		return rgb, alpha
	}
	return [3]int{}, 1
}

// BlendOverWhite resolves s to an opaque #rrggbb, compositing any alpha over
// a white background.
func BlendOverWhite(s string) string {
	rgb, alpha := ParseColor(s)
	for i := range rgb {
		rgb[i] = int(math.Round(float64(rgb[i])*alpha + 255*(1-alpha)))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}
