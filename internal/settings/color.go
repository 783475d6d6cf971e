package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB colour with alpha in [0,1]
type Color struct {
	colorful.Color
	A float64
}

// Over composites c over an opaque background
func (c Color) Over(bg Color) Color {
	a := max(0, min(1, c.A))
	return Color{Color: c.Color.BlendRgb(bg.Color, 1-a).Clamped(), A: 1}
}

// WithAlpha returns c with its alpha multiplied by f
func (c Color) WithAlpha(f float64) Color {
	c.A *= f
	return c
}

// ParseColor reads #rgb, #rrggbb, rgb(r, g, b) and rgba(r, g, b, a)
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("invalid colour %q", s)
		}
		return Color{Color: c, A: 1}, nil
	}

	var args string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		args = s[5 : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		args = s[4 : len(s)-1]
	default:
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}

	parts := strings.Split(args, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}

	var rgb [3]float64
	for i := range rgb {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("invalid colour %q", s)
		}
		rgb[i] = float64(v) / 255
	}

	alpha := 1.0
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid colour %q", s)
		}
		alpha = a
	}
	return Color{Color: colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, A: alpha}, nil
}
