// Package render draws the eye. Everything here is a pure function of the
// emotion vector and a transition.Frame; nothing is mutated.
package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/maastricht-university/listening-eye/emotion"
)

var palette = [emotion.NumCategories]string{
	emotion.Sad:        "#0000ff",
	emotion.Fear:       "#800080",
	emotion.Anger:      "#ff0000",
	emotion.Anxiety:    "#ffa500",
	emotion.Neutral:    "#ffffff",
	emotion.Excitement: "#ffff00",
	emotion.Joy:        "#00ff00",
}

// Hex is the status and panel colour of a category.
func Hex(c emotion.Category) string {
	if int(c) < 0 || int(c) >= len(palette) {
		return "#ffffff"
	}
	return palette[c]
}

// LabelHex resolves a classifier label. Labels outside the seven categories
// are white.
func LabelHex(label string) string {
	if c, ok := emotion.Parse(label); ok {
		return Hex(c)
	}
	return "#ffffff"
}

func Color(c emotion.Category) color.RGBA {
	return ParseHex(Hex(c))
}

// ParseHex reads "#rrggbb". Anything else is white.
func ParseHex(s string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{r, g, b, 255}
}

func toHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Hue maps a confidence in [0,1] onto the colour wheel.
func Hue(confidence float64) float64 {
	return clamp(confidence, 0, 1) * 360
}

// HSB converts hue in degrees and saturation/brightness in percent.
func HSB(h, s, b float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp(s, 0, 100) / 100
	v := clamp(b, 0, 100) / 100

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, bl float64
	switch {
	case h < 60:
		r, g = c, x
	case h < 120:
		r, g = x, c
	case h < 180:
		g, bl = c, x
	case h < 240:
		g, bl = x, c
	case h < 300:
		r, bl = x, c
	default:
		r, bl = c, x
	}
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((bl + m) * 255)),
		A: 255,
	}
}

// Lerp blends a towards b; t is clamped to [0,1].
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = clamp(t, 0, 1)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

var (
	background    = HSB(0, 0, 15)
	outlineColor  = HSB(0, 0, 80)
	particleColor = HSB(200, 80, 100)
	pupilColor    = color.RGBA{0, 0, 0, 255}
)
