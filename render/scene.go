package render

import (
	"image/color"
	"math"

	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/transition"
)

// Canvas geometry, in the units particles are expressed in.
const (
	EyeWidth    = 600.0
	EyeHeight   = 300.0
	IrisRadius  = 100.0
	PupilRadius = 25.0
)

type Input struct {
	Vector emotion.Vector
	Frame  transition.Frame
	// DrawnEyes selects the sequence iris; otherwise the plain colour iris.
	DrawnEyes bool
	// Flash is the remaining strength of the post-result tint, 0 for none.
	Flash      float64
	FlashColor color.RGBA
	// Label is printed on rasterised frames.
	Label string
}

// IrisColor is the iris colour for the current frame. With a sequence the
// target hue fades in from the previous emotion's colour as the transition
// progresses; without one the plain hue of the current emotion is used.
func IrisColor(in Input) color.RGBA {
	st := in.Frame.State
	target := HSB(Hue(in.Vector.Get(st.To)), 80, 100)
	if !in.sequenced() {
		return target
	}
	return Lerp(Color(st.From), target, st.Progress)
}

func (in Input) sequenced() bool {
	return in.DrawnEyes && in.Frame.SeqLen > 0
}

// irisShade gives the sequence pattern brightness at canvas point (x, y).
// Eight spokes rotate by one step per sequence frame.
func irisShade(x, y float64, frameIndex int) float64 {
	a := math.Atan2(y, x)
	if a < 0 {
		a += 2 * math.Pi
	}
	spoke := int(a/(math.Pi/4)) + frameIndex
	r := math.Hypot(x, y) / IrisRadius
	ring := int(r * 4)
	if (spoke+ring)%2 == 0 {
		return 1
	}
	return 0.6
}

func shade(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: 255,
	}
}

func insideEye(x, y float64) bool {
	nx, ny := x/(EyeWidth/2), y/(EyeHeight/2)
	return nx*nx+ny*ny <= 1
}

func pupilRadius(f transition.Frame) float64 {
	return PupilRadius * f.Openness
}
