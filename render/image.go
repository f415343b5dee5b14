package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Image rasterises the scene at w×h pixels. A sequence frame from assets,
// when present, replaces the drawn iris pattern and fades in with the
// transition progress.
func Image(in Input, w, h int, assets *Assets) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	s := math.Min(float64(w)/(EyeWidth+40), float64(h)/(EyeHeight+20))
	cx, cy := float64(w)/2, float64(h)/2
	st := in.Frame.State
	iris := IrisColor(in)
	pr := pupilRadius(in.Frame)

	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			x, y := (float64(px)+0.5-cx)/s, (float64(py)+0.5-cy)/s
			if !insideEye(x, y) {
				continue
			}
			var c color.RGBA
			switch {
			case isEdge(x, y, 1.5/s, 1.5/s):
				c = outlineColor
			case math.Hypot(x, y) <= IrisRadius:
				c = iris
				if in.sequenced() {
					c = shade(iris, irisShade(x, y, st.FrameIndex))
				}
			default:
				continue
			}
			dst.SetRGBA(px, py, c)
		}
	}

	if frame := assets.Frame(st.To, st.FrameIndex); frame != nil && in.DrawnEyes {
		r := int(IrisRadius * s)
		rect := image.Rect(int(cx)-r, int(cy)-r, int(cx)+r, int(cy)+r)
		drawTinted(dst, rect, frame, HSB(Hue(in.Vector.Get(st.To)), 80, 100), st.Progress)
	}

	fillCircle(dst, cx, cy, pr*s, pupilColor)
	for _, p := range in.Frame.Particles {
		fillCircle(dst, cx+p.X*s, cy+p.Y*s, p.Size/2*s, particleColor)
	}

	if in.Flash > 0 {
		a := uint8(clamp(in.Flash*0.2, 0, 1) * 255)
		fc := in.FlashColor
		over := color.NRGBA{fc.R, fc.G, fc.B, a}
		draw.Draw(dst, dst.Bounds(), image.NewUniform(over), image.Point{}, draw.Over)
	}

	if in.Label != "" {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.White),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(10), Y: fixed.I(20)},
		}
		d.DrawString(in.Label)
	}
	return dst
}

// drawTinted scales src into rect, multiplies it by tint and composites it
// with the given opacity.
func drawTinted(dst *image.RGBA, rect image.Rectangle, src image.Image, tint color.RGBA, alpha float64) {
	scaled := image.NewRGBA(rect)
	xdraw.ApproxBiLinear.Scale(scaled, rect, src, src.Bounds(), xdraw.Src, nil)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := scaled.RGBAAt(x, y)
			p.R = uint8(uint16(p.R) * uint16(tint.R) / 255)
			p.G = uint8(uint16(p.G) * uint16(tint.G) / 255)
			p.B = uint8(uint16(p.B) * uint16(tint.B) / 255)
			scaled.SetRGBA(x, y, p)
		}
	}
	mask := image.NewUniform(color.Alpha{uint8(clamp(alpha, 0, 1) * 255)})
	draw.DrawMask(dst, rect, scaled, rect.Min, mask, image.Point{}, draw.Over)
}

func fillCircle(dst *image.RGBA, cx, cy, r float64, c color.RGBA) {
	if r <= 0 {
		return
	}
	b := dst.Bounds()
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{x, y}).In(b) {
				continue
			}
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}
