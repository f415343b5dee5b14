package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cell is one terminal character of the scene.
type Cell struct {
	Rune  rune
	Color color.RGBA
}

const (
	runeOutline  = '·'
	runeIris     = '▓'
	runeIrisDim  = '▒'
	runePupil    = '█'
	runeParticle = '•'
)

// Grid lays the scene out on width×height cells. Terminal cells are about
// twice as tall as they are wide, so a canvas unit covers half as many rows
// as columns.
func Grid(in Input, width, height int) [][]Cell {
	if width < 1 || height < 1 {
		return nil
	}
	s := math.Min(float64(width-1)/EyeWidth, float64(height-1)*2/EyeHeight)
	if s <= 0 {
		s = 1 / EyeWidth
	}
	sy := s / 2
	cx, cy := float64(width-1)/2, float64(height-1)/2
	toCanvas := func(col, row int) (float64, float64) {
		return (float64(col) - cx) / s, (float64(row) - cy) / sy
	}

	iris := IrisColor(in)
	pr := pupilRadius(in.Frame)

	g := make([][]Cell, height)
	for row := range g {
		g[row] = make([]Cell, width)
		for col := range g[row] {
			x, y := toCanvas(col, row)
			c := Cell{Rune: ' ', Color: background}
			switch {
			case !insideEye(x, y):
			case isEdge(x, y, 1/s, 1/sy):
				c = Cell{Rune: runeOutline, Color: outlineColor}
			case math.Hypot(x, y) <= pr:
				c = Cell{Rune: runePupil, Color: pupilColor}
			case math.Hypot(x, y) <= IrisRadius:
				c = Cell{Rune: runeIris, Color: iris}
				if in.sequenced() && irisShade(x, y, in.Frame.FrameIndex) < 1 {
					c = Cell{Rune: runeIrisDim, Color: shade(iris, 0.6)}
				}
			}
			if in.Flash > 0 && c.Rune != ' ' {
				c.Color = Lerp(c.Color, in.FlashColor, in.Flash*0.2)
			}
			g[row][col] = c
		}
	}

	for _, p := range in.Frame.Particles {
		col := int(math.Round(cx + p.X*s))
		row := int(math.Round(cy + p.Y*sy))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		g[row][col] = Cell{Rune: runeParticle, Color: particleColor}
	}
	return g
}

// isEdge reports whether a point inside the eye has a neighbouring cell
// outside it.
func isEdge(x, y, dx, dy float64) bool {
	return !insideEye(x+dx, y) || !insideEye(x-dx, y) || !insideEye(x, y+dy) || !insideEye(x, y-dy)
}

// Terminal renders the scene as styled text, one line per row.
func Terminal(in Input, width, height int) string {
	g := Grid(in, width, height)
	lines := make([]string, len(g))
	for i, row := range g {
		lines[i] = styleRow(row)
	}
	return strings.Join(lines, "\n")
}

// styleRow groups runs of equal colour so each run is styled once.
func styleRow(row []Cell) string {
	var b strings.Builder
	start := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && row[i].Color == row[start].Color {
			continue
		}
		run := make([]rune, 0, i-start)
		for _, c := range row[start:i] {
			run = append(run, c.Rune)
		}
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(toHex(row[start].Color)))
		b.WriteString(st.Render(string(run)))
		start = i
	}
	return b.String()
}
