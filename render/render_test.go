package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/listening-eye/emotion"
	"github.com/maastricht-university/listening-eye/transition"
)

func scene(to emotion.Category, progress float64) Input {
	v := emotion.Vector{}
	v[to] = 0.5
	return Input{
		Vector: v,
		Frame: transition.Frame{
			State: transition.State{
				From:       emotion.Neutral,
				To:         to,
				Progress:   progress,
				FrameClock: time.Unix(0, 0),
			},
			Openness: 1,
			SeqLen:   6,
		},
		DrawnEyes: true,
	}
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "#0000ff", Hex(emotion.Sad))
	assert.Equal(t, "#800080", Hex(emotion.Fear))
	assert.Equal(t, "#ff0000", Hex(emotion.Anger))
	assert.Equal(t, "#ffa500", Hex(emotion.Anxiety))
	assert.Equal(t, "#ffffff", Hex(emotion.Neutral))
	assert.Equal(t, "#ffff00", Hex(emotion.Excitement))
	assert.Equal(t, "#00ff00", Hex(emotion.Joy))
	assert.Equal(t, color.RGBA{255, 165, 0, 255}, Color(emotion.Anxiety))

	assert.Equal(t, "#00ff00", LabelHex("Joy"))
	assert.Equal(t, "#ffffff", LabelHex("gratitude"))
}

func TestHSB(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, HSB(0, 100, 100))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, HSB(120, 100, 100))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, HSB(240, 100, 100))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, HSB(360, 100, 100))
	assert.Equal(t, color.RGBA{38, 38, 38, 255}, HSB(0, 0, 15))
	assert.Equal(t, 180.0, Hue(0.5))
	assert.Equal(t, 360.0, Hue(2))
}

func TestIrisColorBlendsByProgress(t *testing.T) {
	start := scene(emotion.Joy, 0)
	assert.Equal(t, Color(emotion.Neutral), IrisColor(start))

	done := scene(emotion.Joy, 1)
	assert.Equal(t, HSB(180, 80, 100), IrisColor(done))

	plain := scene(emotion.Joy, 0)
	plain.DrawnEyes = false
	assert.Equal(t, HSB(180, 80, 100), IrisColor(plain), "plain iris ignores progress")
}

func TestGridLayout(t *testing.T) {
	in := scene(emotion.Sad, 1)
	g := Grid(in, 81, 21)
	require.Len(t, g, 21)
	for _, row := range g {
		require.Len(t, row, 81)
	}

	assert.Equal(t, runePupil, g[10][40].Rune, "pupil at the centre")
	assert.Equal(t, ' ', g[0][0].Rune, "corner is outside the eye")
	for col, c := range g[10] {
		if c.Rune != ' ' {
			assert.Equal(t, runeOutline, c.Rune, "left tip at column %d", col)
			break
		}
	}
	for row := range g {
		if c := g[row][40]; c.Rune != ' ' {
			assert.Equal(t, runeOutline, c.Rune, "top of the outline at row %d", row)
			break
		}
	}

	iris := 0
	for _, row := range g {
		for _, c := range row {
			if c.Rune == runeIris || c.Rune == runeIrisDim {
				iris++
			}
		}
	}
	assert.Positive(t, iris)
}

func TestGridBlinkShrinksPupil(t *testing.T) {
	count := func(open float64) int {
		in := scene(emotion.Neutral, 1)
		in.Frame.Openness = open
		n := 0
		for _, row := range Grid(in, 121, 31) {
			for _, c := range row {
				if c.Rune == runePupil {
					n++
				}
			}
		}
		return n
	}
	assert.Greater(t, count(1.5), count(1))
	assert.Greater(t, count(1), count(0.1))
}

func TestGridParticles(t *testing.T) {
	in := scene(emotion.Joy, 0.5)
	in.Frame.Particles = []transition.Particle{{X: 150, Y: 0, Size: 10}, {X: 5000, Y: 0, Size: 10}}
	g := Grid(in, 81, 21)
	assert.Equal(t, runeParticle, g[10][60].Rune)
}

func TestGridDoesNotMutateInput(t *testing.T) {
	in := scene(emotion.Joy, 0.5)
	in.Frame.Particles = []transition.Particle{{X: 10, Y: 10, Size: 10}}
	Grid(in, 40, 10)
	Image(in, 64, 32, nil)
	assert.Equal(t, 10.0, in.Frame.Particles[0].Size)
}

func TestTerminalDimensions(t *testing.T) {
	out := Terminal(scene(emotion.Anger, 1), 60, 15)
	assert.Equal(t, 60, lipgloss.Width(out))
	assert.Equal(t, 15, lipgloss.Height(out))
	assert.Empty(t, Terminal(scene(emotion.Anger, 1), 0, 0))
}

func TestImage(t *testing.T) {
	in := scene(emotion.Joy, 1)
	in.Label = "JOY"
	img := Image(in, 320, 160, nil)
	assert.Equal(t, image.Rect(0, 0, 320, 160), img.Bounds())
	assert.Equal(t, pupilColor, img.RGBAAt(160, 80))
	assert.Equal(t, background, img.RGBAAt(1, 159))
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	fd, err := os.Create(path)
	require.NoError(t, err)
	defer fd.Close()
	require.NoError(t, png.Encode(fd, img))
}

func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "sad", "sad_2.png"), color.White)
	writePNG(t, filepath.Join(dir, "sad", "sad_1.png"), color.Black)
	writePNG(t, filepath.Join(dir, "joy", "joy_1.png"), color.White)

	a, err := LoadAssets(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sad": 2, "joy": 1}, a.Lengths())

	first := a.Frame(emotion.Sad, 0)
	require.NotNil(t, first)
	r, _, _, _ := first.At(0, 0).RGBA()
	assert.Zero(t, r, "files load in name order")
	assert.Nil(t, a.Frame(emotion.Sad, 2))
	assert.Nil(t, a.Frame(emotion.Fear, 0))

	var none *Assets
	assert.Nil(t, none.Frame(emotion.Joy, 0))
}

func TestImageDrawsAssetFrame(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "joy", "joy_1.png"), color.White)
	a, err := LoadAssets(dir)
	require.NoError(t, err)

	in := scene(emotion.Joy, 1)
	in.Frame.SeqLen = 1
	in.Frame.Openness = 0.1
	img := Image(in, 320, 160, a)

	// white asset tinted by the joy hue
	assert.Equal(t, HSB(180, 80, 100), img.RGBAAt(160+30, 80))
}
