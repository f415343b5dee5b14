package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/maastricht-university/listening-eye/emotion"
)

// Assets holds the iris image sequences, <dir>/<category>/*.png in name
// order.
type Assets struct {
	seq [emotion.NumCategories][]image.Image
}

func LoadAssets(dir string) (*Assets, error) {
	a := &Assets{}
	for _, c := range emotion.Categories() {
		files, err := filepath.Glob(filepath.Join(dir, c.String(), "*.png"))
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			img, err := decodePNG(f)
			if err != nil {
				return nil, err
			}
			a.seq[c] = append(a.seq[c], img)
		}
	}
	return a, nil
}

func decodePNG(path string) (image.Image, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	img, err := png.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Frame returns image i of c's sequence, or nil.
func (a *Assets) Frame(c emotion.Category, i int) image.Image {
	if a == nil || int(c) < 0 || int(c) >= len(a.seq) {
		return nil
	}
	s := a.seq[c]
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Lengths reports the loaded sequence lengths keyed by category name, for
// categories that have at least one image.
func (a *Assets) Lengths() map[string]int {
	out := map[string]int{}
	if a == nil {
		return out
	}
	for _, c := range emotion.Categories() {
		if n := len(a.seq[c]); n > 0 {
			out[c.String()] = n
		}
	}
	return out
}
